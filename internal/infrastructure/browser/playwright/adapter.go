package playwright

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"
	"browsertools/internal/infrastructure/browser/snapshot"

	"github.com/playwright-community/playwright-go"
)

var (
	_ output.BrowserPort     = (*BrowserAdapter)(nil)
	_ output.BrowserLauncher = (*Engine)(nil)
)

const defaultActionTimeout = 30 * time.Second

type BrowserConfig struct {
	Headless bool
	// Install downloads the driver and browsers before the first launch.
	Install            bool
	ActionTimeout      time.Duration
	ScreenshotMaxWidth int
}

// Engine drives chromium, firefox and webkit through a playwright driver
// process. Each Launch starts its own driver so that Close releases
// everything the session started.
type Engine struct {
	cfg BrowserConfig
}

func NewEngine(cfg BrowserConfig) *Engine {
	if cfg.ActionTimeout <= 0 {
		cfg.ActionTimeout = defaultActionTimeout
	}
	return &Engine{cfg: cfg}
}

func (e *Engine) Launch(ctx context.Context, kind entity.BrowserKind) (output.BrowserPort, error) {
	opts := &playwright.RunOptions{
		Browsers: []string{string(kind)},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if e.cfg.Install {
		if err := playwright.Install(opts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var browserType playwright.BrowserType
	switch kind {
	case entity.BrowserChromium:
		browserType = pw.Chromium
	case entity.BrowserFirefox:
		browserType = pw.Firefox
	case entity.BrowserWebKit:
		browserType = pw.WebKit
	default:
		_ = pw.Stop()
		return nil, fmt.Errorf("unsupported browser kind %q", kind)
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.cfg.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", kind, err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(e.cfg.ActionTimeout.Milliseconds()))

	return &BrowserAdapter{
		pw:      pw,
		browser: browser,
		page:    page,
		cfg:     e.cfg,
	}, nil
}

type BrowserAdapter struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	cfg     BrowserConfig
	closed  bool
}

// Navigate waits for the load event. playwright calls take no context, so
// the context deadline is translated into a navigation timeout.
func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	opts := playwright.PageGotoOptions{}
	waitUntil := playwright.WaitUntilState("load")
	opts.WaitUntil = &waitUntil
	if timeout, ok := remaining(ctx); ok {
		opts.Timeout = &timeout
	}

	if _, err := b.page.Goto(url, opts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return ctx.Err()
}

func (b *BrowserAdapter) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := b.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := b.page.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return snapshot.Encode(raw, b.cfg.ScreenshotMaxWidth)
}

func (b *BrowserAdapter) CurrentURL() string {
	return b.page.URL()
}

func (b *BrowserAdapter) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if err := b.page.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close page: %w", err))
	}
	if err := b.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close browser: %w", err))
	}
	if err := b.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

// remaining converts the context deadline into playwright milliseconds.
func remaining(ctx context.Context) (float64, bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return ms, true
}

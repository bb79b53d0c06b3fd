package rod

import (
	"context"
	"errors"
	"fmt"
	"time"

	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"
	"browsertools/internal/infrastructure/browser/snapshot"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

const (
	defaultSlowMotion = 0
	defaultIdleWait   = 2 * time.Second
)

var (
	_ output.BrowserPort     = (*BrowserAdapter)(nil)
	_ output.BrowserLauncher = (*Engine)(nil)
)

type BrowserConfig struct {
	Headless                bool
	SlowMotion              time.Duration
	IdleWait                time.Duration
	NoSandbox               bool
	DevTools                bool
	DisableSecurityFeatures bool
	Bin                     string
	ScreenshotMaxWidth      int
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:           false,
		SlowMotion:         defaultSlowMotion,
		IdleWait:           defaultIdleWait,
		NoSandbox:          false,
		DevTools:           false,
		ScreenshotMaxWidth: snapshot.DefaultMaxWidth,
	}
}

// Engine launches chromium through the DevTools protocol.
type Engine struct {
	cfg BrowserConfig
}

func NewEngine(cfg BrowserConfig) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Launch(ctx context.Context, kind entity.BrowserKind) (output.BrowserPort, error) {
	if kind != entity.BrowserChromium {
		return nil, fmt.Errorf("rod driver supports chromium only, got %s", kind)
	}
	return NewBrowserAdapter(ctx, e.cfg)
}

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	cfg      BrowserConfig
	closed   bool
}

// NewBrowserAdapter starts a chromium process and opens about:blank. On any
// failure the process is killed before returning.
func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.IdleWait <= 0 {
		cfg.IdleWait = defaultIdleWait
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")
	if cfg.DisableSecurityFeatures {
		l = l.Set("disable-web-security").
			Set("allow-running-insecure-content").
			Set("disable-setuid-sandbox")
	}
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page.Context(context.Background()),
		cfg:      cfg,
	}, nil
}

func (b *BrowserAdapter) IsReady() bool {
	return !b.closed && b.page != nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	p := b.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}
	_ = p.WaitIdle(b.cfg.IdleWait)
	return nil
}

func (b *BrowserAdapter) HTML(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	imgBytes, err := b.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return snapshot.Encode(imgBytes, b.cfg.ScreenshotMaxWidth)
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close shuts the browser down and kills the chromium process.
func (b *BrowserAdapter) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
	return errors.Join(errs...)
}

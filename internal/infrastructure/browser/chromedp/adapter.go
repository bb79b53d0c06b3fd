package chromedp

import (
	"context"
	"fmt"

	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"
	"browsertools/internal/infrastructure/browser/snapshot"

	"github.com/chromedp/chromedp"
)

var (
	_ output.BrowserPort     = (*BrowserAdapter)(nil)
	_ output.BrowserLauncher = (*Engine)(nil)
)

type BrowserConfig struct {
	Headless           bool
	NoSandbox          bool
	Bin                string
	ScreenshotMaxWidth int
}

// Engine is the chromedp alternative to the rod chromium driver.
type Engine struct {
	cfg BrowserConfig
}

func NewEngine(cfg BrowserConfig) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) Launch(ctx context.Context, kind entity.BrowserKind) (output.BrowserPort, error) {
	if kind != entity.BrowserChromium {
		return nil, fmt.Errorf("chromedp driver supports chromium only, got %s", kind)
	}
	return NewBrowserAdapter(ctx, e.cfg)
}

type BrowserAdapter struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	cfg         BrowserConfig
	closed      bool
}

// NewBrowserAdapter starts chromium and its first tab. The browser lives on
// a background context; ctx only bounds the start-up.
func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.Bin != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Bin))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run allocates the browser and binds it to the context it is
	// given, so it must run on tabCtx. ctx aborts the start-up by cancelling it.
	stop := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank"))
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &BrowserAdapter{
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		cfg:         cfg,
	}, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := withDeadlineOf(b.tabCtx, ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := withDeadlineOf(b.tabCtx, ctx)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	runCtx, cancel := withDeadlineOf(b.tabCtx, ctx)
	defer cancel()

	var raw []byte
	if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&raw)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return snapshot.Encode(raw, b.cfg.ScreenshotMaxWidth)
}

func (b *BrowserAdapter) CurrentURL() string {
	var url string
	if err := chromedp.Run(b.tabCtx, chromedp.Location(&url)); err != nil {
		return ""
	}
	return url
}

// Close closes the tab gracefully, then kills the browser process.
func (b *BrowserAdapter) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	err := chromedp.Cancel(b.tabCtx)
	b.tabCancel()
	b.allocCancel()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// withDeadlineOf derives a context from parent that also ends at src's
// deadline or cancellation. Cancelling it does not close the chromedp tab.
func withDeadlineOf(parent, src context.Context) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := src.Deadline(); ok {
		ctx, cancel = context.WithDeadline(parent, deadline)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	stop := context.AfterFunc(src, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

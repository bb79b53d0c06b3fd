package browser

import (
	"context"
	"fmt"

	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"
	"browsertools/internal/infrastructure/browser/chromedp"
	"browsertools/internal/infrastructure/browser/playwright"
	"browsertools/internal/infrastructure/browser/rod"
	"browsertools/internal/infrastructure/config"
)

var _ output.BrowserLauncher = (*Launcher)(nil)

// Launcher picks an engine per BrowserKind: chromium goes to the configured
// driver, firefox and webkit always go to playwright.
type Launcher struct {
	chromium output.BrowserLauncher
	other    output.BrowserLauncher
	driver   string
	logger   output.LoggerPort
}

func NewLauncher(cfg config.BrowserConfig, logger output.LoggerPort) *Launcher {
	pw := playwright.NewEngine(playwright.BrowserConfig{
		Headless:           cfg.Headless,
		Install:            cfg.InstallPlaywright,
		ScreenshotMaxWidth: cfg.ScreenshotMaxWidth,
	})

	var chromium output.BrowserLauncher
	switch cfg.ChromiumDriver {
	case config.DriverChromedp:
		chromium = chromedp.NewEngine(chromedp.BrowserConfig{
			Headless:           cfg.Headless,
			NoSandbox:          cfg.NoSandbox,
			Bin:                cfg.Bin,
			ScreenshotMaxWidth: cfg.ScreenshotMaxWidth,
		})
	case config.DriverPlaywright:
		chromium = pw
	default:
		rodCfg := rod.DefaultConfig()
		rodCfg.Headless = cfg.Headless
		rodCfg.SlowMotion = cfg.SlowMotion
		rodCfg.NoSandbox = cfg.NoSandbox
		rodCfg.Bin = cfg.Bin
		rodCfg.ScreenshotMaxWidth = cfg.ScreenshotMaxWidth
		chromium = rod.NewEngine(rodCfg)
	}

	return newLauncher(chromium, pw, cfg.ChromiumDriver, logger)
}

func newLauncher(chromium, other output.BrowserLauncher, driver string, logger output.LoggerPort) *Launcher {
	if driver == "" {
		driver = config.DriverRod
	}
	return &Launcher{chromium: chromium, other: other, driver: driver, logger: logger}
}

func (l *Launcher) Launch(ctx context.Context, kind entity.BrowserKind) (output.BrowserPort, error) {
	switch kind {
	case entity.BrowserChromium:
		l.logger.Debug("Launching engine", "browser_type", kind.String(), "driver", l.driver)
		return l.chromium.Launch(ctx, kind)
	case entity.BrowserFirefox, entity.BrowserWebKit:
		l.logger.Debug("Launching engine", "browser_type", kind.String(), "driver", config.DriverPlaywright)
		return l.other.Launch(ctx, kind)
	default:
		return nil, fmt.Errorf("no engine for browser kind %q", kind)
	}
}

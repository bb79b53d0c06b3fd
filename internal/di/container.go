package di

import (
	"errors"
	"fmt"

	"browsertools/internal/adapter/tool"
	"browsertools/internal/application/port/input"
	"browsertools/internal/application/port/output"
	"browsertools/internal/application/service"
	"browsertools/internal/infrastructure/browser"
	"browsertools/internal/infrastructure/config"
	"browsertools/internal/infrastructure/htmlclean"
	"browsertools/internal/infrastructure/logger"
	"browsertools/internal/infrastructure/metrics"
	"browsertools/internal/usecase/executor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Container struct {
	Config       config.Config
	Logger       output.LoggerPort
	Registry     *prometheus.Registry
	Metrics      *metrics.Collector
	Session      *service.BrowserSession
	Tools        *service.ToolRegistry
	PlanExecutor input.PlanExecutor
}

type Options struct {
	Config config.Config
	// LogName becomes part of the log file name.
	LogName string
	// Logger and Launcher replace the file logger and the real engines.
	Logger   output.LoggerPort
	Launcher output.BrowserLauncher
}

func NewContainer(opts Options) (*Container, error) {
	cfg := opts.Config

	log := opts.Logger
	if log == nil {
		fileLog, err := logger.NewLoggerAdapter(logger.Config{
			Dir:   cfg.Log.Dir,
			Level: cfg.Log.Level,
			Name:  opts.LogName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		log = fileLog
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	launcher := opts.Launcher
	if launcher == nil {
		launcher = browser.NewLauncher(cfg.Browser, log)
	}

	session := service.NewBrowserSession(launcher, log,
		service.WithNavigationTimeout(cfg.Browser.NavigationTimeout),
		service.WithSessionMetrics(collector),
	)
	registry := service.NewToolRegistry(session, log, collector)

	cleaner := htmlclean.New(cleanConfig(cfg.Clean))
	tool.NewBrowserTools(session, cleaner, log, cfg.DefaultKind()).Register(registry)

	log.Info("Container ready",
		"browser_type", cfg.Browser.DefaultType,
		"chromium_driver", cfg.Browser.ChromiumDriver,
		"headless", cfg.Browser.Headless,
		"tools", len(registry.Definitions()),
	)

	return &Container{
		Config:       cfg,
		Logger:       log,
		Registry:     reg,
		Metrics:      collector,
		Session:      session,
		Tools:        registry,
		PlanExecutor: executor.New(registry, log),
	}, nil
}

// Close releases the browser, then the logger.
func (c *Container) Close() error {
	var errs []error
	if c.Tools != nil {
		if err := c.Tools.Close(); err != nil {
			c.Logger.Error("Failed to close browser", "error", err)
			errs = append(errs, err)
		}
	}
	if c.Logger != nil {
		c.Logger.Info("Shutting down")
		if err := c.Logger.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func cleanConfig(c config.CleanConfig) *htmlclean.CleanConfig {
	cc := htmlclean.DefaultCleanConfig
	cc.MaxOutputSize = c.MaxOutputSize
	return &cc
}

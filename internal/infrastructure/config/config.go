package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

const (
	DriverRod        = "rod"
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
)

type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Clean   CleanConfig   `yaml:"clean"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
}

type BrowserConfig struct {
	DefaultType        string        `yaml:"default_type"`
	Headless           bool          `yaml:"headless"`
	NavigationTimeout  time.Duration `yaml:"navigation_timeout"`
	ChromiumDriver     string        `yaml:"chromium_driver"`
	SlowMotion         time.Duration `yaml:"slow_motion"`
	NoSandbox          bool          `yaml:"no_sandbox"`
	Bin                string        `yaml:"bin"`
	ScreenshotMaxWidth int           `yaml:"screenshot_max_width"`
	InstallPlaywright  bool          `yaml:"install_playwright"`
}

type CleanConfig struct {
	MaxOutputSize int `yaml:"max_output_size"`
}

type LogConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func Default() Config {
	return Config{
		Browser: BrowserConfig{
			DefaultType:        string(entity.BrowserChromium),
			Headless:           false,
			NavigationTimeout:  30 * time.Second,
			ChromiumDriver:     DriverRod,
			ScreenshotMaxWidth: 1024,
		},
		Log: LogConfig{
			Dir:   "log",
			Level: "info",
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1:8089",
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path (skipped
// when path is empty), then environment variables.
func Load(path string, envSvc output.ConfigPort) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envSvc != nil {
		applyEnv(&cfg, envSvc)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, e output.ConfigPort) {
	b := &cfg.Browser
	b.DefaultType = e.GetWithDefault("BROWSER_TYPE", b.DefaultType)
	b.Headless = e.GetBool("BROWSER_HEADLESS", b.Headless)
	b.NavigationTimeout = e.GetDuration("BROWSER_NAVIGATION_TIMEOUT", b.NavigationTimeout)
	b.ChromiumDriver = e.GetWithDefault("BROWSER_CHROMIUM_DRIVER", b.ChromiumDriver)
	b.NoSandbox = e.GetBool("BROWSER_NO_SANDBOX", b.NoSandbox)
	b.Bin = e.GetWithDefault("BROWSER_BIN", b.Bin)
	b.InstallPlaywright = e.GetBool("BROWSER_INSTALL_PLAYWRIGHT", b.InstallPlaywright)

	cfg.Clean.MaxOutputSize = e.GetInt("CLEAN_MAX_OUTPUT_SIZE", cfg.Clean.MaxOutputSize)
	cfg.Log.Dir = e.GetWithDefault("LOG_DIR", cfg.Log.Dir)
	cfg.Log.Level = e.GetWithDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.HTTP.Addr = e.GetWithDefault("HTTP_ADDR", cfg.HTTP.Addr)
}

func (c Config) Validate() error {
	var errs []error
	if _, err := entity.ParseBrowserKind(c.Browser.DefaultType); err != nil {
		errs = append(errs, fmt.Errorf("browser.default_type: %w", err))
	}
	switch c.Browser.ChromiumDriver {
	case DriverRod, DriverChromedp, DriverPlaywright:
	default:
		errs = append(errs, fmt.Errorf("browser.chromium_driver: unknown driver %q", c.Browser.ChromiumDriver))
	}
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("browser.navigation_timeout must be positive"))
	}
	if c.Clean.MaxOutputSize < 0 {
		errs = append(errs, errors.New("clean.max_output_size must not be negative"))
	}
	return errors.Join(errs...)
}

// DefaultKind is the parsed browser.default_type. Validate guarantees it parses.
func (c Config) DefaultKind() entity.BrowserKind {
	kind, err := entity.ParseBrowserKind(c.Browser.DefaultType)
	if err != nil {
		return entity.BrowserChromium
	}
	return kind
}

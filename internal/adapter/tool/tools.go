package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"browsertools/internal/application/port/output"
	"browsertools/internal/application/service"
	"browsertools/internal/domain/entity"
)

// HTMLCleaner normalizes markup in memory and stored HTML files in place.
type HTMLCleaner interface {
	output.HTMLNormalizer
	CleanFile(path string) error
}

// BrowserTools adapts BrowserSession operations into registry tools.
type BrowserTools struct {
	session     *service.BrowserSession
	cleaner     HTMLCleaner
	logger      output.LoggerPort
	defaultKind entity.BrowserKind
}

func NewBrowserTools(session *service.BrowserSession, cleaner HTMLCleaner, logger output.LoggerPort, defaultKind entity.BrowserKind) *BrowserTools {
	if defaultKind == "" {
		defaultKind = entity.BrowserChromium
	}
	return &BrowserTools{
		session:     session,
		cleaner:     cleaner,
		logger:      logger,
		defaultKind: defaultKind,
	}
}

// Register adds every browser tool to the registry.
func (b *BrowserTools) Register(registry *service.ToolRegistry) {
	for _, t := range b.Tools() {
		registry.Register(t)
	}
}

func (b *BrowserTools) Tools() []service.Tool {
	kinds := make([]string, 0, 3)
	for _, k := range entity.BrowserKinds() {
		kinds = append(kinds, k.String())
	}
	filePath := func(desc string) entity.ToolParam {
		return entity.ToolParam{Name: "file_path", Type: "string", Description: desc, Required: true}
	}

	return []service.Tool{
		{
			Definition: entity.ToolDefinition{
				Name:        entity.ToolOpenBrowser,
				Description: "Opens a new browser instance. Specify browser_type as 'chromium', 'firefox', or 'webkit'",
				Params: []entity.ToolParam{{
					Name:        "browser_type",
					Type:        "string",
					Description: "Browser engine to launch",
					Default:     b.defaultKind.String(),
					Enum:        kinds,
				}},
			},
			Handler: b.openBrowser,
		},
		{
			Definition: entity.ToolDefinition{
				Name:        entity.ToolNavigate,
				Description: "Navigates to a specified URL in the opened browser",
				Params: []entity.ToolParam{{
					Name:        "url",
					Type:        "string",
					Description: "Full URL to navigate to, including the scheme (https://...)",
					Required:    true,
				}},
				RequiresSession: true,
			},
			Handler: b.navigate,
		},
		{
			Definition: entity.ToolDefinition{
				Name:            entity.ToolGetHTML,
				Description:     "Gets the HTML from the current page, saves it to file_path and cleans the saved file",
				Params:          []entity.ToolParam{filePath("Path of the file to write the page HTML to")},
				RequiresSession: true,
			},
			Handler: b.getHTML,
		},
		{
			Definition: entity.ToolDefinition{
				Name:            entity.ToolSaveHTML,
				Description:     "Saves the cleaned HTML content of the current page to a specified file path",
				Params:          []entity.ToolParam{filePath("Path of the file to write the cleaned HTML to")},
				RequiresSession: true,
			},
			Handler: b.saveHTML,
		},
		{
			Definition: entity.ToolDefinition{
				Name:            entity.ToolTakeScreenshot,
				Description:     "Saves a JPEG screenshot of the current page to a specified file path",
				Params:          []entity.ToolParam{filePath("Path of the JPEG file to write")},
				RequiresSession: true,
			},
			Handler: b.takeScreenshot,
		},
		{
			Definition: entity.ToolDefinition{
				Name:            entity.ToolCurrentPage,
				Description:     "Reports the URL of the page currently loaded in the browser",
				RequiresSession: true,
			},
			Handler: b.currentPage,
		},
		{
			Definition: entity.ToolDefinition{
				Name:        entity.ToolCloseBrowser,
				Description: "Closes the browser and releases its process. The browser cannot be reopened afterwards",
			},
			Handler: b.closeBrowser,
		},
	}
}

func (b *BrowserTools) openBrowser(ctx context.Context, args map[string]string) (string, error) {
	raw := args["browser_type"]
	kind, err := entity.ParseBrowserKind(raw)
	if err != nil {
		return fmt.Sprintf("Unsupported browser type '%s'. Use 'chromium', 'firefox', or 'webkit'.", raw),
			fmt.Errorf("%w: %w", service.ErrUnsupportedBrowser, err)
	}

	if err := b.session.Open(ctx, kind); err != nil {
		if errors.Is(err, service.ErrAlreadyOpen) && b.session.State() == entity.SessionClosed {
			return "Failed to open browser: the browser session has already been closed", err
		}
		return fmt.Sprintf("Failed to open browser: %v", err), err
	}
	return "Browser opened successfully", nil
}

func (b *BrowserTools) navigate(ctx context.Context, args map[string]string) (string, error) {
	url := strings.TrimSpace(args["url"])
	if err := b.session.Navigate(ctx, url); err != nil {
		if errors.Is(err, service.ErrNotOpen) {
			return service.NotOpenMessage, err
		}
		return fmt.Sprintf("Failed to navigate to %s: %v", url, err), err
	}
	return fmt.Sprintf("Navigated to %s successfully", url), nil
}

// getHTML persists the raw capture first and then normalizes the stored
// file in place.
func (b *BrowserTools) getHTML(ctx context.Context, args map[string]string) (string, error) {
	path := args["file_path"]
	doc, err := b.capture(ctx)
	if err != nil {
		return captureFailure(err)
	}
	doc.NormalizedHTML = b.cleaner.Clean(doc.RawHTML)

	if err := writeFile(path, doc.RawHTML); err != nil {
		return fmt.Sprintf("Failed to save HTML to %s: %v", path, err), err
	}
	if err := b.cleaner.CleanFile(path); err != nil {
		err = fmt.Errorf("%w: %w", service.ErrIO, err)
		return fmt.Sprintf("Failed to clean HTML in %s: %v", path, err), err
	}

	b.logger.Info("HTML saved", "tool", entity.ToolGetHTML.String(), "path", path, "url", doc.URL,
		"raw_bytes", len(doc.RawHTML), "clean_bytes", len(doc.NormalizedHTML))
	return fmt.Sprintf("HTML content retrieved and cleaned. Saved to %s", path), nil
}

// saveHTML normalizes in memory and writes only the normalized document.
func (b *BrowserTools) saveHTML(ctx context.Context, args map[string]string) (string, error) {
	path := args["file_path"]
	doc, err := b.capture(ctx)
	if err != nil {
		return captureFailure(err)
	}
	doc.NormalizedHTML = b.cleaner.Clean(doc.RawHTML)

	if err := writeFile(path, doc.NormalizedHTML); err != nil {
		return fmt.Sprintf("Failed to save HTML to %s: %v", path, err), err
	}

	b.logger.Info("HTML saved", "tool", entity.ToolSaveHTML.String(), "path", path, "url", doc.URL,
		"raw_bytes", len(doc.RawHTML), "clean_bytes", len(doc.NormalizedHTML))
	return fmt.Sprintf("HTML content saved to %s", path), nil
}

func (b *BrowserTools) takeScreenshot(ctx context.Context, args map[string]string) (string, error) {
	path := args["file_path"]
	shot, err := b.session.Screenshot(ctx)
	if err != nil {
		return captureFailure(err)
	}
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		err = fmt.Errorf("%w: %w", service.ErrIO, err)
		return fmt.Sprintf("Failed to save screenshot to %s: %v", path, err), err
	}
	return fmt.Sprintf("Screenshot saved to %s (%dx%d)", path, shot.Width, shot.Height), nil
}

func (b *BrowserTools) currentPage(ctx context.Context, args map[string]string) (string, error) {
	url, err := b.session.CurrentURL()
	if err != nil {
		return service.NotOpenMessage, err
	}
	return fmt.Sprintf("Current page: %s", url), nil
}

func (b *BrowserTools) closeBrowser(ctx context.Context, args map[string]string) (string, error) {
	if err := b.session.Close(); err != nil {
		return fmt.Sprintf("Browser closed with errors: %v", err), err
	}
	return "Browser closed", nil
}

func (b *BrowserTools) capture(ctx context.Context) (*entity.CapturedDocument, error) {
	return b.session.CapturePage(ctx)
}

func captureFailure(err error) (string, error) {
	if errors.Is(err, service.ErrNotOpen) {
		return service.NotOpenMessage, err
	}
	return fmt.Sprintf("Failed to capture page: %v", err), err
}

// writeFile stores content as UTF-8 text, replacing any existing file.
func writeFile(path, content string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty file path", service.ErrIO)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("%w: %w", service.ErrIO, err)
	}
	return nil
}

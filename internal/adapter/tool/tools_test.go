package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"browsertools/internal/application/service"
	"browsertools/internal/domain/entity"
	"browsertools/internal/infrastructure/htmlclean"
	"browsertools/internal/infrastructure/logger"
	"browsertools/internal/testutil/fakebrowser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html><html><head><title>T</title><script>var x = 1;</script></head>` +
	`<body><!-- note --><div class="c" style="color:red" data-id="7" onclick="go()">` +
	`<p>Hello</p><img src="a.png" srcset="a2.png 2x"></div><script>track()</script></body></html>`

func setup(t *testing.T, launcher *fakebrowser.Launcher) *service.ToolRegistry {
	t.Helper()
	log := logger.NewNop()
	session := service.NewBrowserSession(launcher, log)
	registry := service.NewToolRegistry(session, log, nil)
	NewBrowserTools(session, htmlclean.New(nil), log, entity.BrowserChromium).Register(registry)
	return registry
}

func TestTools_AllRegistered(t *testing.T) {
	r := setup(t, fakebrowser.New(""))

	var names []string
	for _, d := range r.Definitions() {
		names = append(names, d.Name.String())
	}
	assert.Equal(t, []string{
		"open_browser", "navigate", "get_html", "save_html",
		"take_screenshot", "current_page", "close_browser",
	}, names)

	open, ok := r.Get(entity.ToolOpenBrowser)
	require.True(t, ok)
	assert.False(t, open.Definition.RequiresSession)
	assert.Equal(t, "chromium", open.Definition.Params[0].Default)
}

func TestTools_OpenBrowser(t *testing.T) {
	l := fakebrowser.New("")
	r := setup(t, l)
	ctx := context.Background()

	assert.Equal(t, "Browser opened successfully", r.Invoke(ctx, "open_browser", nil))
	require.Len(t, l.Pages(), 1)
	assert.Equal(t, entity.BrowserChromium, l.Pages()[0].Kind)

	out := r.Invoke(ctx, "open_browser", map[string]string{"browser_type": "firefox"})
	assert.True(t, strings.HasPrefix(out, "Failed to open browser:"), out)
	assert.Equal(t, 1, l.Launches())
}

func TestTools_OpenBrowserKinds(t *testing.T) {
	for _, kind := range []string{"firefox", "WebKit", "chromium"} {
		t.Run(kind, func(t *testing.T) {
			l := fakebrowser.New("")
			r := setup(t, l)
			assert.Equal(t, "Browser opened successfully",
				r.Invoke(context.Background(), "open_browser", map[string]string{"browser_type": kind}))
			assert.Equal(t, strings.ToLower(kind), l.Pages()[0].Kind.String())
		})
	}
}

func TestTools_OpenBrowserUnsupported(t *testing.T) {
	l := fakebrowser.New("")
	r := setup(t, l)

	out := r.Invoke(context.Background(), "open_browser", map[string]string{"browser_type": "netscape"})
	assert.Equal(t, "Unsupported browser type 'netscape'. Use 'chromium', 'firefox', or 'webkit'.", out)
	assert.Zero(t, l.Launches())
	assert.Equal(t, entity.SessionUnopened, r.Session().State())
}

func TestTools_OpenBrowserLaunchFailure(t *testing.T) {
	l := fakebrowser.New("")
	l.LaunchErr = errors.New("executable not found")
	r := setup(t, l)

	out := r.Invoke(context.Background(), "open_browser", nil)
	assert.True(t, strings.HasPrefix(out, "Failed to open browser:"), out)
	assert.Contains(t, out, "executable not found")
	assert.Equal(t, service.NotOpenMessage, r.Invoke(context.Background(), "navigate", map[string]string{"url": "https://example.com"}))
}

func TestTools_OpenBrowserRetryAfterLaunchFailure(t *testing.T) {
	l := fakebrowser.New(testPage)
	l.LaunchErr = errors.New("webkit not installed")
	r := setup(t, l)
	ctx := context.Background()

	out := r.Invoke(ctx, "open_browser", map[string]string{"browser_type": "webkit"})
	assert.True(t, strings.HasPrefix(out, "Failed to open browser:"), out)

	l.LaunchErr = nil
	assert.Equal(t, "Browser opened successfully", r.Invoke(ctx, "open_browser", map[string]string{"browser_type": "chromium"}))
	assert.Equal(t, "Navigated to https://example.com successfully",
		r.Invoke(ctx, "navigate", map[string]string{"url": "https://example.com"}))
	assert.Equal(t, entity.BrowserChromium, r.Session().Kind())
}

func TestTools_RequireOpenBrowser(t *testing.T) {
	dir := t.TempDir()
	r := setup(t, fakebrowser.New(testPage))
	ctx := context.Background()

	calls := map[string]map[string]string{
		"navigate":        {"url": "https://example.com"},
		"get_html":        {"file_path": filepath.Join(dir, "a.html")},
		"save_html":       {"file_path": filepath.Join(dir, "b.html")},
		"take_screenshot": {"file_path": filepath.Join(dir, "c.jpg")},
		"current_page":    nil,
	}
	for name, args := range calls {
		assert.Equal(t, service.NotOpenMessage, r.Invoke(ctx, name, args), name)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file is written without a browser")
}

func TestTools_Navigate(t *testing.T) {
	r := setup(t, fakebrowser.New(""))
	ctx := context.Background()
	r.Invoke(ctx, "open_browser", nil)

	assert.Equal(t, "Navigated to https://example.com successfully",
		r.Invoke(ctx, "navigate", map[string]string{"url": "https://example.com"}))
	assert.Equal(t, "Current page: https://example.com", r.Invoke(ctx, "current_page", nil))

	out := r.Invoke(ctx, "navigate", map[string]string{"url": "not a url"})
	assert.True(t, strings.HasPrefix(out, "Failed to navigate to not a url:"), out)
	assert.Equal(t, "Error: missing required argument 'url'", r.Invoke(ctx, "navigate", nil))
}

func TestTools_SaveHTMLWritesCleaned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	r := setup(t, fakebrowser.New(testPage))
	ctx := context.Background()
	r.Invoke(ctx, "open_browser", nil)
	r.Invoke(ctx, "navigate", map[string]string{"url": "https://example.com"})

	out := r.Invoke(ctx, "save_html", map[string]string{"file_path": path})
	assert.Equal(t, "HTML content saved to "+path, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)
	assert.Contains(t, got, "<p>Hello</p>")
	assert.Contains(t, got, `class="c"`)
	assert.Contains(t, got, `src="a.png"`)
	for _, gone := range []string{"<script", "track()", "<!--", "style=", "data-id", "onclick", "srcset", "<title"} {
		assert.NotContains(t, got, gone)
	}
}

func TestTools_GetHTMLCleansStoredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	r := setup(t, fakebrowser.New(testPage))
	ctx := context.Background()
	r.Invoke(ctx, "open_browser", nil)

	out := r.Invoke(ctx, "get_html", map[string]string{"file_path": path})
	assert.Equal(t, "HTML content retrieved and cleaned. Saved to "+path, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, htmlclean.New(nil).Clean(testPage), string(data))
}

// recordingCleaner captures what is on disk when CleanFile is called.
type recordingCleaner struct {
	*htmlclean.Cleaner
	onDisk []string
}

func (c *recordingCleaner) CleanFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.onDisk = append(c.onDisk, string(data))
	return c.Cleaner.CleanFile(path)
}

func TestTools_GetHTMLWritesRawBeforeCleaning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	log := logger.NewNop()
	session := service.NewBrowserSession(fakebrowser.New(testPage), log)
	r := service.NewToolRegistry(session, log, nil)
	cleaner := &recordingCleaner{Cleaner: htmlclean.New(nil)}
	NewBrowserTools(session, cleaner, log, entity.BrowserChromium).Register(r)
	ctx := context.Background()
	r.Invoke(ctx, "open_browser", nil)

	out := r.Invoke(ctx, "get_html", map[string]string{"file_path": path})
	assert.Equal(t, "HTML content retrieved and cleaned. Saved to "+path, out)

	require.Len(t, cleaner.onDisk, 1)
	assert.Equal(t, testPage, cleaner.onDisk[0])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cleaner.Clean(testPage), string(data))
}

func TestTools_ArgumentWhitespaceIsPreserved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, " page.html ")
	r := setup(t, fakebrowser.New("<html><body><p>x</p></body></html>"))
	ctx := context.Background()
	r.Invoke(ctx, "open_browser", map[string]string{"browser_type": " chromium "})

	assert.Equal(t, "Navigated to https://example.com successfully",
		r.Invoke(ctx, "navigate", map[string]string{"url": "  https://example.com  "}))
	assert.Equal(t, "HTML content saved to "+path, r.Invoke(ctx, "save_html", map[string]string{"file_path": path}))

	_, err := os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "page.html"))
	assert.True(t, os.IsNotExist(err))
}

func TestTools_SaveHTMLOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("old content that is rather long"), 0o644))

	r := setup(t, fakebrowser.New("<html><body><b>new</b></body></html>"))
	ctx := context.Background()
	r.Invoke(ctx, "open_browser", nil)
	r.Invoke(ctx, "save_html", map[string]string{"file_path": path})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<body><b>new</b></body>", string(data))
}

func TestTools_SaveHTMLUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "page.html")
	r := setup(t, fakebrowser.New(testPage))
	ctx := context.Background()
	r.Invoke(ctx, "open_browser", nil)

	out := r.Invoke(ctx, "save_html", map[string]string{"file_path": path})
	assert.True(t, strings.HasPrefix(out, "Failed to save HTML to "+path), out)

	out = r.Invoke(ctx, "get_html", map[string]string{"file_path": path})
	assert.True(t, strings.HasPrefix(out, "Failed to save HTML to "+path), out)

	// The session survives I/O failures.
	assert.True(t, r.Session().IsOpen())
}

func TestTools_TakeScreenshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.jpg")
	l := fakebrowser.New("")
	l.Screenshot = &entity.Screenshot{Data: []byte("jpeg-bytes"), Format: "jpeg", Width: 1024, Height: 768}
	r := setup(t, l)
	ctx := context.Background()
	r.Invoke(ctx, "open_browser", nil)

	out := r.Invoke(ctx, "take_screenshot", map[string]string{"file_path": path})
	assert.Equal(t, "Screenshot saved to "+path+" (1024x768)", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestTools_CloseBrowser(t *testing.T) {
	l := fakebrowser.New("")
	r := setup(t, l)
	ctx := context.Background()

	assert.Equal(t, "Browser closed", r.Invoke(ctx, "close_browser", nil))
	assert.Equal(t, entity.SessionUnopened, r.Session().State())

	r.Invoke(ctx, "open_browser", nil)
	assert.Equal(t, "Browser closed", r.Invoke(ctx, "close_browser", nil))
	assert.Equal(t, "Browser closed", r.Invoke(ctx, "close_browser", nil))
	assert.Equal(t, 1, l.Pages()[0].CloseCalls())

	assert.Equal(t, service.NotOpenMessage, r.Invoke(ctx, "current_page", nil))
	assert.Equal(t, "Failed to open browser: the browser session has already been closed",
		r.Invoke(ctx, "open_browser", nil))
	assert.Equal(t, 1, l.Launches())
}

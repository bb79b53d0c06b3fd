package rod

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"browsertools/internal/domain/entity"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicHTML = `<!DOCTYPE html>
<html>
<head><title>Test Page</title></head>
<body><h1>Hello World</h1></body>
</html>`

func headlessConfig(t *testing.T) BrowserConfig {
	t.Helper()
	bin, has := launcher.LookPath()
	if !has {
		t.Skip("no chromium binary found")
	}
	cfg := DefaultConfig()
	cfg.Headless = true
	cfg.NoSandbox = true
	cfg.Bin = bin
	cfg.IdleWait = 200 * time.Millisecond
	return cfg
}

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Headless)
	assert.Equal(t, time.Duration(defaultSlowMotion), cfg.SlowMotion)
	assert.Equal(t, defaultIdleWait, cfg.IdleWait)
	assert.False(t, cfg.NoSandbox, "Should be secure by default")
	assert.False(t, cfg.DevTools)
	assert.False(t, cfg.DisableSecurityFeatures, "Should be secure by default")
}

func TestEngine_RejectsNonChromium(t *testing.T) {
	e := NewEngine(DefaultConfig())

	for _, kind := range []entity.BrowserKind{entity.BrowserFirefox, entity.BrowserWebKit} {
		port, err := e.Launch(context.Background(), kind)
		assert.Error(t, err)
		assert.Nil(t, port)
	}
}

func TestNewBrowserAdapter(t *testing.T) {
	adapter, err := NewBrowserAdapter(context.Background(), headlessConfig(t))
	require.NoError(t, err)
	defer adapter.Close()

	assert.NotNil(t, adapter.browser)
	assert.NotNil(t, adapter.launcher)
	assert.NotNil(t, adapter.page)
	assert.True(t, adapter.IsReady())
	assert.Equal(t, "about:blank", adapter.CurrentURL())
}

func TestBrowserAdapter_NavigateAndHTML(t *testing.T) {
	server := serve(t, basicHTML)
	ctx := context.Background()

	adapter, err := NewBrowserAdapter(ctx, headlessConfig(t))
	require.NoError(t, err)
	defer adapter.Close()

	require.NoError(t, adapter.Navigate(ctx, server.URL))
	assert.Equal(t, server.URL+"/", adapter.CurrentURL())

	html, err := adapter.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Hello World</h1>")
	assert.Contains(t, html, "<title>Test Page</title>")
}

func TestBrowserAdapter_NavigateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	adapter, err := NewBrowserAdapter(context.Background(), headlessConfig(t))
	require.NoError(t, err)
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	assert.Error(t, adapter.Navigate(ctx, server.URL))
}

func TestBrowserAdapter_Screenshot(t *testing.T) {
	server := serve(t, basicHTML)
	ctx := context.Background()
	cfg := headlessConfig(t)
	cfg.ScreenshotMaxWidth = 400

	adapter, err := NewBrowserAdapter(ctx, cfg)
	require.NoError(t, err)
	defer adapter.Close()

	require.NoError(t, adapter.Navigate(ctx, server.URL))

	shot, err := adapter.Screenshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", shot.Format)
	assert.LessOrEqual(t, shot.Width, 400)
	assert.NotEmpty(t, shot.Data)
}

func TestBrowserAdapter_CloseIsIdempotent(t *testing.T) {
	adapter, err := NewBrowserAdapter(context.Background(), headlessConfig(t))
	require.NoError(t, err)

	assert.NoError(t, adapter.Close())
	assert.False(t, adapter.IsReady())
	assert.NoError(t, adapter.Close())
}

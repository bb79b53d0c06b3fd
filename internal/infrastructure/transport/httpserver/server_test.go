package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"browsertools/internal/adapter/tool"
	"browsertools/internal/application/service"
	"browsertools/internal/domain/entity"
	"browsertools/internal/infrastructure/htmlclean"
	"browsertools/internal/infrastructure/logger"
	"browsertools/internal/infrastructure/metrics"
	"browsertools/internal/testutil/fakebrowser"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *fakebrowser.Launcher) {
	t.Helper()
	log := logger.NewNop()
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	launcher := fakebrowser.New("<html><body><p>ok</p></body></html>")
	session := service.NewBrowserSession(launcher, log, service.WithSessionMetrics(collector))
	registry := service.NewToolRegistry(session, log, collector)
	tool.NewBrowserTools(session, htmlclean.New(nil), log, entity.BrowserChromium).Register(registry)

	srv := New(registry, log, Config{AccessLog: io.Discard, Gatherer: reg})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, launcher
}

func post(t *testing.T, ts *httptest.Server, name, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/tools/"+name, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestServer_NavigateWithoutOpen(t *testing.T) {
	ts, launcher := newTestServer(t)

	status, body := post(t, ts, "navigate", `{"url":"https://example.com"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, service.NotOpenMessage, body)
	assert.Zero(t, launcher.Launches())
}

func TestServer_ToolFlow(t *testing.T) {
	ts, launcher := newTestServer(t)

	status, body := post(t, ts, "open_browser", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Browser opened successfully", body)

	_, body = post(t, ts, "navigate", `{"url":"https://example.com"}`)
	assert.Equal(t, "Navigated to https://example.com successfully", body)

	_, body = post(t, ts, "current_page", `{}`)
	assert.Equal(t, "Current page: https://example.com", body)

	_, body = post(t, ts, "close_browser", "")
	assert.Equal(t, "Browser closed", body)
	assert.Equal(t, 1, launcher.Launches())
}

func TestServer_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	status, body := post(t, ts, "fly", `{}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Error: unknown tool 'fly'", body)

	status, body = post(t, ts, "navigate", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, strings.HasPrefix(body, "Error: arguments must be a JSON object"), body)

	status, body = post(t, ts, "open_browser", `{"browser_type":"lynx"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Unsupported browser type 'lynx'. Use 'chromium', 'firefox', or 'webkit'.", body)
}

func TestServer_ListTools(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var infos []toolInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.Len(t, infos, 7)
	assert.Equal(t, "open_browser", infos[0].Name)
	assert.False(t, infos[0].RequiresSession)
	assert.Equal(t, "navigate", infos[1].Name)
	assert.True(t, infos[1].RequiresSession)
}

func TestServer_HealthzAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post(t, ts, "navigate", `{"url":"https://example.com"}`)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `browsertools_tool_calls_total{outcome="precondition",tool="navigate"} 1`)
}

func TestServer_AccessLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewNop()
	registry := service.NewToolRegistry(service.NewBrowserSession(fakebrowser.New(""), log), log, nil)
	srv := New(registry, log, Config{AccessLog: &buf, Gatherer: prometheus.NewRegistry()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "/healthz")
}

func TestServer_ListenAndServeStopsOnCancel(t *testing.T) {
	log := logger.NewNop()
	registry := service.NewToolRegistry(service.NewBrowserSession(fakebrowser.New(""), log), log, nil)
	srv := New(registry, log, Config{Addr: "127.0.0.1:0", AccessLog: io.Discard, Gatherer: prometheus.NewRegistry()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

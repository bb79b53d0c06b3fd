package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"

	"github.com/google/uuid"
)

const DefaultNavigationTimeout = 30 * time.Second

var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
	"about": true,
}

// BrowserSession owns one engine process and its single page.
//
// The zero state is Unopened. A successful Open moves it to Open and Close
// moves it to Closed, which is terminal. A failed launch leaves it Unopened so
// Open can be retried. The session is not safe for concurrent use.
type BrowserSession struct {
	launcher   output.BrowserLauncher
	logger     output.LoggerPort
	metrics    output.MetricsPort
	navTimeout time.Duration

	state entity.SessionState
	kind  entity.BrowserKind
	page  output.BrowserPort
	id    string
}

type SessionOption func(*BrowserSession)

func WithNavigationTimeout(d time.Duration) SessionOption {
	return func(s *BrowserSession) {
		if d > 0 {
			s.navTimeout = d
		}
	}
}

func WithSessionMetrics(m output.MetricsPort) SessionOption {
	return func(s *BrowserSession) {
		if m != nil {
			s.metrics = m
		}
	}
}

func NewBrowserSession(launcher output.BrowserLauncher, logger output.LoggerPort, opts ...SessionOption) *BrowserSession {
	s := &BrowserSession{
		launcher:   launcher,
		logger:     logger,
		metrics:    output.NopMetrics{},
		navTimeout: DefaultNavigationTimeout,
		state:      entity.SessionUnopened,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BrowserSession) State() entity.SessionState { return s.state }
func (s *BrowserSession) Kind() entity.BrowserKind   { return s.kind }
func (s *BrowserSession) ID() string                 { return s.id }

func (s *BrowserSession) IsOpen() bool {
	return s.state == entity.SessionOpen && s.page != nil
}

// Open launches the engine. Only an Unopened session can be opened: a second
// Open is rejected so that no engine process is ever orphaned.
func (s *BrowserSession) Open(ctx context.Context, kind entity.BrowserKind) error {
	if s.state != entity.SessionUnopened {
		return fmt.Errorf("%w (state: %s)", ErrAlreadyOpen, s.state)
	}

	id := uuid.NewString()
	log := s.logger.WithFields(map[string]any{"session_id": id, "browser_type": kind.String()})
	log.Info("Launching browser")

	page, err := s.launcher.Launch(ctx, kind)
	if err != nil {
		log.Error("Browser launch failed", "error", err)
		return fmt.Errorf("%w: %s: %w", ErrLaunch, kind, err)
	}

	s.id = id
	s.kind = kind
	s.page = page
	s.state = entity.SessionOpen
	s.metrics.SetSessionOpen(true)
	log.Info("Browser opened")
	return nil
}

// Navigate performs a blocking load bounded by the navigation timeout.
func (s *BrowserSession) Navigate(ctx context.Context, rawURL string) error {
	if !s.IsOpen() {
		return ErrNotOpen
	}
	if err := validateURL(rawURL); err != nil {
		return fmt.Errorf("%w: %w", ErrNavigation, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.navTimeout)
	defer cancel()

	start := time.Now()
	if err := s.page.Navigate(ctx, rawURL); err != nil {
		s.logger.Warn("Navigation failed", "session_id", s.id, "url", rawURL, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s: %w", ErrNavigation, rawURL, ctxErr)
		}
		return fmt.Errorf("%w: %s: %w", ErrNavigation, rawURL, err)
	}

	s.logger.Info("Navigated", "session_id", s.id, "url", rawURL, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// CapturePage reads the full serialized document of the active page. The
// returned document is not normalized.
func (s *BrowserSession) CapturePage(ctx context.Context) (*entity.CapturedDocument, error) {
	if !s.IsOpen() {
		return nil, ErrNotOpen
	}

	html, err := s.page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	doc := &entity.CapturedDocument{
		URL:     s.page.CurrentURL(),
		RawHTML: html,
	}
	s.logger.Debug("Page captured", "session_id", s.id, "url", doc.URL, "bytes", len(html))
	return doc, nil
}

func (s *BrowserSession) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if !s.IsOpen() {
		return nil, ErrNotOpen
	}
	shot, err := s.page.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	return shot, nil
}

func (s *BrowserSession) CurrentURL() (string, error) {
	if !s.IsOpen() {
		return "", ErrNotOpen
	}
	return s.page.CurrentURL(), nil
}

// Close releases the page and the engine process. Closing a session that
// holds no engine (Unopened or Closed) is a no-op and leaves the state as is.
func (s *BrowserSession) Close() error {
	if s.state != entity.SessionOpen {
		return nil
	}

	page := s.page
	s.page = nil
	s.state = entity.SessionClosed
	s.metrics.SetSessionOpen(false)

	if err := page.Close(); err != nil {
		s.logger.Warn("Browser close reported an error", "session_id", s.id, "error", err)
		return fmt.Errorf("close browser: %w", err)
	}
	s.logger.Info("Browser closed", "session_id", s.id)
	return nil
}

func validateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	return nil
}

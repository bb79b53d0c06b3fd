// Package fakebrowser provides an in-memory engine for exercising the
// session and tool layers without launching a real browser.
package fakebrowser

import (
	"context"
	"errors"
	"sync"

	"browsertools/internal/application/port/output"
	"browsertools/internal/domain/entity"
)

var ErrClosed = errors.New("fake page closed")

// Launcher hands out Pages and counts launches.
type Launcher struct {
	mu sync.Mutex

	// HTML is served by every page this launcher creates.
	HTML string
	// LaunchErr fails every launch when set.
	LaunchErr error
	// BlockNavigate makes Navigate wait for its context to end.
	BlockNavigate bool
	NavigateErr   error
	Screenshot    *entity.Screenshot

	launches int
	pages    []*Page
}

var _ output.BrowserLauncher = (*Launcher)(nil)

func New(html string) *Launcher {
	return &Launcher{HTML: html}
}

func (l *Launcher) Launch(ctx context.Context, kind entity.BrowserKind) (output.BrowserPort, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.launches++
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	p := &Page{
		Kind:          kind,
		url:           "about:blank",
		html:          l.HTML,
		blockNavigate: l.BlockNavigate,
		navigateErr:   l.NavigateErr,
		shot:          l.Screenshot,
	}
	l.pages = append(l.pages, p)
	return p, nil
}

func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

func (l *Launcher) Pages() []*Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Page, len(l.pages))
	copy(out, l.pages)
	return out
}

// Page is a single fake tab.
type Page struct {
	Kind entity.BrowserKind

	mu            sync.Mutex
	url           string
	html          string
	blockNavigate bool
	navigateErr   error
	shot          *entity.Screenshot
	closeCalls    int
}

var _ output.BrowserPort = (*Page)(nil)

func (p *Page) Navigate(ctx context.Context, url string) error {
	if p.blockNavigate {
		<-ctx.Done()
		return ctx.Err()
	}
	if p.navigateErr != nil {
		return p.navigateErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closeCalls > 0 {
		return ErrClosed
	}
	p.url = url
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closeCalls > 0 {
		return "", ErrClosed
	}
	return p.html, nil
}

func (p *Page) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closeCalls > 0 {
		return nil, ErrClosed
	}
	if p.shot != nil {
		return p.shot, nil
	}
	return &entity.Screenshot{Data: []byte{0xff, 0xd8, 0xff, 0xd9}, Format: "jpeg", Width: 800, Height: 600}, nil
}

func (p *Page) CurrentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCalls++
	return nil
}

func (p *Page) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}

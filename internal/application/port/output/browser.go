package output

import (
	"context"

	"browsertools/internal/domain/entity"
)

// BrowserLauncher starts an engine process of the requested kind and opens
// its single page.
type BrowserLauncher interface {
	Launch(ctx context.Context, kind entity.BrowserKind) (BrowserPort, error)
}

// BrowserPort is one launched engine with its active page. Close releases
// the page and the engine process and must be safe to call more than once.
type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close() error
}

package browser

import "context"

// Instance is one reusable unit of the render backend: expensive to create,
// cheap to reuse after a Reset. An instance is exclusively owned by the Pool
// while idle and lent to exactly one caller at a time. Borrowers never close
// an instance; only the Pool does.
type Instance interface {
	// Configure applies the identifying parameters (user agent, viewport)
	// used for every subsequent navigation.
	Configure(ctx context.Context, userAgent string, width, height int) error

	// Navigate loads the URL and waits for network activity to settle.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until an element matching the CSS selector is
	// present and visible, or the context expires.
	WaitVisible(ctx context.Context, selector string) error

	// HTML returns the rendered markup of the current document.
	HTML(ctx context.Context) (string, error)

	// Reset returns the instance to a single clean context so it is safe
	// for reuse. It must be idempotent.
	Reset() error

	// Close destroys the instance and its underlying resources.
	Close() error
}

// Factory creates a new Instance. The Pool calls it lazily, up to its
// configured maximum.
type Factory func() (Instance, error)

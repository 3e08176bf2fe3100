package webextract

import "context"

// Fetcher retrieves raw markup for a URL.
// Implementations may render JavaScript before returning the page.
type Fetcher interface {
	// Fetch loads the URL and returns the page markup. The context bounds
	// the whole navigation and load, so callers express the fetch timeout
	// as a context deadline.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases renderer resources.
	Close() error
}

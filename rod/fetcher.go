// Package rod fetches JavaScript-rendered pages with headless Chrome.
package rod

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/HimashaHerath/webextract"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements webextract.Fetcher at compile time.
var _ webextract.Fetcher = (*Fetcher)(nil)

// Default viewport of every page.
const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080
)

// Fetcher retrieves rendered HTML through a BrowserManager. Each fetch
// runs in its own page.
//
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager *BrowserManager

	timeout    time.Duration
	userAgents []string
	nextAgent  atomic.Uint64
	width      int
	height     int
	managerOps []ManagerOption
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithFetchTimeout bounds a single page load.
func WithFetchTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgents sets the user agents rotated across fetches.
func WithUserAgents(agents ...string) Option {
	return func(f *Fetcher) {
		if len(agents) > 0 {
			f.userAgents = agents
		}
	}
}

// WithViewport sets the page size in CSS pixels.
func WithViewport(width, height int) Option {
	return func(f *Fetcher) {
		f.width = width
		f.height = height
	}
}

// WithManagerOptions passes options to the underlying BrowserManager.
func WithManagerOptions(opts ...ManagerOption) Option {
	return func(f *Fetcher) {
		f.managerOps = append(f.managerOps, opts...)
	}
}

// NewFetcher launches Chrome and returns a Fetcher over it. Close must be
// called when the Fetcher is no longer needed.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:    webextract.DefaultRequestTimeout,
		userAgents: webextract.DefaultUserAgents,
		width:      DefaultViewportWidth,
		height:     DefaultViewportHeight,
	}
	for _, opt := range opts {
		opt(f)
	}

	manager, err := NewBrowserManager(f.managerOps...)
	if err != nil {
		return nil, err
	}
	f.manager = manager
	return f, nil
}

// Fetch loads url in a fresh page and returns the rendered document,
// including open shadow roots. Non-2xx document responses return EFETCH
// and load timeouts return ETIMEOUT.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fetchError(url, err)
	}

	page, err := f.manager.Page()
	if err != nil {
		return "", err
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx)
	if f.timeout > 0 {
		page = page.Timeout(f.timeout)
	}

	if ua := f.userAgent(); ua != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			return "", fetchError(url, err)
		}
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             f.width,
		Height:            f.height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return "", fetchError(url, err)
	}

	var status int
	waitDocument := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status = e.Response.Status
		return true
	})

	if err := page.Navigate(url); err != nil {
		return "", fetchError(url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fetchError(url, err)
	}
	waitDocument()

	if status != 0 && (status < 200 || status > 299) {
		return "", webextract.Errorf(webextract.EFETCH, "HTTP %d fetching %s", status, url)
	}

	html, err := page.Eval(serializeJS)
	if err != nil {
		return "", fetchError(url, err)
	}
	return html.Value.Str(), nil
}

// serializeJS returns the document markup with open shadow roots inlined.
const serializeJS = `() => {
	const opts = {serializableShadowRoots: true, shadowRoots: []};
	const collect = (root) => {
		root.querySelectorAll('*').forEach((el) => {
			if (el.shadowRoot) {
				opts.shadowRoots.push(el.shadowRoot);
				collect(el.shadowRoot);
			}
		});
	};
	collect(document);
	if (document.documentElement.getHTML) {
		return '<!DOCTYPE html><html>' + document.documentElement.getHTML(opts) + '</html>';
	}
	return document.documentElement.outerHTML;
}`

func (f *Fetcher) userAgent() string {
	if len(f.userAgents) == 0 {
		return ""
	}
	n := f.nextAgent.Add(1) - 1
	return f.userAgents[n%uint64(len(f.userAgents))]
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// LauncherPID returns the Chrome launcher process ID.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

func fetchError(url string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return webextract.Wrap(webextract.ETIMEOUT, err, "timed out loading %s", url)
	case errors.Is(err, context.Canceled):
		return webextract.Wrap(webextract.ECANCELED, err, "canceled loading %s", url)
	}
	return webextract.Wrap(webextract.EFETCH, err, "failed to load %s: %v", url, err)
}

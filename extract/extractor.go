// Package extract runs the fetch, select, generate and score pipeline for
// one URL or a batch of URLs.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/HimashaHerath/webextract"
	"github.com/HimashaHerath/webextract/prompt"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"
)

// Options controls a single extraction.
type Options struct {
	// Schema replaces the default result shape when set.
	Schema *webextract.Schema

	// ForceRefresh bypasses the cache lookup.
	ForceRefresh bool

	// CustomPrompt replaces or extends the extraction instructions.
	CustomPrompt string
}

// Extractor coordinates the collaborators of the extraction pipeline.
type Extractor struct {
	fetcher   webextract.Fetcher
	content   webextract.ContentExtractor
	generator webextract.Generator
	scorer    webextract.Scorer
	cache     webextract.Cache
	limiter   webextract.DomainLimiter
	enrichers []webextract.Enricher
	config    webextract.Config
	logger    *slog.Logger
	now       func() time.Time
	backoff   time.Duration

	available atomic.Bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCache replaces the default in-memory cache.
func WithCache(c webextract.Cache) Option {
	return func(e *Extractor) {
		e.cache = c
	}
}

// WithDomainLimiter replaces the default per-domain limiter.
func WithDomainLimiter(l webextract.DomainLimiter) Option {
	return func(e *Extractor) {
		e.limiter = l
	}
}

// WithEnrichers adds metadata enrichers, run in order after selection.
func WithEnrichers(enrichers ...webextract.Enricher) Option {
	return func(e *Extractor) {
		e.enrichers = append(e.enrichers, enrichers...)
	}
}

// WithLogger sets the logger for pipeline events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// WithClock sets the time source for ExtractedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		e.now = now
	}
}

// WithRetryBackoff sets the wait before the first fetch retry.
func WithRetryBackoff(d time.Duration) Option {
	return func(e *Extractor) {
		e.backoff = d
	}
}

// New creates an Extractor.
func New(
	fetcher webextract.Fetcher,
	content webextract.ContentExtractor,
	generator webextract.Generator,
	scorer webextract.Scorer,
	cfg webextract.Config,
	opts ...Option,
) *Extractor {
	e := &Extractor{
		fetcher:   fetcher,
		content:   content,
		generator: generator,
		scorer:    scorer,
		config:    cfg,
		now:       time.Now,
		backoff:   DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewMemoryCache()
	}
	if e.limiter == nil {
		e.limiter = NewDomainLimiter(cfg.Scraping.RequestDelay)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// ParseURL accepts absolute http and https URLs only.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, webextract.Errorf(webextract.EINVALID, "invalid URL %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, webextract.Errorf(webextract.EINVALID, "invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, webextract.Errorf(webextract.EINVALID, "invalid URL %q: missing host", raw)
	}
	return u, nil
}

// Extract runs the pipeline for pageURL. A malformed URL returns EINVALID
// and no record. Every other failure is reported as a degraded record
// with zero confidence. The returned record is the caller's to modify.
func (e *Extractor) Extract(ctx context.Context, pageURL string, opts Options) (*webextract.ExtractionRecord, error) {
	u, err := ParseURL(pageURL)
	if err != nil {
		return nil, err
	}

	key := cacheKey(pageURL, opts)
	if !opts.ForceRefresh {
		if rec, ok := e.cache.Get(key); ok {
			e.logger.Debug("extract.cache.hit", "url", pageURL)
			return rec.Clone(), nil
		}
	}

	rec, err := e.run(ctx, u, pageURL, opts)
	if err != nil {
		e.logger.Warn("extract.failed",
			"url", pageURL,
			"code", webextract.ErrorCode(err),
			"error", webextract.ErrorMessage(err),
		)
		return e.errorRecord(pageURL, err), nil
	}

	if rec.Confidence > e.config.CacheThreshold && ctx.Err() == nil {
		e.cache.Set(key, rec.Clone())
	}
	return rec, nil
}

func (e *Extractor) run(ctx context.Context, u *url.URL, pageURL string, opts Options) (*webextract.ExtractionRecord, error) {
	if e.config.LLM.VerifyModel {
		if err := e.checkAvailability(ctx); err != nil {
			return nil, err
		}
	}

	if err := e.limiter.Wait(ctx, u.Hostname()); err != nil {
		return nil, contextError(err)
	}

	html, err := e.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	content, err := e.content.Extract(html, pageURL)
	if err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(content.MainContent)); n < webextract.MinContentLength {
		return nil, webextract.Errorf(webextract.EINSUFFICIENT,
			"insufficient content extracted (%d characters, need %d)", n, webextract.MinContentLength)
	}

	for _, enricher := range e.enrichers {
		if err := enricher.Enrich(html, content); err != nil {
			e.logger.Warn("extract.enrich.failed", "url", pageURL, "error", err)
		}
	}
	content.ContentHash = ContentHash(content.MainContent)

	result, err := e.generator.Generate(ctx, prompt.PrepareContent(content), opts.Schema, opts.CustomPrompt)
	if err != nil {
		return nil, err
	}

	return &webextract.ExtractionRecord{
		URL:            pageURL,
		ExtractedAt:    e.now().UTC(),
		Content:        *content,
		StructuredInfo: result,
		Confidence:     e.scorer.Score(content, result),
	}, nil
}

// fetch retrieves pageURL, retrying transport failures up to the
// configured number of attempts. Each attempt gets the request timeout.
func (e *Extractor) fetch(ctx context.Context, pageURL string) (string, error) {
	delays := RetryDelays(e.config.Scraping.RetryAttempts, e.backoff)
	html, err := FetchWithRetry(ctx, pageURL, e.fetchOnce, e.logger, delays)
	if err == nil {
		return html, nil
	}
	var werr *webextract.Error
	if errors.As(err, &werr) {
		return "", err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "", contextError(err)
	}
	return "", webextract.Wrap(webextract.EFETCH, err, "failed to fetch %s: %v", pageURL, err)
}

func (e *Extractor) fetchOnce(ctx context.Context, pageURL string) (string, error) {
	if e.config.Scraping.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Scraping.RequestTimeout)
		defer cancel()
	}
	return e.fetcher.Fetch(ctx, pageURL)
}

func (e *Extractor) checkAvailability(ctx context.Context) error {
	if e.available.Load() {
		return nil
	}
	if err := e.generator.CheckAvailability(ctx); err != nil {
		return err
	}
	e.available.Store(true)
	return nil
}

func (e *Extractor) errorRecord(pageURL string, err error) *webextract.ExtractionRecord {
	msg := webextract.ErrorMessage(err)
	return &webextract.ExtractionRecord{
		URL:         pageURL,
		ExtractedAt: e.now().UTC(),
		Content: webextract.ExtractedContent{
			URL:         pageURL,
			MainContent: "Extraction failed: " + msg,
			Links:       []string{},
			Metadata:    map[string]string{"error": msg, "error_code": webextract.ErrorCode(err)},
		},
		StructuredInfo: webextract.NewErrorResult(msg),
		Confidence:     0,
	}
}

// ExtractBatch extracts every URL with at most concurrency extractions in
// flight. The result has one slot per input URL in input order; the slot
// is nil when the URL was invalid or its extraction failed.
func (e *Extractor) ExtractBatch(ctx context.Context, urls []string, opts Options, concurrency int) []*webextract.ExtractionRecord {
	if concurrency <= 0 {
		concurrency = webextract.DefaultBatchConcurrency
	}
	records := make([]*webextract.ExtractionRecord, len(urls))

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, u := range urls {
		g.Go(func() error {
			rec, err := e.Extract(ctx, u, opts)
			if err != nil || rec.Failed() {
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	return records
}

// ExtractWithSummary extracts pageURL and, when extraction succeeds,
// replaces the result summary with one of at most maxLength characters.
func (e *Extractor) ExtractWithSummary(ctx context.Context, pageURL string, maxLength int, opts Options) (*webextract.ExtractionRecord, error) {
	rec, err := e.Extract(ctx, pageURL, opts)
	if err != nil || rec.Failed() {
		return rec, err
	}
	summary := e.generator.Summarize(ctx, rec.Content.MainContent, maxLength)
	return rec.WithSummary(summary), nil
}

// ClearCache drops every cached record.
func (e *Extractor) ClearCache() {
	e.cache.Clear()
}

// TestConnection checks that the configured model is reachable.
func (e *Extractor) TestConnection(ctx context.Context) error {
	return e.generator.CheckAvailability(ctx)
}

// ContentHash returns the hex xxhash of s.
func ContentHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

// cacheKey is the URL for default extractions. Schema and prompt variants
// are keyed separately.
func cacheKey(pageURL string, opts Options) string {
	if opts.Schema == nil && opts.CustomPrompt == "" {
		return pageURL
	}
	h := xxhash.New()
	if opts.Schema != nil {
		if b, err := opts.Schema.MarshalJSON(); err == nil {
			_, _ = h.Write(b)
		}
	}
	_, _ = h.WriteString("\x00" + opts.CustomPrompt)
	return fmt.Sprintf("%s#%016x", pageURL, h.Sum64())
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return webextract.Wrap(webextract.ETIMEOUT, err, "timed out")
	}
	if errors.Is(err, context.Canceled) {
		return webextract.Wrap(webextract.ECANCELED, err, "canceled")
	}
	return err
}

package extract

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/HimashaHerath/webextract"
)

// DefaultRetryBackoff is the wait before the second fetch attempt. Each
// later wait doubles it.
const DefaultRetryBackoff = time.Second

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (string, error)

// RetryDelays returns the waits between attempts for a fetch that may run
// attempts times: base, 2*base, 4*base and so on.
func RetryDelays(attempts int, base time.Duration) []time.Duration {
	if attempts <= 1 {
		return nil
	}
	delays := make([]time.Duration, attempts-1)
	for i := range delays {
		delays[i] = base << i
	}
	return delays
}

// FetchWithRetry calls fetch once plus once per delay, waiting delays[i]
// before retry i+1. It stops at the first success, at the first failure
// RetryableFetch rejects, or when ctx is done. The last error is returned.
func FetchWithRetry(ctx context.Context, url string, fetch FetchFunc, logger *slog.Logger, delays []time.Duration) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= len(delays); attempt++ {
		html, err := fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if attempt == len(delays) || !RetryableFetch(err) {
			break
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if logger != nil {
			logger.Debug("extract.fetch.retry",
				"url", url,
				"attempt", attempt+2,
				"delay", delays[attempt],
				"error", err,
			)
		}

		t := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			t.Stop()
			return "", ctx.Err()
		case <-t.C:
		}
	}
	return "", lastErr
}

// RetryableFetch reports whether a failed fetch is worth repeating.
// Transport failures and timeouts are. HTTP status failures, invalid
// requests and cancellation are not.
func RetryableFetch(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var werr *webextract.Error
	if !errors.As(err, &werr) {
		return true
	}
	if werr.Code == webextract.EFETCH {
		return werr.Err != nil
	}
	return webextract.Retryable(err)
}

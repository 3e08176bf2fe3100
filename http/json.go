package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/HimashaHerath/webextract"
	"github.com/google/uuid"
)

// StatusError is returned by Client for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	if body == "" {
		return fmt.Sprintf("non-2xx status: %d", e.StatusCode)
	}
	return fmt.Sprintf("non-2xx status: %d: %s", e.StatusCode, body)
}

// Client sends JSON requests to model provider APIs and logs each
// exchange with a request id.
type Client struct {
	client  *http.Client
	headers map[string]string
	logger  *slog.Logger
}

// NewClient creates a Client. The headers are sent with every request.
// A nil client uses http.DefaultClient and a nil logger discards output.
func NewClient(client *http.Client, headers map[string]string, logger *slog.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{client: client, headers: headers, logger: logger}
}

// PostJSON encodes body, POSTs it to url and decodes the response into out.
func (c *Client) PostJSON(ctx context.Context, url string, body, out any) error {
	bs, err := json.Marshal(body)
	if err != nil {
		return webextract.Wrap(webextract.EINTERNAL, err, "encode json: %v", err)
	}
	return c.do(ctx, http.MethodPost, url, bs, out)
}

// GetJSON fetches url and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	reqID := uuid.New().String()
	start := time.Now()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		c.logger.Error("llm.http.build_request_error", "req_id", reqID, "error", err)
		return webextract.Wrap(webextract.EINVALID, err, "build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("llm.http.request",
		"req_id", reqID,
		"method", method,
		"url", url,
		"content_length", len(body),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("llm.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return err
	}

	c.logger.Debug("llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return webextract.Wrap(webextract.EBACKEND, err, "decode response: %v", err)
	}
	return nil
}

// parseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date.
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// Classify maps a backend transport error to a webextract error code.
// Errors that already carry a code are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var werr *webextract.Error
	if errors.As(err, &werr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return webextract.Wrap(webextract.ECANCELED, err, "request canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return webextract.Wrap(webextract.ETIMEOUT, err, "backend request timed out")
	}

	var se *StatusError
	if errors.As(err, &se) {
		return classifyStatus(se)
	}

	var opErr *net.OpError
	if errors.Is(err, syscall.ECONNREFUSED) || (errors.As(err, &opErr) && opErr.Op == "dial") {
		return webextract.Wrap(webextract.ECONNECT, err, "cannot connect to backend: %v", err)
	}
	if code := CodeFromText(err.Error()); code != "" {
		return webextract.Wrap(code, err, "%s", err.Error())
	}
	return webextract.Wrap(webextract.EBACKEND, err, "backend request failed: %v", err)
}

func classifyStatus(se *StatusError) error {
	body := strings.ToLower(se.Body)
	switch {
	case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
		return webextract.Wrap(webextract.EAUTH, se, "backend authentication failed (HTTP %d)", se.StatusCode)
	case se.StatusCode == http.StatusTooManyRequests:
		return rateLimited(se, se.RetryAfter)
	case se.StatusCode == http.StatusNotFound && strings.Contains(body, "model"):
		return webextract.Wrap(webextract.EUNAVAILABLE, se, "model unavailable: %s", strings.TrimSpace(se.Body))
	}
	if code := CodeFromText(body); code != "" {
		if code == webextract.ERATELIMIT {
			return rateLimited(se, se.RetryAfter)
		}
		return webextract.Wrap(code, se, "%s", se.Error())
	}
	return webextract.Wrap(webextract.EBACKEND, se, "backend error: %s", se.Error())
}

func rateLimited(err error, after time.Duration) error {
	e := webextract.Wrap(webextract.ERATELIMIT, err, "backend rate limit exceeded")
	e.RetryAfter = after
	return e
}

// CodeFromText derives an error code from provider error text, or returns
// "" when the text names no known condition.
func CodeFromText(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "authentication"), strings.Contains(t, "api key"), strings.Contains(t, "unauthorized"):
		return webextract.EAUTH
	case strings.Contains(t, "rate") && strings.Contains(t, "limit"):
		return webextract.ERATELIMIT
	case strings.Contains(t, "model") && (strings.Contains(t, "not found") || strings.Contains(t, "invalid")):
		return webextract.EUNAVAILABLE
	case strings.Contains(t, "connection refused"):
		return webextract.ECONNECT
	}
	return ""
}

package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HimashaHerath/webextract"
	wehttp "github.com/HimashaHerath/webextract/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	t.Parallel()

	t.Run("sends headers and decodes the response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "secret", r.Header.Get("X-Key"))

			var in map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
		}))
		defer server.Close()

		c := wehttp.NewClient(nil, map[string]string{"X-Key": "secret"}, nil)

		var out map[string]string
		err := c.PostJSON(context.Background(), server.URL, map[string]string{"msg": "hi"}, &out)

		require.NoError(t, err)
		assert.Equal(t, "hi", out["echo"])
	})

	t.Run("returns StatusError for non-2xx", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
		}))
		defer server.Close()

		err := wehttp.NewClient(nil, nil, nil).PostJSON(context.Background(), server.URL, struct{}{}, nil)

		var se *wehttp.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
		assert.Equal(t, 7*time.Second, se.RetryAfter)
		assert.Contains(t, se.Body, "slow down")
	})

	t.Run("returns EBACKEND for undecodable bodies", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		var out map[string]any
		err := wehttp.NewClient(nil, nil, nil).GetJSON(context.Background(), server.URL, &out)

		assert.Equal(t, webextract.EBACKEND, webextract.ErrorCode(err))
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", &wehttp.StatusError{StatusCode: 401}, webextract.EAUTH},
		{"forbidden", &wehttp.StatusError{StatusCode: 403}, webextract.EAUTH},
		{"too many requests", &wehttp.StatusError{StatusCode: 429}, webextract.ERATELIMIT},
		{"rate limit text", &wehttp.StatusError{StatusCode: 400, Body: "Rate limit reached"}, webextract.ERATELIMIT},
		{"missing model", &wehttp.StatusError{StatusCode: 404, Body: `{"error":"model 'x' not found"}`}, webextract.EUNAVAILABLE},
		{"invalid api key text", &wehttp.StatusError{StatusCode: 400, Body: "Invalid API key provided"}, webextract.EAUTH},
		{"server error", &wehttp.StatusError{StatusCode: 500, Body: "oops"}, webextract.EBACKEND},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), webextract.ETIMEOUT},
		{"canceled", context.Canceled, webextract.ECANCELED},
		{"connection refused text", errors.New("dial tcp: connection refused"), webextract.ECONNECT},
		{"already classified", webextract.Errorf(webextract.EUNAVAILABLE, "x"), webextract.EUNAVAILABLE},
		{"other", errors.New("weird"), webextract.EBACKEND},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, webextract.ErrorCode(wehttp.Classify(tt.err)))
		})
	}

	t.Run("keeps the retry hint", func(t *testing.T) {
		t.Parallel()

		err := wehttp.Classify(&wehttp.StatusError{StatusCode: 429, RetryAfter: 3 * time.Second})

		assert.Equal(t, 3*time.Second, webextract.ErrorRetryAfter(err))
	})

	t.Run("returns nil for nil", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, wehttp.Classify(nil))
	})

	t.Run("reports refused connections", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		err := wehttp.NewClient(nil, nil, nil).GetJSON(context.Background(), url, nil)

		assert.Equal(t, webextract.ECONNECT, webextract.ErrorCode(wehttp.Classify(err)))
	})
}

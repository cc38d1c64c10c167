package upstream

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/httpx"
	"storefront/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions(retries int) Options {
	return Options{RPS: 1000, MaxRetries: retries, Backoff: time.Millisecond}
}

func TestClient_Get(t *testing.T) {
	t.Run("decodes data and meta", func(t *testing.T) {
		srv := testutil.EnvelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/cards", r.URL.Path)
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "req-1", r.Header.Get(httpx.RequestIDHeader))
			httpx.JSONSuccess(w, r, []string{"a", "b"}, map[string]any{"total": 2})
		})
		c := NewClient(srv.URL, fastOptions(0))

		var data []string
		var meta struct {
			Total int `json:"total"`
		}
		ctx := httpx.ContextWithRequestID(context.Background(), "req-1")
		err := c.Get(ctx, "/api/cards", map[string][]string{"page": {"2"}}, &data, &meta)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, data)
		assert.Equal(t, 2, meta.Total)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := testutil.EnvelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				testutil.WriteErrorEnvelope(w, http.StatusServiceUnavailable, httpx.CodeUnavailable, "busy")
				return
			}
			testutil.WriteEnvelope(w, http.StatusOK, "ok")
		})
		c := NewClient(srv.URL, fastOptions(3))

		var data string
		require.NoError(t, c.Get(context.Background(), "/x", nil, &data, nil))
		assert.Equal(t, "ok", data)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		srv := testutil.EnvelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			testutil.WriteErrorEnvelope(w, http.StatusTooManyRequests, httpx.CodeRateLimited, "slow down")
		})
		c := NewClient(srv.URL, fastOptions(2))

		err := c.Get(context.Background(), "/x", nil, nil, nil)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusTooManyRequests, statusErr.Status)
		assert.EqualValues(t, 3, calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := testutil.EnvelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			testutil.WriteErrorEnvelope(w, http.StatusBadRequest, httpx.CodeValidation, "bad sort")
		})
		c := NewClient(srv.URL, fastOptions(3))

		err := c.Get(context.Background(), "/x", nil, nil, nil)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusBadRequest, statusErr.Status)
		assert.Equal(t, httpx.CodeValidation, statusErr.Code)
		assert.Equal(t, "bad sort", statusErr.Message)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("cancelled context stops retries", func(t *testing.T) {
		srv := testutil.EnvelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteErrorEnvelope(w, http.StatusBadGateway, httpx.CodeBadGateway, "down")
		})
		c := NewClient(srv.URL, Options{RPS: 1000, MaxRetries: 5, Backoff: time.Hour})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		err := c.Get(ctx, "/x", nil, nil, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClient_Do(t *testing.T) {
	t.Run("posts are sent once", func(t *testing.T) {
		var calls atomic.Int32
		srv := testutil.EnvelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			testutil.WriteErrorEnvelope(w, http.StatusInternalServerError, httpx.CodeInternal, "boom")
		})
		c := NewClient(srv.URL, fastOptions(3))

		err := c.Do(context.Background(), http.MethodPost, "/cart", nil, map[string]string{"id": "c1"}, nil, nil)
		require.Error(t, err)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("no content", func(t *testing.T) {
		srv := testutil.EnvelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			w.WriteHeader(http.StatusNoContent)
		})
		c := NewClient(srv.URL, fastOptions(0))

		assert.NoError(t, c.Delete(context.Background(), "/cart/c1"))
	})
}

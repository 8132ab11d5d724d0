package request

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLimiter struct {
	calls int
	last  EndpointLimit
	err   error
}

func (c *countingLimiter) Limit(_ context.Context, ep EndpointLimit) error {
	c.calls++
	c.last = ep
	return c.err
}

func TestSendPayloadDecodesResult(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "unifex-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "value", r.Header.Get("X-Custom"))
		w.Write([]byte(`{"answer":42}`))
	}))
	t.Cleanup(srv.Close)

	var result struct {
		Answer int `json:"answer"`
	}
	r := New("test", srv.Client(), WithUserAgent("unifex-test"))
	err := r.SendPayload(context.Background(), UnAuth, func() (*Item, error) {
		return &Item{
			Method:  http.MethodGet,
			Path:    srv.URL,
			Headers: map[string]string{"X-Custom": "value"},
			Result:  &result,
		}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result.Answer)
}

func TestSendPayloadInspectorShortCircuits(t *testing.T) {
	t.Parallel()
	venueErr := errors.New("venue reported failure")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":1}}`))
	}))
	t.Cleanup(srv.Close)

	var result map[string]any
	r := New("test", srv.Client(), WithInspector(func(status int, body []byte) error {
		assert.Equal(t, http.StatusBadRequest, status)
		assert.JSONEq(t, `{"error":{"code":1}}`, string(body))
		return venueErr
	}))
	err := r.SendPayload(context.Background(), UnAuth, func() (*Item, error) {
		return &Item{Method: http.MethodGet, Path: srv.URL, Result: &result}, nil
	})
	assert.ErrorIs(t, err, venueErr)
	assert.Nil(t, result, "the result must not be decoded from an error body")
}

func TestSendPayloadLimiter(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	limiter := &countingLimiter{}
	r := New("test", srv.Client(), WithLimiter(limiter))
	require.NoError(t, r.SendPayload(context.Background(), Auth, func() (*Item, error) {
		return &Item{Method: http.MethodGet, Path: srv.URL}, nil
	}))
	assert.Equal(t, 1, limiter.calls)
	assert.Equal(t, Auth, limiter.last)

	// A limiter rejection is returned before the item is even generated.
	limiter.err = errors.New("limit exceeded")
	generated := false
	err := r.SendPayload(context.Background(), Auth, func() (*Item, error) {
		generated = true
		return &Item{Method: http.MethodGet, Path: srv.URL}, nil
	})
	assert.ErrorIs(t, err, limiter.err)
	assert.False(t, generated)
}

func TestSendPayloadValidation(t *testing.T) {
	t.Parallel()
	r := New("test", nil)

	assert.ErrorIs(t, r.SendPayload(context.Background(), UnAuth, nil), errRequestFunctionIsNil)
	assert.ErrorIs(t, r.SendPayload(context.Background(), UnAuth, func() (*Item, error) {
		return nil, nil
	}), errRequestItemNil)
	assert.ErrorIs(t, r.SendPayload(context.Background(), UnAuth, func() (*Item, error) {
		return &Item{Method: http.MethodGet}, nil
	}), errInvalidPath)

	var nilRequester *Requester
	assert.ErrorIs(t, nilRequester.SendPayload(context.Background(), UnAuth, func() (*Item, error) {
		return &Item{}, nil
	}), errRequestSystemIsNil)
}

func TestSendPayloadContextCancellation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	r := New("test", srv.Client())
	err := r.SendPayload(ctx, UnAuth, func() (*Item, error) {
		return &Item{Method: http.MethodGet, Path: srv.URL}, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSplitRateLimitClasses(t *testing.T) {
	t.Parallel()
	// Generous budgets so the assertions never block.
	l := NewSplitRateLimit(time.Millisecond, 100, time.Millisecond, 100)
	assert.NoError(t, l.Limit(context.Background(), Auth))
	assert.NoError(t, l.Limit(context.Background(), UnAuth))
}

func TestRequesterNonceMonotonic(t *testing.T) {
	t.Parallel()
	r := New("test", nil)
	first := r.GetNonce()
	second := r.GetNonce()
	assert.Greater(t, int64(second), int64(first))
}

package odata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *recordingMetrics) ObserveRequest(_ Source, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		Endpoints: map[Source]string{SourceBillingDocument: srv.URL + "/ABAP"},
		Username:  "erp-user",
		Password:  "erp-pass",
		Timeout:   2 * time.Second,
		Format:    "json",
	}, opts...)
	return c, srv
}

func TestClient_Fetch(t *testing.T) {
	t.Run("sends basic auth and decodes envelope", func(t *testing.T) {
		var gotPath, gotQuery, gotUser, gotPass string
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			gotQuery = r.URL.RawQuery
			gotUser, gotPass, _ = r.BasicAuth()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"d":{"BillingDocument":"90000001"}}`))
		})

		p, err := c.Fetch(context.Background(), Query{
			Source: SourceBillingDocument,
			Key:    Key("90000001"),
			Expand: []string{"_Item", "_Text"},
		})
		require.NoError(t, err)
		assert.True(t, p.IsSingle())
		rec, _ := p.First()
		assert.Equal(t, "90000001", rec.String("BillingDocument"))
		assert.Equal(t, "/ABAP('90000001')", gotPath)
		assert.Equal(t, "$expand=_Item,_Text&$format=json", gotQuery)
		assert.Equal(t, "erp-user", gotUser)
		assert.Equal(t, "erp-pass", gotPass)
	})

	t.Run("404 is not found and remote unavailable", func(t *testing.T) {
		metrics := &recordingMetrics{}
		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"/IWBEP/CM_MGW_RT/020","message":{"lang":"en","value":"Resource not found for segment"}}}`))
		}, WithMetrics(metrics))

		_, err := c.Fetch(context.Background(), Query{Source: SourceBillingDocument, Key: Key("x")})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
		assert.Equal(t, "Resource not found for segment", UpstreamMessage(err))
		assert.Equal(t, []string{OutcomeNotFound}, metrics.outcomes)
	})

	t.Run("5xx carries v4 message", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":{"code":"500","message":"backend down"}}`))
		})

		_, err := c.Fetch(context.Background(), Query{Source: SourceBillingDocument})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
		assert.NotErrorIs(t, err, ErrNotFound)
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusBadGateway, se.StatusCode)
		assert.Equal(t, "backend down", se.Message)
	})

	t.Run("401 is remote unavailable with raw text", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Logon failed"))
		})

		_, err := c.Fetch(context.Background(), Query{Source: SourceBillingDocument})
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
		assert.Equal(t, "Logon failed", UpstreamMessage(err))
	})

	t.Run("invalid json is remote unavailable", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		})

		_, err := c.Fetch(context.Background(), Query{Source: SourceBillingDocument})
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
	})

	t.Run("transport failure is remote unavailable", func(t *testing.T) {
		metrics := &recordingMetrics{}
		c, srv := newTestClient(t, func(http.ResponseWriter, *http.Request) {}, WithMetrics(metrics))
		srv.Close()

		_, err := c.Fetch(context.Background(), Query{Source: SourceBillingDocument})
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
		assert.Equal(t, []string{OutcomeTransportError}, metrics.outcomes)
	})

	t.Run("unconfigured source", func(t *testing.T) {
		c := NewClient(Config{})
		_, err := c.Fetch(context.Background(), Query{Source: SourcePlant})
		assert.ErrorIs(t, err, ErrSourceNotConfigured)
		assert.ErrorIs(t, err, ErrRemoteUnavailable)
		assert.False(t, c.Configured(SourcePlant))
	})
}

func TestClient_RateLimit(t *testing.T) {
	calls := 0
	_, srv := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`[]`))
	})
	limited := NewClient(Config{
		Endpoints:    map[Source]string{SourceBillingDocument: srv.URL},
		RateLimitQPS: 1,
		RateBurst:    1,
	})

	_, err := limited.Fetch(context.Background(), Query{Source: SourceBillingDocument})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = limited.Fetch(ctx, Query{Source: SourceBillingDocument})
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Equal(t, 1, calls)
}

func TestClient_RateLimitPlantSource(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"d":{"results":[]}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		Endpoints:    map[Source]string{SourcePlant: srv.URL + "/plant"},
		Timeout:      time.Second,
		RateLimitQPS: 0.01,
		RateBurst:    1,
	})

	_, err := c.Fetch(context.Background(), Query{Source: SourcePlant})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Fetch(ctx, Query{Source: SourcePlant})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.Equal(t, 1, calls)
}

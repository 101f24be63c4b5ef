package httpfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	src, err := NewWithClient(domain.VendorConfig{
		ID:       "amazon",
		Endpoint: server.URL + "/search?q={query}",
	}, server.Client())
	require.NoError(t, err)
	return src
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  domain.VendorConfig
	}{
		{"missing id", domain.VendorConfig{Endpoint: "http://a.test/?q={query}"}},
		{"missing endpoint", domain.VendorConfig{ID: "amazon"}},
		{"bad scheme", domain.VendorConfig{ID: "amazon", Endpoint: "ftp://a.test/{query}"}},
		{"no host", domain.VendorConfig{ID: "amazon", Endpoint: "http:///search"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSource_Search_Success(t *testing.T) {
	var gotQuery, gotAgent string
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name": "Sony WH-1000XM4", "price": "$248.00", "original_price": 349.99,
			"product_url": "https://amazon.test/xm4"}]`))
	})

	obs, err := src.Search(context.Background(), "Sony WH-1000XM4 & co")

	require.NoError(t, err)
	assert.Equal(t, "Sony WH-1000XM4 & co", gotQuery)
	assert.Equal(t, userAgent, gotAgent)
	require.Len(t, obs, 1)
	assert.Equal(t, "amazon", obs[0].VendorID)
	assert.Equal(t, "248", obs[0].Price.String())
	assert.Equal(t, "349.99", obs[0].OriginalPrice.String())
}

func TestSource_Search_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"server error", http.StatusInternalServerError, domain.ErrVendorUnavailable},
		{"bad gateway", http.StatusBadGateway, domain.ErrVendorUnavailable},
		{"forbidden", http.StatusForbidden, domain.ErrVendorRejected},
		{"not found", http.StatusNotFound, domain.ErrVendorRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := src.Search(context.Background(), "iPad Pro")

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSource_Search_RetryAfter(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(HeaderRetryAfter, "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := src.Search(context.Background(), "iPad Pro")

	var rle *domain.RateLimitError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, "amazon", rle.VendorID)
	assert.Equal(t, 7*time.Second, rle.RetryAfter)
}

func TestSource_Search_InvalidBody(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>blocked</html>`))
	})

	_, err := src.Search(context.Background(), "iPad Pro")

	assert.ErrorIs(t, err, domain.ErrVendorRejected)
}

func TestSource_Search_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL + "/search?q={query}"
	server.Close()

	src, err := New(domain.VendorConfig{ID: "amazon", Endpoint: endpoint, Timeout: time.Second})
	require.NoError(t, err)

	_, err = src.Search(context.Background(), "iPad Pro")

	assert.ErrorIs(t, err, domain.ErrVendorUnavailable)
}

func TestSource_Search_ContextCancelled(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Search(ctx, "iPad Pro")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_Close(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	_, err := src.Search(context.Background(), "iPad Pro")
	assert.ErrorIs(t, err, domain.ErrSourceClosed)
}

func TestSearchURL(t *testing.T) {
	s := &Source{endpoint: "https://feed.test/search?q={query}&limit=10"}
	assert.Equal(t, "https://feed.test/search?q=MacBook+Pro&limit=10", s.searchURL("MacBook Pro"))

	s = &Source{endpoint: "https://feed.test/search"}
	assert.Equal(t, "https://feed.test/search?q=iPad", s.searchURL("iPad"))

	s = &Source{endpoint: "https://feed.test/search?format=json"}
	assert.Equal(t, "https://feed.test/search?format=json&q=iPad", s.searchURL("iPad"))
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, 30*time.Second, parseRetryAfter("30", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-5", now))
	assert.Equal(t, 90*time.Second, parseRetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
}

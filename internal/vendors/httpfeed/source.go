package httpfeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/pricepilot/internal/core/domain"
	"github.com/custodia-labs/pricepilot/internal/core/ports/driven"
	"github.com/custodia-labs/pricepilot/internal/vendors/feed"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBodyBytes bounds the size of a feed response.
	MaxBodyBytes = 10 << 20

	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"

	queryPlaceholder = "{query}"
	userAgent        = "pricepilot"
)

// Ensure Source implements the interface.
var _ driven.VendorSource = (*Source)(nil)

// Source fetches listings for one vendor over HTTP.
type Source struct {
	vendorID string
	endpoint string
	client   *http.Client
	closed   atomic.Bool
}

// New creates a source from vendor configuration.
func New(cfg domain.VendorConfig) (*Source, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewWithClient(cfg, &http.Client{Timeout: timeout})
}

// NewWithClient creates a source using the given HTTP client.
func NewWithClient(cfg domain.VendorConfig, client *http.Client) (*Source, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("%w: vendor id is required", domain.ErrInvalidInput)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: vendor %s has no endpoint", domain.ErrInvalidInput, cfg.ID)
	}
	u, err := url.Parse(strings.ReplaceAll(cfg.Endpoint, queryPlaceholder, "q"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: vendor %s endpoint %q", domain.ErrInvalidInput, cfg.ID, cfg.Endpoint)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Source{vendorID: cfg.ID, endpoint: cfg.Endpoint, client: client}, nil
}

// VendorID returns the configured vendor ID.
func (s *Source) VendorID() string {
	return s.vendorID
}

// Search fetches the listings for a query.
func (s *Source) Search(ctx context.Context, query string) ([]domain.Observation, error) {
	if s.closed.Load() {
		return nil, domain.ErrSourceClosed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrVendorRejected, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrVendorUnavailable, s.vendorID, err)
	}
	defer resp.Body.Close()

	if err := s.checkStatus(resp); err != nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodyBytes))
		return nil, err
	}

	observations, err := feed.Decode(s.vendorID, io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var timeoutErr interface{ Timeout() bool }
		if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrVendorUnavailable, s.vendorID, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrVendorRejected, s.vendorID, err)
	}
	return observations, nil
}

// Close marks the source closed. Later searches fail with ErrSourceClosed.
func (s *Source) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.client.CloseIdleConnections()
	}
	return nil
}

func (s *Source) searchURL(query string) string {
	escaped := url.QueryEscape(query)
	if strings.Contains(s.endpoint, queryPlaceholder) {
		return strings.ReplaceAll(s.endpoint, queryPlaceholder, escaped)
	}
	sep := "?"
	if strings.Contains(s.endpoint, "?") {
		sep = "&"
	}
	return s.endpoint + sep + "q=" + escaped
}

func (s *Source) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.RateLimitError{
			VendorID:   s.vendorID,
			RetryAfter: parseRetryAfter(resp.Header.Get(HeaderRetryAfter), time.Now()),
		}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s returned %d", domain.ErrVendorUnavailable, s.vendorID, resp.StatusCode)
	default:
		return fmt.Errorf("%w: %s returned %d", domain.ErrVendorRejected, s.vendorID, resp.StatusCode)
	}
}

// parseRetryAfter reads delay-seconds or an HTTP date. Zero means no hint.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

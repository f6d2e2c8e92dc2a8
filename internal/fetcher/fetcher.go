package fetcher

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
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/kirychukyurii/webitel-job-sync/internal/config"
	"github.com/kirychukyurii/webitel-job-sync/internal/metrics"
	"github.com/kirychukyurii/webitel-job-sync/internal/util"
)

// DefaultTimeout bounds every backend call unless configured otherwise
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a non-2xx body is kept
const maxErrorBody = 64 << 10

// Request describes one backend call
type Request struct {
	Resource string // metrics label, e.g. "job_schedules"
	Method   string
	Path     string // relative to the base URL
	Body     any    // encoded as JSON when non-nil
}

// Fetcher performs timeout-bounded JSON calls against the backend.
// It never retries; every failure comes back as *Error.
type Fetcher struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithHTTPClient replaces the pooled default client
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// New creates a Fetcher for baseURL
func New(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	f := &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  cleanhttp.DefaultPooledClient(),
		timeout: timeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewFromConfig creates a Fetcher with the pooled transport and optional TLS from cfg
func NewFromConfig(cfg config.BackendConfig, logger *slog.Logger) (*Fetcher, error) {
	client := cleanhttp.DefaultPooledClient()

	if cfg.TLS != nil {
		tlsConfig, err := util.LoadTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS config: %w", err)
		}
		client.Transport.(*http.Transport).TLSClientConfig = tlsConfig
	}

	return New(cfg.BaseURL, cfg.Timeout, logger, WithHTTPClient(client)), nil
}

// Do executes req and decodes a 2xx JSON body into out (when out is non-nil).
// The call is aborted after the configured timeout.
func (f *Fetcher) Do(ctx context.Context, req Request, out any) error {
	url := f.baseURL + req.Path
	start := time.Now()

	err := f.do(ctx, req, url, out)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = KindOf(err).String()
	}
	metrics.FetchRequestsTotal.WithLabelValues(req.Resource, outcome).Inc()
	metrics.FetchDuration.WithLabelValues(req.Resource).Observe(time.Since(start).Seconds())

	if err != nil {
		f.logger.Debug("backend request failed",
			slog.String("method", req.Method),
			slog.String("url", url),
			slog.String("kind", KindOf(err).String()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return err
	}

	f.logger.Debug("backend request succeeded",
		slog.String("method", req.Method),
		slog.String("url", url),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (f *Fetcher) do(ctx context.Context, req Request, url string, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return &Error{Kind: KindParse, Method: req.Method, URL: url, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, req.Method, url, body)
	if err != nil {
		return &Error{Kind: KindNetworkUnavailable, Method: req.Method, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return f.transportError(ctx, callCtx, req.Method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return f.transportError(ctx, callCtx, req.Method, url, err)
		}
		return &Error{
			Kind:       KindHTTPStatus,
			Method:     req.Method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return f.transportError(ctx, callCtx, req.Method, url, err)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindParse, Method: req.Method, URL: url, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

// transportError tells a caller cancellation apart from our own deadline and from network loss
func (f *Fetcher) transportError(parent, callCtx context.Context, method, url string, err error) error {
	kind := KindNetworkUnavailable

	switch {
	case errors.Is(parent.Err(), context.Canceled):
		kind = KindCanceled
	case parent.Err() != nil, errors.Is(callCtx.Err(), context.DeadlineExceeded):
		kind = KindTimeout
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = KindTimeout
		}
	}

	return &Error{Kind: kind, Method: method, URL: url, Err: err}
}

// Get fetches path and decodes the body into a T
func Get[T any](ctx context.Context, f *Fetcher, resource, path string) (T, error) {
	var out T
	err := f.Do(ctx, Request{Resource: resource, Method: http.MethodGet, Path: path}, &out)
	return out, err
}

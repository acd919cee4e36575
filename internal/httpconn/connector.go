package httpconn

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Statuses retried by default: request timeout, throttling and upstream
// server failures.
var DefaultRetryStatuses = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

type Config struct {
	BaseURL       string
	Headers       map[string]string
	AuthToken     string
	Timeout       time.Duration
	MaxRetries    int
	RetryWait     time.Duration
	RetryStatuses []int
}

// Connector is a thin session around resty: base URL, default headers,
// bearer auth and a retry budget over a status forcelist.
type Connector struct {
	client        *resty.Client
	retryStatuses map[int]bool
}

// RequestOptions carries the per-call pieces of a request. All fields are
// optional; per-call headers override the connector defaults.
type RequestOptions struct {
	Headers map[string]string
	Query   map[string]string
	Body    interface{}
}

// Response is the subset of the upstream response callers consume.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError is returned for HTTP error statuses that are either not
// retryable or still failing after the retry budget.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, string(e.Body))
}

func New(cfg Config) *Connector {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	retryWait := cfg.RetryWait
	if retryWait == 0 {
		retryWait = 300 * time.Millisecond
	}
	statuses := cfg.RetryStatuses
	if statuses == nil {
		statuses = DefaultRetryStatuses
	}

	retryable := make(map[int]bool, len(statuses))
	for _, s := range statuses {
		retryable[s] = true
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeaders(cfg.Headers).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(retryWait << 4).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return retryable[r.StatusCode()]
		})

	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.AuthToken != "" {
		client.SetAuthToken(cfg.AuthToken)
	}

	log.WithFields(log.Fields{
		"base_url":    cfg.BaseURL,
		"max_retries": maxRetries,
	}).Debug("http connector initialized")

	return &Connector{client: client, retryStatuses: retryable}
}

// Request issues one HTTP request against the base URL. Retryable statuses
// are retried with backoff; any remaining error status comes back as a
// *StatusError.
func (c *Connector) Request(ctx context.Context, method, endpoint string, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	req := c.client.R().SetContext(ctx)
	if opts.Headers != nil {
		req.SetHeaders(opts.Headers)
	}
	if opts.Query != nil {
		req.SetQueryParams(opts.Query)
	}
	if opts.Body != nil {
		req.SetBody(opts.Body)
	}

	path := "/" + strings.TrimLeft(endpoint, "/")

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	log.WithFields(log.Fields{
		"method": method,
		"path":   path,
		"status": resp.StatusCode(),
	}).Debug("request completed")

	if resp.IsError() {
		return nil, &StatusError{
			Method:     method,
			URL:        resp.Request.URL,
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
		}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

func (c *Connector) Get(ctx context.Context, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodGet, endpoint, opts)
}

func (c *Connector) Post(ctx context.Context, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPost, endpoint, opts)
}

func (c *Connector) Put(ctx context.Context, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPut, endpoint, opts)
}

func (c *Connector) Patch(ctx context.Context, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, endpoint, opts)
}

func (c *Connector) Delete(ctx context.Context, endpoint string, opts *RequestOptions) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, endpoint, opts)
}

// requestMultiple fans the requests out concurrently. Results keep the input
// order; the first failure cancels the remaining requests.
func (c *Connector) requestMultiple(ctx context.Context, method string, endpoints []string, opts []*RequestOptions) ([]*Response, error) {
	if opts != nil && len(opts) != len(endpoints) {
		return nil, fmt.Errorf("got %d option sets for %d endpoints", len(opts), len(endpoints))
	}

	log.WithFields(log.Fields{
		"method": method,
		"count":  len(endpoints),
	}).Debug("issuing parallel requests")

	responses := make([]*Response, len(endpoints))
	g, gctx := errgroup.WithContext(ctx)

	for i, endpoint := range endpoints {
		var o *RequestOptions
		if opts != nil {
			o = opts[i]
		}
		g.Go(func() error {
			resp, err := c.Request(gctx, method, endpoint, o)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

func (c *Connector) GetMultiple(ctx context.Context, endpoints []string, opts []*RequestOptions) ([]*Response, error) {
	return c.requestMultiple(ctx, http.MethodGet, endpoints, opts)
}

func (c *Connector) PostMultiple(ctx context.Context, endpoints []string, opts []*RequestOptions) ([]*Response, error) {
	return c.requestMultiple(ctx, http.MethodPost, endpoints, opts)
}

func (c *Connector) PutMultiple(ctx context.Context, endpoints []string, opts []*RequestOptions) ([]*Response, error) {
	return c.requestMultiple(ctx, http.MethodPut, endpoints, opts)
}

func (c *Connector) PatchMultiple(ctx context.Context, endpoints []string, opts []*RequestOptions) ([]*Response, error) {
	return c.requestMultiple(ctx, http.MethodPatch, endpoints, opts)
}

func (c *Connector) DeleteMultiple(ctx context.Context, endpoints []string, opts []*RequestOptions) ([]*Response, error) {
	return c.requestMultiple(ctx, http.MethodDelete, endpoints, opts)
}

// Close releases idle connections held by the underlying transport.
func (c *Connector) Close() {
	c.client.GetClient().CloseIdleConnections()
}

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-dashboard-shell/pkg/errors"
)

const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultBackoffStep = time.Second
	maxBodyBytes       = 4 << 20
)

// Request describes one logical call. The body is kept as bytes so every
// attempt can resend it.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a fully read HTTP response. Non-2xx statuses are returned as
// responses, never as errors.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into dest.
func (r *Response) DecodeJSON(dest interface{}) error {
	if r == nil || len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, dest)
}

// Sleeper waits for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// Fetcher issues HTTP calls with a per-attempt timeout and retries timeouts
// and transport failures with linearly increasing backoff.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	maxRetries  int
	backoffStep time.Duration
	sleep       Sleeper
	logger      *zap.Logger
	onRetry     func(attempt int, err error)
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient swaps the underlying client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithRetries sets how many retries follow the initial attempt.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.maxRetries = n
		}
	}
}

// WithBackoffStep sets the base delay; retry n waits n*step.
func WithBackoffStep(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.backoffStep = d
		}
	}
}

// WithSleeper replaces the wait between attempts.
func WithSleeper(s Sleeper) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.sleep = s
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithRetryHook is called before every retry.
func WithRetryHook(hook func(attempt int, err error)) Option {
	return func(f *Fetcher) {
		f.onRetry = hook
	}
}

// New builds a Fetcher with the default 15s timeout and 3 retries.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		maxRetries:  DefaultMaxRetries,
		backoffStep: DefaultBackoffStep,
		sleep:       sleepContext,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Do runs the request, retrying only on timeouts and transport failures.
func (f *Fetcher) Do(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * f.backoffStep
			if f.onRetry != nil {
				f.onRetry(attempt, lastErr)
			}
			f.logger.Warn("fetch failed, retrying",
				zap.String("method", req.Method),
				zap.String("url", req.URL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(lastErr),
			)
			if err := f.sleep(ctx, delay); err != nil {
				return nil, classify(err)
			}
		}

		resp, err := f.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		var buildErr *requestError
		if errors.As(err, &buildErr) {
			return nil, appErrors.Wrap(buildErr.err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid backend request")
		}
		if ctx.Err() != nil {
			return nil, classify(ctx.Err())
		}
		lastErr = err
	}

	return nil, classify(lastErr)
}

// JSON sends payload as a JSON body.
func (f *Fetcher) JSON(ctx context.Context, method, url string, payload interface{}) (*Response, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = encoded
	}
	header := http.Header{}
	header.Set("Accept", "application/json")
	if body != nil {
		header.Set("Content-Type", "application/json")
	}
	return f.Do(ctx, Request{Method: method, URL: url, Header: header, Body: body})
}

func (f *Fetcher) attempt(ctx context.Context, req Request) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, &requestError{err: err}
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: payload}, nil
}

// requestError marks a request that could not be built; retrying cannot help.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrNetwork.Code, appErrors.ErrNetwork.Status, appErrors.ErrNetwork.Message)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

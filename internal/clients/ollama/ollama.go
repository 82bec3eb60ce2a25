// Package ollama is a small client for the Ollama generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"golang.org/x/sync/semaphore"
)

// ErrGenerate wraps every failure to obtain a completion.
var ErrGenerate = errors.New("ollama: generate failed")

// StatusError reports a non-2xx answer from Ollama.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ollama: status %d", e.StatusCode)
	}
	return fmt.Sprintf("ollama: status %d: %s", e.StatusCode, e.Body)
}

// Generator is satisfied by Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options configures a Client.
type Options struct {
	URL            string
	Model          string
	Timeout        time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration
	MaxConcurrency int
	HTTPClient     *http.Client
	Clock          clock.Clock
	Logger         *slog.Logger
}

const (
	defaultRetryDelay = 500 * time.Millisecond
	maxRetryDelay     = 10 * time.Second
	maxErrorBody      = 512
)

// Client calls POST /api/generate with streaming disabled.
type Client struct {
	url      string
	model    string
	http     *http.Client
	attempts int
	delay    time.Duration
	clock    clock.Clock
	sem      *semaphore.Weighted
	logger   *slog.Logger
}

var _ Generator = (*Client)(nil)

// New builds a client from opts.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("ollama: URL is required")
	}
	if opts.Model == "" {
		return nil, errors.New("ollama: model is required")
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	attempts := opts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		url:      opts.URL,
		model:    opts.Model,
		http:     hc,
		attempts: attempts,
		delay:    delay,
		clock:    clk,
		logger:   log,
	}
	if opts.MaxConcurrency > 0 {
		c.sem = semaphore.NewWeighted(int64(opts.MaxConcurrency))
	}
	return c, nil
}

// Model is the model name sent with every request.
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate sends prompt to the model and returns its full response text.
// Transient failures (transport errors, 429 and 5xx) are retried.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("%w: waiting for slot: %w", ErrGenerate, err)
		}
		defer c.sem.Release(1)
	}

	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %w", ErrGenerate, err)
	}

	var text string
	err = retry.Call(retry.CallArgs{
		Func: func() error {
			var callErr error
			text, callErr = c.generateOnce(ctx, body)
			return callErr
		},
		IsFatalError: func(err error) bool {
			return ctx.Err() != nil || !isTransient(err)
		},
		NotifyFunc: func(err error, attempt int) {
			c.logger.Warn("ollama generate attempt failed", "attempt", attempt, "err", err)
		},
		Attempts:    c.attempts,
		Delay:       c.delay,
		MaxDelay:    maxRetryDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       c.clock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerate, ctxErr)
		}
		return "", fmt.Errorf("%w: %w", ErrGenerate, unwrapRetry(err))
	}
	return text, nil
}

// unwrapRetry returns the error of the final attempt. Fatal errors come back
// from retry.Call as-is.
func unwrapRetry(err error) error {
	if retry.IsAttemptsExceeded(err) || retry.IsDurationExceeded(err) || retry.IsRetryStopped(err) {
		return retry.LastError(err)
	}
	return err
}

func (c *Client) generateOnce(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &fatalError{err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &fatalError{err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Error != "" {
		return "", &fatalError{err: errors.New(out.Error)}
	}
	return out.Response, nil
}

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var fatal *fatalError
	if errors.As(err, &fatal) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode == http.StatusTooManyRequests || status.StatusCode >= 500
	}
	return true
}

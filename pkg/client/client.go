// Package client provides the retrying HTTP fetch primitive used to pull
// JSON collections from the upstream REST API.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/userposts/pkg/logging"
)

// ErrorClass represents a classification of fetch errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents dial, connection and body read errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassCancelled represents a caller-side cancellation.
	ErrorClassCancelled ErrorClass = "cancelled"
)

// Client fetches JSON documents with bounded retries.
type Client struct {
	httpClient *http.Client
	validate   *validator.Validate
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// User-Agent header sent with every request
	UserAgent string

	// Timeout bounds a single attempt, body included
	Timeout time.Duration

	// Retry
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new fetch client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max_attempts must be >= 1 (got %d)", cfg.Retry.MaxAttempts)
	}

	if cfg.Retry.MaxBackoff < cfg.Retry.InitialBackoff {
		return nil, fmt.Errorf("max_backoff must be >= initial_backoff (got %s < %s)",
			cfg.Retry.MaxBackoff, cfg.Retry.InitialBackoff)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		config:   cfg,
		logger:   logging.NewLogger("fetcher"),
	}, nil
}

// get issues a GET for address and returns the fully buffered body.
// Transport-level failures are retried up to maxAttempts; a value <= 0
// selects the configured default.
func (c *Client) get(ctx context.Context, address string, maxAttempts int) ([]byte, error) {
	if maxAttempts <= 0 {
		maxAttempts = c.config.Retry.MaxAttempts
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, ensureRequestID(ctx))

	endpoint := req.URL.Path
	logger := c.logger.With().Str("endpoint", endpoint).Logger()

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	logger.Debug().
		Str("request_id", req.Header.Get(HeaderRequestID)).
		Int("max_attempts", maxAttempts).
		Msg("Executing request")

	var body []byte
	var attempts int
	var lastErr error

	retryErr := retryWithBackoff(ctx, logger, c.config.Retry, maxAttempts, func(attempt int) error {
		attempts = attempt
		if ctxErr := ctx.Err(); ctxErr != nil {
			lastErr = fmt.Errorf("%w: %w", ErrContextCancelled, ctxErr)
			return lastErr
		}

		data, err := c.doAttempt(req, endpoint, logger)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = fmt.Errorf("%w: %w", ErrContextCancelled, err)
			}
			lastErr = err
			return err
		}
		body = data
		return nil
	}, classifyAttemptError)

	if retryErr == nil {
		return body, nil
	}

	var nr errNotRetriable
	switch {
	case errors.As(retryErr, &nr):
		logger.Error().Err(nr.err).Msg("Request failed without retry")
		return nil, nr.err
	case errors.Is(retryErr, ErrRetryExhausted):
		return nil, &TransportError{Address: address, Attempts: attempts, Err: lastErr}
	default:
		return nil, retryErr
	}
}

// doAttempt performs one round trip and accumulates the streamed body.
func (c *Client) doAttempt(req *http.Request, endpoint string, logger zerolog.Logger) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		errClass := c.classifyError(nil, err)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		logger.Debug().Err(err).Msg("HTTP request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errClass := c.classifyError(resp, nil)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("API request error")

		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(endpoint, "body_error").Inc()
		logger.Debug().Err(err).Msg("Response body interrupted")
		return nil, fmt.Errorf("read response body: %w", err)
	}

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	return data, nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyAttemptError maps an attempt error to its retry class.
func classifyAttemptError(err error) ErrorClass {
	if errors.Is(err, ErrContextCancelled) {
		return ErrorClassCancelled
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.ErrorClass
	}
	return ErrorClassNetwork
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Package client provides the HTTP transport for the GW2Spidy API with
// error classification, metrics and rate limit observation.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spidy_requests_total",
		Help: "Total GW2Spidy requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spidy_request_duration_seconds",
		Help:    "GW2Spidy request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spidy_errors_total",
		Help: "Total GW2Spidy errors by class",
	}, []string{"class"})
)

// ResponseObserver is notified of every HTTP response the client receives.
// The rate limit tracker implements it.
type ResponseObserver interface {
	ObserveResponse(ctx context.Context, statusCode int, header http.Header)
}

// Client is the GW2Spidy HTTP client. It performs no retries: every failure
// is returned to the caller.
type Client struct {
	httpClient *http.Client
	observer   ResponseObserver
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// User-Agent header sent with every request
	UserAgent string

	// Timeout per request
	Timeout time.Duration

	// Observer receives status and headers of each response (optional)
	Observer ResponseObserver
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	logger := log.With().Str("component", "spidy-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		observer: cfg.Observer,
		config:   cfg,
		logger:   logger,
	}, nil
}

// GetJSON performs a GET request to url and decodes the JSON body into v.
// endpoint is a low-cardinality label used for metrics and logs.
func (c *Client) GetJSON(ctx context.Context, endpoint, url string, v any) error {
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", url).
		Msg("Executing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		class := ErrorClassNetwork
		if ctx.Err() != nil {
			class = ErrorClassCancelled
		}
		errorsTotal.WithLabelValues(string(class)).Inc()
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return &APIError{
			ErrorClass: class,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	if c.observer != nil {
		c.observer.ObserveResponse(ctx, resp.StatusCode, resp.Header)
	}

	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		class := classifyStatus(resp.StatusCode, resp.Header.Get("Retry-After"))
		errorsTotal.WithLabelValues(string(class)).Inc()

		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Request error")

		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    resp.Status,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		class := ErrorClassDecode
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) && ctx.Err() != nil {
			class = ErrorClassCancelled
		}
		errorsTotal.WithLabelValues(string(class)).Inc()
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: class,
			Message:    "decode response",
			Err:        err,
		}
	}

	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Package metrics exposes the Prometheus registry used by the listings
// fetcher and a small HTTP listener to scrape it during long runs.
// All metrics are defined in their respective packages (client, pagination,
// ratelimit, runner) to maintain modularity and avoid circular dependencies.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Gatherer is the registry Handler serves. Metrics register themselves on
// the default registry via promauto in their respective packages.
var Gatherer = prometheus.DefaultGatherer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - spidy_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - spidy_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - spidy_errors_total{class} (Counter): Errors by class (network, client, server, rate_limit, decode)
//
// Pagination Metrics (pkg/pagination):
//   - spidy_pages_fetched_total{sequence} (Counter): Pages fetched per paginated endpoint
//   - spidy_pacing_delay_seconds{sequence} (Histogram): Wait before each page request
//
// Rate Limit Metrics (pkg/ratelimit):
//   - spidy_rate_limit_cooldowns_total (Counter): Server cooldowns observed (429 / Retry-After)
//   - spidy_rate_limit_cooldown_remaining_seconds (Gauge): Remaining cooldown
//   - spidy_rate_limit_store_errors_total{operation} (Counter): Cooldown store failures
//
// Run Metrics (internal/runner):
//   - spidy_entities_total{state} (Counter): Items by final state (written, failed)
//
// Example Prometheus Queries:
//
//   # Failed items
//   spidy_entities_total{state="failed"}
//
//   # Pages per second
//   sum(rate(spidy_pages_fetched_total[1m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(spidy_request_duration_seconds_bucket[5m]))

// Handler returns the HTTP handler serving /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// Serve listens on addr and serves Handler until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen metrics on %s: %w", addr, err)
	}
	return serve(ctx, ln)
}

func serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Str("component", "metrics").Msg("Metrics server shutdown failed")
		}
	}()

	log.Info().Str("component", "metrics").Str("addr", ln.Addr().String()).Msg("Serving metrics")
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return fmt.Errorf("serve metrics: %w", err)
}

package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for page sequences.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spidy_pages_fetched_total",
		Help: "Total pages fetched by sequence name",
	}, []string{"sequence"})

	pacingDelaySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spidy_pacing_delay_seconds",
		Help:    "Delay waited before each page request by sequence name",
		Buckets: []float64{0, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"sequence"})
)

// Delayer yields the pacing delay to wait before the next request.
type Delayer interface {
	NextDelay() time.Duration
}

// Cooldown reports how long the remote service asked clients to stay away.
type Cooldown interface {
	Remaining(ctx context.Context) time.Duration
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Sequence.
type Option func(*options)

type options struct {
	name     string
	cooldown Cooldown
	sleep    SleepFunc
	logger   *zerolog.Logger
}

// WithName sets the name used in logs and metric labels. Keep it low-cardinality.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithCooldown makes the pre-request wait at least as long as the cooldown.
func WithCooldown(c Cooldown) Option {
	return func(o *options) {
		o.cooldown = c
	}
}

// WithSleep replaces the blocking wait (for testing).
func WithSleep(fn SleepFunc) Option {
	return func(o *options) {
		o.sleep = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// Sequence is a pull-based record stream backed by a paginated endpoint.
// It is not safe for concurrent use.
type Sequence[T any] struct {
	fetcher  PageFetcher[T]
	delayer  Delayer
	cooldown Cooldown
	sleep    SleepFunc
	name     string
	logger   zerolog.Logger

	// cursor
	nextPage    int
	lastPage    int
	fetched     bool
	buf         []T
	estimate    int
	hasEstimate bool
	fetches     int
	done        bool
}

// NewSequence creates a Sequence that starts at page 1. The delayer is
// consulted before every request, including the first.
func NewSequence[T any](fetcher PageFetcher[T], delayer Delayer, opts ...Option) *Sequence[T] {
	o := options{
		name:  "unnamed",
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := log.With().Str("component", "pagination").Str("sequence", o.name).Logger()
	if o.logger != nil {
		logger = o.logger.With().Str("sequence", o.name).Logger()
	}

	return &Sequence[T]{
		fetcher:  fetcher,
		delayer:  delayer,
		cooldown: o.cooldown,
		sleep:    o.sleep,
		name:     o.name,
		logger:   logger,
		nextPage: 1,
		lastPage: 1,
	}
}

// Next returns the next record. ok is false once the sequence is exhausted.
// A fetch error is returned exactly once; afterwards the sequence reports
// exhaustion.
func (s *Sequence[T]) Next(ctx context.Context) (item T, ok bool, err error) {
	var zero T
	for {
		if len(s.buf) > 0 {
			item = s.buf[0]
			s.buf[0] = zero
			s.buf = s.buf[1:]
			return item, true, nil
		}

		if s.done || s.nextPage > s.lastPage {
			s.done = true
			return zero, false, nil
		}

		if err := s.fetchNext(ctx); err != nil {
			s.done = true
			s.buf = nil
			return zero, false, err
		}
	}
}

// SizeHint returns the advisory total estimate: the first page's per-page
// count times its last page. It overestimates when the last page is partial.
func (s *Sequence[T]) SizeHint() (int, bool) {
	return s.estimate, s.hasEstimate
}

// Fetches returns the number of page requests made so far.
func (s *Sequence[T]) Fetches() int {
	return s.fetches
}

// Collect drains the sequence. On error it returns the records yielded
// before the failure together with the error.
func (s *Sequence[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for {
		item, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, item)
	}
}

// fetchNext waits, requests the next page and refills the buffer.
func (s *Sequence[T]) fetchNext(ctx context.Context) error {
	page := s.nextPage

	delay := s.delayer.NextDelay()
	if s.cooldown != nil {
		if remaining := s.cooldown.Remaining(ctx); remaining > delay {
			delay = remaining
		}
	}
	pacingDelaySeconds.WithLabelValues(s.name).Observe(delay.Seconds())

	s.logger.Debug().
		Int("page", page).
		Dur("delay", delay).
		Msg("Sleeping before the next request")

	if err := s.sleep(ctx, delay); err != nil {
		return fmt.Errorf("wait before page %d: %w", page, err)
	}

	s.fetches++
	env, err := s.fetcher.FetchPage(ctx, page)
	if err != nil {
		return fmt.Errorf("fetch page %d: %w", page, err)
	}
	if err := s.check(page, env); err != nil {
		return err
	}
	pagesFetchedTotal.WithLabelValues(s.name).Inc()

	s.logger.Debug().
		Int("page", env.Page).
		Int("last_page", env.LastPage).
		Int("results", len(env.Results)).
		Msg("Fetched page")

	s.fetched = true
	s.lastPage = env.LastPage
	s.nextPage = env.Page + 1
	s.buf = env.Results

	if !s.hasEstimate {
		s.estimate = env.PerPage * env.LastPage
		s.hasEstimate = true
	}

	return nil
}

// check enforces that pages advance one at a time and that the last page
// never moves backwards.
func (s *Sequence[T]) check(requested int, env *Envelope[T]) error {
	if env == nil {
		return fmt.Errorf("%w: empty envelope for page %d", ErrInconsistentPage, requested)
	}
	if env.Page != requested {
		return fmt.Errorf("%w: requested page %d, server returned page %d",
			ErrInconsistentPage, requested, env.Page)
	}
	if s.fetched && env.LastPage < s.lastPage {
		return fmt.Errorf("%w: last page regressed from %d to %d on page %d",
			ErrInconsistentPage, s.lastPage, env.LastPage, requested)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

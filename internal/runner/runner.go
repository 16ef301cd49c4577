// Package runner drives the per-item retrieval pipeline: fetch the buy and
// sell listing histories, merge them chronologically and hand the rows to
// the output sink.
//
// Items are processed one at a time in resolution order. A fetch failure
// marks only that item as failed; sink failures and cancellation abort the
// run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Sternrassler/spidy-listings/internal/export"
	"github.com/Sternrassler/spidy-listings/pkg/client"
	"github.com/Sternrassler/spidy-listings/pkg/merge"
	"github.com/Sternrassler/spidy-listings/pkg/pagination"
	"github.com/Sternrassler/spidy-listings/pkg/resolve"
	"github.com/Sternrassler/spidy-listings/pkg/spidy"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var entitiesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "spidy_entities_total",
		Help: "Items by terminal retrieval state",
	},
	[]string{"state"},
)

// ListingsAPI opens listing sequences. *spidy.API implements it.
type ListingsAPI interface {
	Listings(id int64, side spidy.Side) *pagination.Sequence[spidy.Listing]
}

// Outcome is the result of processing one item.
type Outcome struct {
	Item    spidy.Item
	State   State
	Records int
	Err     error

	// History holds every state the item passed through, in order.
	History []State
}

func (o *Outcome) transition(to State) {
	if !CanTransition(o.State, to) {
		panic(fmt.Sprintf("runner: illegal transition %s -> %s", o.State, to))
	}
	o.State = to
	o.History = append(o.History, to)
}

// Runner processes resolved items.
type Runner struct {
	api    ListingsAPI
	sink   export.Sink
	runID  string
	logger zerolog.Logger
}

// New creates a Runner with a fresh run id.
func New(api ListingsAPI, sink export.Sink) *Runner {
	runID := uuid.NewString()
	return &Runner{
		api:    api,
		sink:   sink,
		runID:  runID,
		logger: log.With().Str("component", "runner").Str("run_id", runID).Logger(),
	}
}

// RunID returns the run identifier.
func (r *Runner) RunID() string {
	return r.runID
}

// RunSelection resolves sel and processes the result. Resolution warnings
// are copied into the summary.
func (r *Runner) RunSelection(ctx context.Context, res *resolve.Resolver, sel resolve.Selection) (*Summary, error) {
	src, err := res.Resolve(ctx, sel)
	if err != nil {
		return r.newSummary(), fmt.Errorf("resolve items: %w", err)
	}

	summary, err := r.Run(ctx, src)
	summary.Warnings = res.Warnings()
	return summary, err
}

// Run processes every item from src. The returned error is fatal: a sink
// failure, a catalog failure or cancellation. The summary is always
// returned and covers the items processed so far.
func (r *Runner) Run(ctx context.Context, src resolve.Source) (*Summary, error) {
	summary := r.newSummary()
	defer func() { summary.Elapsed = time.Since(summary.started) }()

	for n := 1; ; n++ {
		item, ok, err := src.Next(ctx)
		if err != nil {
			return summary, fmt.Errorf("next item: %w", err)
		}
		if !ok {
			return summary, nil
		}
		summary.Resolved++

		outcome, err := r.Process(ctx, item, progress(n, src))
		summary.record(outcome)
		if err != nil {
			return summary, err
		}
	}
}

func (r *Runner) newSummary() *Summary {
	return &Summary{RunID: r.runID, started: time.Now()}
}

// Process runs the pipeline for one item. Fetch failures are reported in the
// outcome only; the returned error is fatal to the run.
func (r *Runner) Process(ctx context.Context, item spidy.Item, prefix string) (Outcome, error) {
	outcome := Outcome{Item: item, State: StatePending, History: []State{StatePending}}
	logger := r.logger.With().Int64("item_id", item.ID).Str("item_name", item.Name).Logger()

	logger.Info().Msgf("%s Fetching item listings for %q", prefix, item.Name)

	outcome.transition(StateFetchingBuy)
	buy, err := r.fetch(ctx, item, spidy.SideBuy)
	if err != nil {
		return r.fail(ctx, logger, outcome, err)
	}

	outcome.transition(StateFetchingSell)
	sell, err := r.fetch(ctx, item, spidy.SideSell)
	if err != nil {
		return r.fail(ctx, logger, outcome, err)
	}

	outcome.transition(StateMerging)
	logger.Info().Msgf("%s Writing item listings for %q", prefix, item.Name)

	rows := merge.New[export.Row](merge.Reversed(buy), merge.Reversed(sell), byTimestamp)
	records, err := r.write(logger, item, rows)
	if err != nil {
		outcome.Records = records
		outcome.transition(StateFailed)
		outcome.Err = err
		entitiesTotal.WithLabelValues(string(StateFailed)).Inc()
		logger.Error().Err(err).Msg("Writing item listings failed")
		return outcome, err
	}

	outcome.Records = records
	outcome.transition(StateWritten)
	entitiesTotal.WithLabelValues(string(StateWritten)).Inc()
	logger.Debug().Int("records", records).Int("buy", len(buy)).Int("sell", len(sell)).Msg("Item written")

	return outcome, nil
}

// fetch drains one side and tags every listing with it. Rows stay in server
// order (newest first).
func (r *Runner) fetch(ctx context.Context, item spidy.Item, side spidy.Side) ([]export.Row, error) {
	listings, err := r.api.Listings(item.ID, side).Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s listings: %w", side, err)
	}

	rows := make([]export.Row, len(listings))
	for i, l := range listings {
		rows[i] = export.Row{Side: side, Listing: l}
	}
	return rows, nil
}

func (r *Runner) write(logger zerolog.Logger, item spidy.Item, rows merge.Source[export.Row]) (int, error) {
	w, err := r.sink.Open(item)
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		row, ok := rows.Next()
		if !ok {
			break
		}
		if err := w.Write(row); err != nil {
			return n, errors.Join(err, w.Close())
		}
		logger.Trace().
			Str("side", string(row.Side)).
			Stringer("timestamp", row.Listing.Timestamp).
			Int64("unit_price", row.Listing.UnitPrice).
			Msg("Row written")
		n++
	}
	return n, w.Close()
}

func (r *Runner) fail(ctx context.Context, logger zerolog.Logger, outcome Outcome, err error) (Outcome, error) {
	outcome.transition(StateFailed)
	outcome.Err = err
	entitiesTotal.WithLabelValues(string(StateFailed)).Inc()

	if ctx.Err() != nil {
		logger.Warn().Err(err).Msg("Item retrieval cancelled")
		return outcome, fmt.Errorf("item %d: %w", outcome.Item.ID, ctx.Err())
	}

	logger.Warn().
		Err(err).
		Str("error_class", string(client.ClassOf(err))).
		Str("state", string(outcome.History[len(outcome.History)-2])).
		Msg("Item retrieval failed, continuing with the next item")
	return outcome, nil
}

func byTimestamp(a, b export.Row) bool {
	return a.Listing.Timestamp.Before(b.Listing.Timestamp.Time)
}

// progress renders "[n of total]"; total is unknown until an estimate exists.
func progress(n int, src resolve.Source) string {
	total := "unknown"
	if hint, ok := src.SizeHint(); ok {
		total = strconv.Itoa(hint)
	}
	return fmt.Sprintf("[%d of %s]", n, total)
}

package runner

import (
	"time"

	"github.com/Sternrassler/spidy-listings/pkg/resolve"
	"github.com/rs/zerolog"
)

// Summary describes a finished (or aborted) run.
type Summary struct {
	RunID    string
	Resolved int
	Written  int
	Failed   int
	Records  int
	Elapsed  time.Duration

	Outcomes []Outcome
	Warnings []resolve.Warning

	started time.Time
}

func (s *Summary) record(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.State {
	case StateWritten:
		s.Written++
		s.Records += o.Records
	case StateFailed:
		s.Failed++
	}
}

// FailedItems returns the outcomes of failed items.
func (s *Summary) FailedItems() []Outcome {
	var failed []Outcome
	for _, o := range s.Outcomes {
		if o.State == StateFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Log writes the summary. A run that wrote nothing is reported as a warning.
func (s *Summary) Log(logger zerolog.Logger) {
	for _, o := range s.FailedItems() {
		logger.Warn().
			Int64("item_id", o.Item.ID).
			Str("item_name", o.Item.Name).
			Err(o.Err).
			Msg("Item failed")
	}

	event := logger.Info()
	msg := "Run finished"
	if s.Written == 0 {
		event = logger.Warn()
		msg = "Run finished without writing any item"
	}
	event.
		Str("run_id", s.RunID).
		Int("resolved", s.Resolved).
		Int("written", s.Written).
		Int("failed", s.Failed).
		Int("records", s.Records).
		Int("warnings", len(s.Warnings)).
		Dur("elapsed", s.Elapsed).
		Msg(msg)
}

package pipeline

import (
	"github.com/google/uuid"

	"github.com/TechnicallyShaun/whispering-alchemy/internal/logging"
	"github.com/TechnicallyShaun/whispering-alchemy/internal/relocate"
)

// Budget counts transcription requests within one run.
type Budget struct {
	Limit int
	Used  int
}

// Take reserves one transcription. It returns false once the limit is reached.
func (b *Budget) Take() bool {
	if b.Used >= b.Limit {
		return false
	}
	b.Used++
	return true
}

// Exhausted reports whether no transcriptions remain.
func (b *Budget) Exhausted() bool {
	return b.Used >= b.Limit
}

// Summary counts what a run did to each file it looked at.
type Summary struct {
	Renamed     int
	Unsupported int
	Transcribed int
	Sorted      int
	Journaled   int
	Deferred    int
	Skipped     int
	Failed      int
}

// Fields returns the summary as log fields.
func (s Summary) Fields() []logging.Field {
	return []logging.Field{
		logging.Int("renamed", s.Renamed),
		logging.Int("unsupported", s.Unsupported),
		logging.Int("transcribed", s.Transcribed),
		logging.Int("sorted", s.Sorted),
		logging.Int("journaled", s.Journaled),
		logging.Int("deferred", s.Deferred),
		logging.Int("skipped", s.Skipped),
		logging.Int("failed", s.Failed),
	}
}

// RunContext is the state of a single invocation. Nothing in it outlives
// the run.
type RunContext struct {
	ID        string
	Budget    Budget
	Summary   Summary
	logger    logging.Logger
	relocator *relocate.Relocator

	limitLogged bool
}

func newRunContext(limit int, logger logging.Logger) *RunContext {
	id := uuid.NewString()
	return &RunContext{
		ID:     id,
		Budget: Budget{Limit: limit},
		logger: logging.With(logger, logging.String("run", id[:8])),
	}
}

// take reserves a transcription and warns once when the budget runs out.
func (rc *RunContext) take() bool {
	if rc.Budget.Take() {
		return true
	}
	if !rc.limitLogged {
		rc.limitLogged = true
		rc.logger.Warn("transcription limit reached, remaining files wait for the next run",
			logging.Int("limit", rc.Budget.Limit),
		)
	}
	return false
}

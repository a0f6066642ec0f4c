package report

import (
	"context"
	"errors"
	"time"

	"bulkmerge/core/merge"

	"go.uber.org/zap"
)

// Result is what one merge run hands to a reporter.
type Result struct {
	Scenario string        `json:"scenario"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Rows     int           `json:"rows"`
	Counts   merge.Counts  `json:"counts"`
	Levels   []merge.Level `json:"levels,omitempty"`
	At       time.Time     `json:"at"`
}

// FromSummary builds a result from a finished cascade.
func FromSummary(scenario string, s merge.Summary) Result {
	return Result{
		Scenario: scenario,
		Elapsed:  s.Elapsed,
		Rows:     s.Rows,
		Counts:   s.Counts,
		Levels:   s.Levels,
		At:       time.Now().UTC(),
	}
}

// Reporter receives merge results. It is informational only and never feeds back into a merge.
type Reporter interface {
	Report(ctx context.Context, r Result) error
}

// LogReporter writes results to a zap logger.
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter creates a reporter logging through l.
func NewLogReporter(l *zap.Logger) *LogReporter {
	return &LogReporter{logger: l}
}

func (r *LogReporter) Report(_ context.Context, res Result) error {
	r.logger.Info("Merge finished",
		zap.String("scenario", res.Scenario),
		zap.Duration("elapsed", res.Elapsed),
		zap.Int("rows", res.Rows),
		zap.Int("inserted", res.Counts.Inserted),
		zap.Int("updated", res.Counts.Updated),
		zap.Int("unchanged", res.Counts.Unchanged),
		zap.Int("failed", res.Counts.Failed),
	)
	return nil
}

// Multi fans a result out to several reporters. Every reporter is called; errors are joined.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, res Result) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

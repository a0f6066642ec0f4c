package invoice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bulkmerge/core/merge"
	"bulkmerge/core/report"

	"go.uber.org/zap"
)

// Lister lists stored reports. report.StorageReporter implements it.
type Lister interface {
	List(ctx context.Context, scenario string) ([]string, error)
}

// ErrNoReportStore is returned by Reports when no report store is configured.
var ErrNoReportStore = errors.New("no report store configured")

// Service runs the invoice demo scenarios.
type Service struct {
	engine   *merge.Engine
	reporter report.Reporter
	lister   Lister
	logger   *zap.Logger

	// runs reset the shared demo tables and must not overlap.
	mu sync.Mutex
}

// NewService creates a new invoice service. lister may be nil.
func NewService(engine *merge.Engine, reporter report.Reporter, lister Lister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = report.NewLogReporter(logger)
	}
	return &Service{
		engine:   engine,
		reporter: reporter,
		lister:   lister,
		logger:   logger,
	}
}

// Run resets the demo tables with opts.Seed invoices and runs scenario against them.
// The result is reported once, also when the merge partially failed; the merge error is returned
// alongside it. A reporter error is logged and does not fail the run.
func (s *Service) Run(ctx context.Context, scenario Scenario, opts Options) (report.Result, error) {
	run, ok := runners[scenario]
	if !ok {
		return report.Result{}, fmt.Errorf("unknown scenario %q", scenario)
	}
	opts = opts.withDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.logger.With(zap.String("scenario", string(scenario)))
	l.Info("Seeding demo tables", zap.Int("invoices", opts.Seed), zap.Int("items", opts.Items))
	if err := Reset(ctx, s.engine, opts.Seed, opts.Items); err != nil {
		return report.Result{}, err
	}

	m, err := loadMappings(s.engine)
	if err != nil {
		return report.Result{}, err
	}

	summary, mergeErr := run(ctx, s.engine, m, opts)
	res := report.FromSummary(string(scenario), summary)
	if len(summary.Levels) == 0 {
		// nothing was merged
		return res, mergeErr
	}

	if err := s.reporter.Report(ctx, res); err != nil {
		l.Warn("Failed to report merge result", zap.Error(err))
	}
	return res, mergeErr
}

// Reports lists the stored report keys of scenario, or of all scenarios when it is empty.
func (s *Service) Reports(ctx context.Context, scenario string) ([]string, error) {
	if s.lister == nil {
		return nil, ErrNoReportStore
	}
	return s.lister.List(ctx, scenario)
}

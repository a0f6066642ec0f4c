package merge

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Engine runs bulk merges against one database.
// It is safe for concurrent use; entity rows handed to it must not be mutated by the caller
// while a merge or cascade is in flight.
type Engine struct {
	db       *gorm.DB
	cfg      Config
	timeout  time.Duration
	logger   *zap.Logger
	registry *registry
}

// NewEngine creates a merge engine. A nil logger disables logging.
func NewEngine(db *gorm.DB, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if !cfg.IsValidPolicy() {
		cfg.CascadePolicy = PolicyHalt
	}
	return &Engine{
		db:       db,
		cfg:      cfg,
		timeout:  cfg.Timeout(),
		logger:   logger.Named("merge"),
		registry: newRegistry(),
	}
}

// Config returns the effective engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// DB returns the database the engine merges into.
func (e *Engine) DB() *gorm.DB { return e.db }

// BatchSize returns the batch size used for m.
func BatchSize[T any](e *Engine, m *Mapping[T]) int {
	if e.cfg.MaxBatchSize > 0 {
		return e.cfg.MaxBatchSize
	}
	if m == nil {
		return DefaultMaxBatchSize
	}
	return defaultBatchSize(e.db, len(m.columns))
}

// Merge upserts rows and returns one outcome per row, in input order.
// Batches run as independent transactions, up to the configured parallelism at a time.
// A failed batch never aborts its siblings; when any batch failed the returned error is a
// *PartialFailure carrying the same outcomes. A cancelled ctx stops new batches from starting,
// their rows are reported as failed with the context error.
func Merge[T any](ctx context.Context, e *Engine, rows []*T, m *Mapping[T]) ([]Outcome, error) {
	batches, err := Plan(rows, m, BatchSize(e, m))
	if err != nil {
		return nil, err
	}

	x := &executor[T]{
		db:      e.db,
		mapping: m,
		timeout: e.timeout,
		logger:  e.logger,
	}

	start := time.Now()
	outcomes := make([]Outcome, len(rows))

	var g errgroup.Group
	g.SetLimit(e.cfg.Parallelism)
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			failBatch(outcomes, b.Offset, len(b.Rows), err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failBatch(outcomes, b.Offset, len(b.Rows), err)
				return nil
			}
			// batches own disjoint ranges of outcomes
			copy(outcomes[b.Offset:], x.Execute(ctx, b))
			return nil
		})
	}
	_ = g.Wait()

	counts := CountOutcomes(outcomes)
	e.logger.Info("Merged rows",
		zap.String("table", m.table),
		zap.Int("batches", len(batches)),
		zap.Int("inserted", counts.Inserted),
		zap.Int("updated", counts.Updated),
		zap.Int("failed", counts.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)

	if counts.Failed > 0 {
		return outcomes, &PartialFailure{Table: m.table, Outcomes: outcomes, Counts: counts}
	}
	return outcomes, nil
}

func failBatch(outcomes []Outcome, offset, n int, err error) {
	for i := offset; i < offset+n; i++ {
		outcomes[i] = Outcome{Action: ActionFailed, Err: err}
	}
}

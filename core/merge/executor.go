package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bulkmerge/core/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resolved is the result of one row inside a batch transaction, before commit.
type resolved struct {
	action    Action
	key       any
	generated bool
}

// executor merges single batches of one mapping. Each batch owns its own transaction.
type executor[T any] struct {
	db      *gorm.DB
	mapping *Mapping[T]
	timeout time.Duration
	logger  *zap.Logger
}

// Execute merges batch in one transaction and returns one outcome per row, in row order.
// Either every row of the batch is written or none is; on failure all rows share the cause.
// Generated keys are written onto the rows only after the transaction committed.
// A started batch ignores cancellation of ctx: it runs until it commits, fails or times out.
func (x *executor[T]) Execute(ctx context.Context, batch Batch[T]) []Outcome {
	outcomes := make([]Outcome, len(batch.Rows))
	if len(batch.Rows) == 0 {
		return outcomes
	}

	start := time.Now()
	bctx := context.WithoutCancel(ctx)
	if x.timeout > 0 {
		var cancel context.CancelFunc
		bctx, cancel = context.WithTimeout(bctx, x.timeout)
		defer cancel()
	}

	results := make([]resolved, len(batch.Rows))
	err := x.db.WithContext(bctx).Transaction(func(tx *gorm.DB) error {
		return x.merge(bctx, tx, batch, results)
	})
	if err != nil {
		cause := x.classify(bctx, err)
		for i := range outcomes {
			outcomes[i] = Outcome{Action: ActionFailed, Err: cause}
		}
		x.logger.Warn("Batch failed",
			zap.String("table", x.mapping.table),
			zap.Int("batch", batch.Ordinal),
			zap.Int("rows", len(batch.Rows)),
			zap.Error(cause),
		)
		return outcomes
	}

	for i, row := range batch.Rows {
		outcomes[i] = x.writeBack(bctx, row, results[i], batch.Offset+i)
	}

	x.logger.Debug("Batch merged",
		zap.String("table", x.mapping.table),
		zap.Int("batch", batch.Ordinal),
		zap.Int("rows", len(batch.Rows)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return outcomes
}

// writeBack builds the outcome of a committed row, copying a generated key onto it.
// When the key cannot be set the row stays committed: the outcome fails with ErrKeyWriteBack
// and still carries the key the database assigned.
func (x *executor[T]) writeBack(ctx context.Context, row *T, r resolved, index int) Outcome {
	if !r.generated {
		return Outcome{Action: r.action, Key: r.key}
	}
	if err := x.mapping.setKey(ctx, row, r.key); err != nil {
		return Outcome{
			Action: ActionFailed,
			Key:    r.key,
			Err:    fmt.Errorf("%w: row %d, key %v: %v", ErrKeyWriteBack, index, r.key, err),
		}
	}
	key, _ := x.mapping.keyValue(ctx, row)
	return Outcome{Action: r.action, Key: key, Generated: true}
}

// merge runs inside the batch transaction.
func (x *executor[T]) merge(ctx context.Context, tx *gorm.DB, batch Batch[T], results []resolved) error {
	m := x.mapping

	var keyed, generated []int
	for i, row := range batch.Rows {
		key, zero := m.keyValue(ctx, row)
		if !zero {
			keyed = append(keyed, i)
			results[i].key = key
			continue
		}
		if !m.keyGenerated {
			return &MappingError{
				Entity: m.entity,
				Reason: fmt.Sprintf("row %d has no key and %s does not generate one", batch.Offset+i, m.table),
			}
		}
		generated = append(generated, i)
	}

	if len(keyed) > 0 {
		if err := x.upsertKeyed(ctx, tx, batch.Rows, keyed, results); err != nil {
			return err
		}
	}

	if len(generated) > 0 {
		if m.tag != nil {
			return x.insertTagged(ctx, tx, batch, generated, results)
		}
		return x.insertEach(ctx, tx, batch, generated, results)
	}
	return nil
}

// upsertKeyed merges rows that carry a key with a single upsert statement. Existence is probed
// in the same transaction right before the write to tell inserts from updates.
func (x *executor[T]) upsertKeyed(ctx context.Context, tx *gorm.DB, rows []*T, idx []int, results []resolved) error {
	m := x.mapping
	keyCol := m.key.DBName

	keys := make([]any, len(idx))
	values := make([]map[string]any, len(idx))
	for j, i := range idx {
		keys[j] = results[i].key
		values[j] = m.values(ctx, rows[i], true)
	}

	var existing []string
	err := tx.Table(m.table).
		Where(clause.IN{Column: clause.Column{Name: keyCol}, Values: keys}).
		Pluck(keyCol, &existing).Error
	if err != nil {
		return fmt.Errorf("failed to probe existing keys: %w", err)
	}
	found := make(map[string]struct{}, len(existing))
	for _, k := range existing {
		found[k] = struct{}{}
	}

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: keyCol}}}
	if cols := m.updateColumns(); len(cols) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(cols)
	} else {
		onConflict.DoNothing = true
	}

	if err := tx.Table(m.table).Clauses(onConflict).Create(&values).Error; err != nil {
		return fmt.Errorf("failed to upsert %d rows: %w", len(values), err)
	}

	for _, i := range idx {
		if _, ok := found[utils.ToString(results[i].key)]; ok {
			results[i].action = ActionUpdated
		} else {
			results[i].action = ActionInserted
		}
	}
	return nil
}

// insertTagged inserts keyless rows with one multi-row statement. Every row carries a unique
// tag in the mapping's tag column; the generated keys are read back by tag, so the match
// never depends on the order in which the database assigned or returned them.
func (x *executor[T]) insertTagged(ctx context.Context, tx *gorm.DB, batch Batch[T], idx []int, results []resolved) error {
	m := x.mapping
	keyCol, tagCol := m.key.DBName, m.tag.DBName

	batchTag := uuid.NewString()
	tags := make([]string, len(idx))
	tagArgs := make([]any, len(idx))
	values := make([]map[string]any, len(idx))
	for j, i := range idx {
		tags[j] = fmt.Sprintf("%s:%d", batchTag, j)
		tagArgs[j] = tags[j]
		v := m.values(ctx, batch.Rows[i], false)
		v[tagCol] = tags[j]
		values[j] = v
	}

	if err := tx.Table(m.table).Create(&values).Error; err != nil {
		return fmt.Errorf("failed to insert %d rows: %w", len(values), err)
	}

	var found []map[string]any
	err := tx.Table(m.table).
		Select([]string{keyCol, tagCol}).
		Where(clause.IN{Column: clause.Column{Name: tagCol}, Values: tagArgs}).
		Find(&found).Error
	if err != nil {
		return fmt.Errorf("failed to read back generated keys: %w", err)
	}

	byTag := make(map[string]any, len(found))
	for _, r := range found {
		tag := utils.ToString(r[tagCol])
		if _, dup := byTag[tag]; dup {
			return fmt.Errorf("%w: tag %s matched more than one row", ErrCorrelation, tag)
		}
		byTag[tag] = r[keyCol]
	}

	for j, i := range idx {
		key, ok := byTag[tags[j]]
		if !ok || utils.ToInt64(key) == 0 {
			return fmt.Errorf("%w: no key read back for row %d", ErrCorrelation, batch.Offset+i)
		}
		results[i] = resolved{action: ActionInserted, key: key, generated: true}
	}
	return nil
}

// insertEach inserts keyless rows one statement at a time inside the batch transaction.
// It is the fallback for mappings without a tag column: a single-row insert always reports
// its own generated key, so no ordering guarantee is needed.
func (x *executor[T]) insertEach(ctx context.Context, tx *gorm.DB, batch Batch[T], idx []int, results []resolved) error {
	m := x.mapping
	for _, i := range idx {
		// work on a copy so the caller's row only changes once the batch committed
		cp := *batch.Rows[i]
		if err := tx.Table(m.table).Omit(clause.Associations).Create(&cp).Error; err != nil {
			return fmt.Errorf("failed to insert row %d: %w", batch.Offset+i, err)
		}
		key, zero := m.keyValue(ctx, &cp)
		if zero {
			return fmt.Errorf("%w: no key returned for row %d", ErrCorrelation, batch.Offset+i)
		}
		results[i] = resolved{action: ActionInserted, key: key, generated: true}
	}
	return nil
}

// classify maps a batch error onto the error taxonomy.
func (x *executor[T]) classify(ctx context.Context, err error) error {
	var mappingErr *MappingError
	if errors.As(err, &mappingErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Table: x.mapping.table, Timeout: x.timeout, Err: err}
	}
	if kind, ok := constraintKind(err); ok {
		return &ConstraintViolation{Table: x.mapping.table, Kind: kind, Err: err}
	}
	return err
}

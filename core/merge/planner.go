package merge

import (
	"context"
	"fmt"

	"bulkmerge/core/utils"
)

// Batch is an ordered group of rows sent to the database in one transaction.
type Batch[T any] struct {
	// Ordinal is the position of the batch in the plan.
	Ordinal int
	// Offset is the index of the batch's first row in the planned input.
	Offset int
	// Rows are the entities of the batch, in input order.
	Rows []*T
}

// Plan partitions rows into batches of at most maxBatchSize rows, preserving input order
// within and across batches. It does not look at key values: whether a row is inserted or
// updated is decided by the executor inside the batch transaction.
// Two rows carrying the same non-zero key are rejected with a *MappingError before any I/O,
// since a single upsert cannot give each of them an accurate outcome.
// A non-positive maxBatchSize falls back to DefaultMaxBatchSize.
func Plan[T any](rows []*T, m *Mapping[T], maxBatchSize int) ([]Batch[T], error) {
	if m == nil {
		return nil, &MappingError{Entity: "<nil>", Reason: "mapping is nil"}
	}
	if m.key == nil {
		return nil, &MappingError{Entity: m.entity, Reason: "no key column to resolve conflicts on"}
	}
	seen := make(map[string]int)
	for i, row := range rows {
		if row == nil {
			return nil, &MappingError{Entity: m.entity, Reason: fmt.Sprintf("row %d is nil", i)}
		}
		key, zero := m.keyValue(context.Background(), row)
		if zero {
			continue
		}
		k := utils.ToString(key)
		if first, dup := seen[k]; dup {
			return nil, &MappingError{
				Entity: m.entity,
				Reason: fmt.Sprintf("rows %d and %d carry the same key %s", first, i, k),
			}
		}
		seen[k] = i
	}

	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}

	batches := make([]Batch[T], 0, (len(rows)+maxBatchSize-1)/maxBatchSize)
	for offset := 0; offset < len(rows); offset += maxBatchSize {
		end := offset + maxBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batches = append(batches, Batch[T]{
			Ordinal: len(batches),
			Offset:  offset,
			Rows:    rows[offset:end:end],
		})
	}
	return batches, nil
}

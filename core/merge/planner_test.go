package merge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParents(n int, prefix string) []*testParent {
	rows := make([]*testParent, n)
	for i := range rows {
		rows[i] = &testParent{Code: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return rows
}

func TestPlan_Boundaries(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapping[testParent](db)
	require.NoError(t, err)

	t.Run("Exactly max", func(t *testing.T) {
		batches, err := Plan(newParents(3, "a"), m, 3)
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Len(t, batches[0].Rows, 3)
	})

	t.Run("Max plus one", func(t *testing.T) {
		batches, err := Plan(newParents(4, "a"), m, 3)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Len(t, batches[0].Rows, 3)
		assert.Len(t, batches[1].Rows, 1)
		assert.Equal(t, 0, batches[0].Offset)
		assert.Equal(t, 3, batches[1].Offset)
		assert.Equal(t, 1, batches[1].Ordinal)
	})

	t.Run("Empty input", func(t *testing.T) {
		batches, err := Plan([]*testParent{}, m, 3)
		require.NoError(t, err)
		assert.Empty(t, batches)
	})

	t.Run("Default size", func(t *testing.T) {
		batches, err := Plan(newParents(DefaultMaxBatchSize+1, "a"), m, 0)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Len(t, batches[0].Rows, DefaultMaxBatchSize)
	})
}

func TestPlan_PreservesOrder(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapping[testParent](db)
	require.NoError(t, err)

	rows := newParents(10, "o")
	batches, err := Plan(rows, m, 3)
	require.NoError(t, err)
	require.Len(t, batches, 4)

	var flat []*testParent
	for i, b := range batches {
		assert.Equal(t, i, b.Ordinal)
		assert.Equal(t, len(flat), b.Offset)
		flat = append(flat, b.Rows...)
	}
	require.Len(t, flat, len(rows))
	for i := range rows {
		assert.Same(t, rows[i], flat[i])
	}

	// a batch cannot grow into its neighbour
	assert.Equal(t, 3, cap(batches[0].Rows))
}

func TestPlan_Errors(t *testing.T) {
	db := newTestDB(t)
	parents, err := NewMapping[testParent](db)
	require.NoError(t, err)
	keyless, err := NewMapping[testKeyless](db)
	require.NoError(t, err)

	t.Run("Nil mapping", func(t *testing.T) {
		_, err := Plan[testParent](newParents(1, "n"), nil, 10)
		var mappingErr *MappingError
		assert.True(t, errors.As(err, &mappingErr))
	})

	t.Run("No key", func(t *testing.T) {
		_, err := Plan([]*testKeyless{{Message: "x"}}, keyless, 10)
		var mappingErr *MappingError
		require.True(t, errors.As(err, &mappingErr))
		assert.Contains(t, mappingErr.Reason, "no key")
	})

	t.Run("Duplicate key", func(t *testing.T) {
		rows := newParents(4, "d")
		rows[1].ID = 5
		rows[3].ID = 5
		_, err := Plan(rows, parents, 2)
		var mappingErr *MappingError
		require.True(t, errors.As(err, &mappingErr))
		assert.Contains(t, mappingErr.Reason, "rows 1 and 3")
	})

	t.Run("Zero keys are not duplicates", func(t *testing.T) {
		batches, err := Plan(newParents(4, "z"), parents, 2)
		require.NoError(t, err)
		assert.Len(t, batches, 2)
	})

	t.Run("Nil row", func(t *testing.T) {
		rows := newParents(2, "n")
		rows = append(rows, nil)
		_, err := Plan(rows, parents, 10)
		var mappingErr *MappingError
		require.True(t, errors.As(err, &mappingErr))
		assert.Contains(t, mappingErr.Reason, "row 2")
	})
}

func TestDefaultBatchSize(t *testing.T) {
	db := newTestDB(t)

	tests := []struct {
		name    string
		columns int
		want    int
	}{
		{"Narrow rows are capped", 3, DefaultMaxBatchSize},
		{"Wide rows follow the parameter limit", 100, 32766 / 100},
		{"Zero columns", 0, DefaultMaxBatchSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultBatchSize(db, tt.columns))
		})
	}

	assert.Equal(t, fallbackMaxParams/3, defaultBatchSize(nil, 3))
}

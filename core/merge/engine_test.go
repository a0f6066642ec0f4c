package merge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// codeOf reads the code column of the parent with the given id.
func codeOf(t *testing.T, db *gorm.DB, id any) string {
	t.Helper()
	var code string
	require.NoError(t, db.Table("test_parents").Where("id = ?", id).Pluck("code", &code).Error)
	return code
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func TestMerge_InsertThenReplay(t *testing.T) {
	for _, tagged := range []bool{true, false} {
		t.Run(fmt.Sprintf("tagged=%v", tagged), func(t *testing.T) {
			db := newTestDB(t)
			e := NewEngine(db, Config{MaxBatchSize: 4}, nil)

			var opts []MappingOption
			if tagged {
				opts = append(opts, WithTagColumn("merge_tag"))
			}
			m, err := MappingFor[testParent](e, opts...)
			require.NoError(t, err)

			rows := newParents(10, "r")
			outcomes, err := Merge(context.Background(), e, rows, m)
			require.NoError(t, err)
			require.Len(t, outcomes, len(rows))

			seen := make(map[uint]bool)
			for i, o := range outcomes {
				assert.Equal(t, ActionInserted, o.Action)
				assert.True(t, o.Generated)
				assert.NotZero(t, rows[i].ID)
				assert.EqualValues(t, rows[i].ID, o.Key)
				assert.False(t, seen[rows[i].ID], "key assigned twice")
				seen[rows[i].ID] = true

				// the key written back belongs to this very row
				assert.Equal(t, rows[i].Code, codeOf(t, db, rows[i].ID))
			}

			for _, r := range rows {
				r.Code += "-v2"
			}
			outcomes, err = Merge(context.Background(), e, rows, m)
			require.NoError(t, err)
			for i, o := range outcomes {
				assert.Equal(t, ActionUpdated, o.Action)
				assert.False(t, o.Generated)
				assert.Equal(t, rows[i].Code, codeOf(t, db, rows[i].ID))
			}
			assert.EqualValues(t, 10, countRows(t, db, "test_parents"))
		})
	}
}

func TestMerge_OneUpdatedManyInserted(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, Config{Parallelism: 4}, nil)
	m, err := MappingFor[testParent](e, WithTagColumn("merge_tag"))
	require.NoError(t, err)

	existing := &testParent{Code: "existing"}
	_, err = Merge(context.Background(), e, []*testParent{existing}, m)
	require.NoError(t, err)

	const n = 10000
	existing.Code = "existing-updated"
	rows := append([]*testParent{existing}, newParents(n, "new")...)

	outcomes, err := Merge(context.Background(), e, rows, m)
	require.NoError(t, err)
	require.Len(t, outcomes, n+1)

	counts := CountOutcomes(outcomes)
	assert.Equal(t, Counts{Inserted: n, Updated: 1}, counts)
	assert.Equal(t, ActionUpdated, outcomes[0].Action)
	assert.EqualValues(t, n+1, countRows(t, db, "test_parents"))
	assert.Equal(t, "existing-updated", codeOf(t, db, existing.ID))
}

func TestMerge_OrderAndLength(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, Config{MaxBatchSize: 3, Parallelism: 3}, nil)
	m, err := MappingFor[testParent](e, WithTagColumn("merge_tag"))
	require.NoError(t, err)

	seeded := newParents(4, "seed")
	_, err = Merge(context.Background(), e, seeded, m)
	require.NoError(t, err)

	// interleave existing and new rows
	var rows []*testParent
	fresh := newParents(4, "fresh")
	for i := range seeded {
		rows = append(rows, fresh[i], seeded[i])
	}

	outcomes, err := Merge(context.Background(), e, rows, m)
	require.NoError(t, err)
	require.Len(t, outcomes, len(rows))
	for i, o := range outcomes {
		assert.EqualValues(t, rows[i].ID, o.Key)
		if i%2 == 0 {
			assert.Equal(t, ActionInserted, o.Action)
		} else {
			assert.Equal(t, ActionUpdated, o.Action)
		}
	}
}

func TestMerge_FailureContainment(t *testing.T) {
	for _, parallelism := range []int{1, 3} {
		t.Run(fmt.Sprintf("parallelism=%d", parallelism), func(t *testing.T) {
			db := newTestDB(t)
			e := NewEngine(db, Config{MaxBatchSize: 3, Parallelism: parallelism}, nil)
			m, err := MappingFor[testParent](e, WithTagColumn("merge_tag"))
			require.NoError(t, err)

			rows := newParents(9, "c")
			// unique violation inside the second batch
			rows[4].Code = rows[3].Code

			outcomes, err := Merge(context.Background(), e, rows, m)
			var partial *PartialFailure
			require.True(t, errors.As(err, &partial))
			assert.Equal(t, []int{3, 4, 5}, partial.Failed())
			assert.Equal(t, Counts{Inserted: 6, Failed: 3}, partial.Counts)
			assert.Equal(t, outcomes, partial.Outcomes)

			for i, o := range outcomes {
				if i >= 3 && i <= 5 {
					assert.Equal(t, ActionFailed, o.Action)
					assert.Zero(t, rows[i].ID, "failed rows keep their zero key")

					var violation *ConstraintViolation
					require.True(t, errors.As(o.Err, &violation))
					assert.Equal(t, ConstraintUnique, violation.Kind)
					assert.Same(t, outcomes[3].Err, o.Err, "batch rows share one cause")
					continue
				}
				assert.Equal(t, ActionInserted, o.Action)
				assert.NotZero(t, rows[i].ID)
			}
			assert.EqualValues(t, 6, countRows(t, db, "test_parents"))
		})
	}
}

func TestMerge_CallerAssignedKeys(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, Config{}, nil)
	m, err := MappingFor[testCode](e)
	require.NoError(t, err)

	rows := []*testCode{{Code: "A", Name: "alpha"}, {Code: "B", Name: "beta"}}
	outcomes, err := Merge(context.Background(), e, rows, m)
	require.NoError(t, err)
	for i, o := range outcomes {
		assert.Equal(t, ActionInserted, o.Action)
		assert.False(t, o.Generated)
		assert.Equal(t, rows[i].Code, o.Key)
	}

	rows[0].Name = "alpha-2"
	outcomes, err = Merge(context.Background(), e, rows, m)
	require.NoError(t, err)
	assert.Equal(t, Counts{Updated: 2}, CountOutcomes(outcomes))

	var name string
	require.NoError(t, db.Table("test_codes").Where("code = ?", "A").Pluck("name", &name).Error)
	assert.Equal(t, "alpha-2", name)

	t.Run("Missing key that is not generated", func(t *testing.T) {
		outcomes, err := Merge(context.Background(), e, []*testCode{{Name: "nameless"}}, m)
		var partial *PartialFailure
		require.True(t, errors.As(err, &partial))
		var mappingErr *MappingError
		assert.True(t, errors.As(outcomes[0].Err, &mappingErr))
	})
}

func TestMerge_DuplicateKeysRejected(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, Config{}, nil)
	m, err := MappingFor[testCode](e)
	require.NoError(t, err)

	rows := []*testCode{{Code: "A", Name: "one"}, {Code: "A", Name: "two"}}
	outcomes, err := Merge(context.Background(), e, rows, m)
	assert.Nil(t, outcomes)
	var mappingErr *MappingError
	require.True(t, errors.As(err, &mappingErr))
	assert.Contains(t, mappingErr.Reason, "same key A")
	assert.Zero(t, countRows(t, db, "test_codes"))
}

func TestMerge_ForeignKeyViolation(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, Config{}, nil)
	m, err := MappingFor[testChild](e)
	require.NoError(t, err)

	outcomes, err := Merge(context.Background(), e, []*testChild{{ParentID: 999, Name: "orphan"}}, m)
	require.Error(t, err)

	var violation *ConstraintViolation
	require.True(t, errors.As(outcomes[0].Err, &violation))
	assert.Equal(t, ConstraintForeignKey, violation.Kind)
	assert.Equal(t, "test_children", violation.Table)
}

func TestMerge_CancelledContext(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, Config{MaxBatchSize: 2}, nil)
	m, err := MappingFor[testParent](e)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := newParents(5, "x")
	outcomes, err := Merge(ctx, e, rows, m)
	var partial *PartialFailure
	require.True(t, errors.As(err, &partial))
	require.Len(t, outcomes, 5)
	for _, o := range outcomes {
		assert.Equal(t, ActionFailed, o.Action)
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
	assert.Zero(t, countRows(t, db, "test_parents"))
}

func TestMerge_MappingErrorBeforeIO(t *testing.T) {
	db := newTestDB(t)
	e := NewEngine(db, Config{}, nil)
	keyless, err := NewMapping[testKeyless](db)
	require.NoError(t, err)

	outcomes, err := Merge(context.Background(), e, []*testKeyless{{Message: "m"}}, keyless)
	assert.Nil(t, outcomes)
	var mappingErr *MappingError
	assert.True(t, errors.As(err, &mappingErr))
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(nil, Config{Parallelism: -1, CascadePolicy: "bogus", TimeoutSeconds: 5}, nil)
	cfg := e.Config()
	assert.Equal(t, 1, cfg.Parallelism)
	assert.Equal(t, PolicyHalt, cfg.CascadePolicy)
	assert.Equal(t, cfg.Timeout(), e.timeout)
	assert.NotNil(t, e.logger)
}

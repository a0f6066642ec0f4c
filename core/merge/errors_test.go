package merge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type stateError struct{ state string }

func (e stateError) Error() string    { return "pg error " + e.state }
func (e stateError) SQLState() string { return e.state }

func TestConstraintKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ConstraintKind
		ok   bool
	}{
		{"nil", nil, "", false},
		{"plain error", errors.New("boom"), "", false},
		{"gorm duplicated key", fmt.Errorf("wrapped: %w", gorm.ErrDuplicatedKey), ConstraintUnique, true},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, ConstraintForeignKey, true},
		{"gorm check", gorm.ErrCheckConstraintViolated, ConstraintCheck, true},
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, ConstraintUnique, true},
		{"mysql parent row", &mysql.MySQLError{Number: 1451}, ConstraintForeignKey, true},
		{"mysql child row", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1452}), ConstraintForeignKey, true},
		{"mysql check", &mysql.MySQLError{Number: 3819}, ConstraintCheck, true},
		{"mysql other", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, "", false},
		{"postgres unique", stateError{"23505"}, ConstraintUnique, true},
		{"postgres foreign key", stateError{"23503"}, ConstraintForeignKey, true},
		{"postgres check", stateError{"23514"}, ConstraintCheck, true},
		{"postgres serialization", stateError{"40001"}, "", false},
		{"sqlite unique", errors.New("UNIQUE constraint failed: test_parents.code"), ConstraintUnique, true},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), ConstraintForeignKey, true},
		{"sqlite check", errors.New("CHECK constraint failed: amount"), ConstraintCheck, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := constraintKind(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestErrorTypes(t *testing.T) {
	timeout := &TimeoutError{Table: "invoices", Timeout: time.Second, Err: context.DeadlineExceeded}
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.Contains(t, timeout.Error(), "invoices")

	cause := &mysql.MySQLError{Number: 1062}
	violation := &ConstraintViolation{Table: "invoices", Kind: ConstraintUnique, Err: cause}
	var myErr *mysql.MySQLError
	assert.True(t, errors.As(violation, &myErr))

	partial := &PartialFailure{
		Table: "invoices",
		Outcomes: []Outcome{
			{Action: ActionInserted, Key: 1},
			{Action: ActionFailed, Err: violation},
			{Action: ActionUnchanged},
			{Action: ActionFailed, Err: violation},
		},
		Counts: Counts{Inserted: 1, Unchanged: 1, Failed: 2},
	}
	assert.Equal(t, []int{1, 3}, partial.Failed())
	assert.Equal(t, "merge into invoices partially failed: 2 of 4 rows failed", partial.Error())
}

func TestCounts(t *testing.T) {
	outcomes := []Outcome{
		{Action: ActionInserted},
		{Action: ActionInserted},
		{Action: ActionUpdated},
		{Action: ActionFailed},
		{Action: ActionUnchanged},
	}
	c := CountOutcomes(outcomes)
	assert.Equal(t, Counts{Inserted: 2, Updated: 1, Failed: 1, Unchanged: 1}, c)
	assert.Equal(t, 5, c.Total())
	assert.Equal(t, Counts{Inserted: 4, Updated: 2, Failed: 2, Unchanged: 2}, c.Add(c))

	assert.True(t, outcomes[0].Succeeded())
	assert.True(t, outcomes[2].Succeeded())
	assert.False(t, outcomes[3].Succeeded())
	assert.False(t, outcomes[4].Succeeded())
}

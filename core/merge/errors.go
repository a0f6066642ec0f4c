package merge

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrIllegalTransition is returned when a cascade call is made from a state that does not permit it,
	// e.g. ThenMerge before the matching Propagate.
	ErrIllegalTransition = errors.New("illegal cascade transition")

	// ErrCascadeHalted is returned by Propagate and ThenMerge once a level failed under the halt policy.
	ErrCascadeHalted = errors.New("cascade halted after failed level")

	// ErrCorrelation is wrapped when generated keys cannot be matched back to submitted rows.
	ErrCorrelation = errors.New("generated key correlation failed")

	// ErrKeyWriteBack is wrapped when a row was committed but its generated key could not be
	// set on the entity. The outcome's Key still holds the committed key.
	ErrKeyWriteBack = errors.New("row committed but its generated key could not be written back")
)

// MappingError reports a bad or missing key mapping. It is raised before any I/O.
type MappingError struct {
	Entity string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping %s: %s", e.Entity, e.Reason)
}

// TimeoutError marks a batch that did not complete within the configured timeout.
// Merge statements are idempotent on the key, so a caller-driven retry of the batch is safe.
type TimeoutError struct {
	Table   string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("merge into %s timed out after %s: %v", e.Table, e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// ConstraintKind identifies the class of a database constraint violation.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintCheck      ConstraintKind = "check"
)

// ConstraintViolation wraps a database-reported constraint error for one batch.
type ConstraintViolation struct {
	Table string
	Kind  ConstraintKind
	Err   error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("%s constraint violated on %s: %v", e.Kind, e.Table, e.Err)
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// PartialFailure is returned when at least one batch of a level failed.
// Outcomes holds the full per-row result list of that level, in input order.
type PartialFailure struct {
	Table    string
	Outcomes []Outcome
	Counts   Counts
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("merge into %s partially failed: %d of %d rows failed",
		e.Table, e.Counts.Failed, len(e.Outcomes))
}

// Failed returns the indexes of the rows that failed.
func (e *PartialFailure) Failed() []int {
	var idx []int
	for i, o := range e.Outcomes {
		if o.Action == ActionFailed {
			idx = append(idx, i)
		}
	}
	return idx
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451
	mysqlForeignKeyChild  = 1452
	mysqlCheckViolation   = 3819
)

type sqlStateError interface {
	SQLState() string
}

// constraintKind classifies err, returning false if it is not a constraint violation.
func constraintKind(err error) (ConstraintKind, bool) {
	if err == nil {
		return "", false
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ConstraintUnique, true
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ConstraintForeignKey, true
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return ConstraintCheck, true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return ConstraintUnique, true
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ConstraintForeignKey, true
		case mysqlCheckViolation:
			return ConstraintCheck, true
		}
	}

	var stateErr sqlStateError
	if errors.As(err, &stateErr) {
		switch stateErr.SQLState() {
		case pgUniqueViolation:
			return ConstraintUnique, true
		case pgForeignKeyViolation:
			return ConstraintForeignKey, true
		case pgCheckViolation:
			return ConstraintCheck, true
		}
	}

	// SQLite reports constraints through the message only.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ConstraintUnique, true
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ConstraintForeignKey, true
	case strings.Contains(msg, "CHECK constraint failed"):
		return ConstraintCheck, true
	}
	return "", false
}

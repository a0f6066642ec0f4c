package merge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// State is the position of a cascade handle in its chain.
type State int

const (
	StateIdle State = iota
	StateRootMerged
	StatePropagated
	StateChildMerged
	StateHalted
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRootMerged:
		return "root_merged"
	case StatePropagated:
		return "propagated"
	case StateChildMerged:
		return "child_merged"
	case StateHalted:
		return "halted"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Level summarizes one merged level of a cascade chain.
type Level struct {
	Table   string        `json:"table"`
	Depth   int           `json:"depth"`
	Rows    int           `json:"rows"`
	Counts  Counts        `json:"counts"`
	Elapsed time.Duration `json:"elapsed"`
}

// Summary aggregates a whole cascade chain.
type Summary struct {
	Elapsed time.Duration `json:"elapsed"`
	Rows    int           `json:"rows"`
	Counts  Counts        `json:"counts"`
	Levels  []Level       `json:"levels"`
}

// chain is shared by every handle of one cascade.
type chain struct {
	started  time.Time
	finished time.Time
	levels   []Level
	halted   bool
	done     bool
}

// Handle threads a cascade through its levels. Every MergeRoot starts a new chain; ThenMerge
// returns a handle for the merged children that shares the chain of its parent.
// Handles are not safe for concurrent use.
type Handle[T any] struct {
	engine   *Engine
	chain    *chain
	depth    int
	state    State
	rows     []*T
	outcomes []Outcome
}

// State returns the handle's state. A halted or finished chain reports that state on every handle.
func (h *Handle[T]) State() State {
	switch {
	case h.chain.done:
		return StateDone
	case h.chain.halted:
		return StateHalted
	default:
		return h.state
	}
}

// Rows returns the rows merged at this level, in merge order.
func (h *Handle[T]) Rows() []*T { return h.rows }

// Outcomes returns a copy of the per-row outcomes of this level.
func (h *Handle[T]) Outcomes() []Outcome {
	out := make([]Outcome, len(h.outcomes))
	copy(out, h.outcomes)
	return out
}

// Counts returns the outcome counts of this level.
func (h *Handle[T]) Counts() Counts { return CountOutcomes(h.outcomes) }

// Levels returns every level merged so far in the chain.
func (h *Handle[T]) Levels() []Level {
	out := make([]Level, len(h.chain.levels))
	copy(out, h.chain.levels)
	return out
}

// Summary aggregates the chain so far.
func (h *Handle[T]) Summary() Summary {
	s := Summary{Levels: h.Levels()}
	end := h.chain.finished
	if end.IsZero() {
		end = time.Now()
	}
	s.Elapsed = end.Sub(h.chain.started)
	for _, l := range s.Levels {
		s.Rows += l.Rows
		s.Counts = s.Counts.Add(l.Counts)
	}
	return s
}

// Done ends the chain and returns its summary. Further cascade calls on any of its handles fail.
func (h *Handle[T]) Done() Summary {
	if !h.chain.done {
		h.chain.done = true
		h.chain.finished = time.Now()
	}
	return h.Summary()
}

func (h *Handle[T]) check(op string, allowed ...State) error {
	if h == nil || h.chain == nil {
		return fmt.Errorf("%w: %s on nil handle", ErrIllegalTransition, op)
	}
	if h.chain.done {
		return fmt.Errorf("%w: %s after done", ErrIllegalTransition, op)
	}
	if h.chain.halted {
		return ErrCascadeHalted
	}
	for _, s := range allowed {
		if h.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", ErrIllegalTransition, op, h.state)
}

// MergeRoot merges the root level of a new cascade chain.
// When a batch failed the handle is returned together with a *PartialFailure; under the halt
// policy the chain is halted, under the skip policy only the failed rows drop out.
func MergeRoot[T any](ctx context.Context, e *Engine, rows []*T, m *Mapping[T]) (*Handle[T], error) {
	c := &chain{started: time.Now()}
	return mergeLevel(ctx, e, c, 0, rows, nil, m)
}

// mergeLevel merges rows, leaving out the indexes marked in skip, and records the level.
func mergeLevel[T any](ctx context.Context, e *Engine, c *chain, depth int, rows []*T, skip []bool, m *Mapping[T]) (*Handle[T], error) {
	// barrier: nothing of this level starts once the caller gave up
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	merged := rows
	if skip != nil {
		merged = make([]*T, 0, len(rows))
		for i, row := range rows {
			if !skip[i] {
				merged = append(merged, row)
			}
		}
	}

	res, err := Merge(ctx, e, merged, m)
	var partial *PartialFailure
	if err != nil && !errors.As(err, &partial) {
		return nil, err
	}

	outcomes := res
	if skip != nil {
		outcomes = make([]Outcome, len(rows))
		j := 0
		for i := range rows {
			if skip[i] {
				outcomes[i] = Outcome{Action: ActionUnchanged}
				continue
			}
			outcomes[i] = res[j]
			j++
		}
	}

	counts := CountOutcomes(outcomes)
	c.levels = append(c.levels, Level{
		Table:   m.table,
		Depth:   depth,
		Rows:    len(rows),
		Counts:  counts,
		Elapsed: time.Since(start),
	})

	state := StateRootMerged
	if depth > 0 {
		state = StateChildMerged
	}
	h := &Handle[T]{
		engine:   e,
		chain:    c,
		depth:    depth,
		state:    state,
		rows:     rows,
		outcomes: outcomes,
	}

	if counts.Failed == 0 {
		return h, nil
	}
	if e.cfg.CascadePolicy == PolicyHalt {
		c.halted = true
		e.logger.Warn("Cascade halted",
			zap.String("table", m.table),
			zap.Int("depth", depth),
			zap.Int("failed", counts.Failed),
		)
	}
	return h, &PartialFailure{Table: m.table, Outcomes: h.Outcomes(), Counts: counts}
}

// Propagate calls fn for every child of every written parent, in parent order and then in
// the order children returns them. fn typically copies the parent's key into the child's
// foreign key; it must only touch the child. Parents that failed or were not written are skipped.
func Propagate[P, C any](h *Handle[P], children func(*P) []*C, fn func(parent *P, child *C)) (*Handle[P], error) {
	if err := h.check("propagate", StateRootMerged, StateChildMerged); err != nil {
		return h, err
	}
	for i, parent := range h.rows {
		if !h.outcomes[i].Succeeded() {
			continue
		}
		for _, child := range children(parent) {
			if child != nil {
				fn(parent, child)
			}
		}
	}
	h.state = StatePropagated
	return h, nil
}

// ThenMerge merges the children of h's rows as the next level of the chain. Children are
// flattened in parent order and then in child order. It is only legal right after Propagate.
// Children of parents that were not written are reported as unchanged and never sent.
func ThenMerge[P, C any](ctx context.Context, h *Handle[P], children func(*P) []*C, m *Mapping[C]) (*Handle[C], error) {
	if err := h.check("then merge", StatePropagated); err != nil {
		return nil, err
	}

	var rows []*C
	var skip []bool
	skipped := 0
	for i, parent := range h.rows {
		ok := h.outcomes[i].Succeeded()
		for _, child := range children(parent) {
			if child == nil {
				continue
			}
			rows = append(rows, child)
			skip = append(skip, !ok)
			if !ok {
				skipped++
			}
		}
	}
	if skipped == 0 {
		skip = nil
	}

	child, err := mergeLevel(ctx, h.engine, h.chain, h.depth+1, rows, skip, m)
	if child != nil {
		h.state = StateChildMerged
	}
	return child, err
}

// One adapts a one-to-one accessor into a child selector.
func One[P, C any](f func(*P) *C) func(*P) []*C {
	return func(p *P) []*C {
		c := f(p)
		if c == nil {
			return nil
		}
		return []*C{c}
	}
}

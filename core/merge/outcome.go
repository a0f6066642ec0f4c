package merge

// Action is the per-row result of a merge.
type Action string

const (
	// ActionInserted means the row did not exist and was inserted.
	ActionInserted Action = "inserted"
	// ActionUpdated means a row with the same key existed and was updated in place.
	ActionUpdated Action = "updated"
	// ActionUnchanged means the engine did not write the row, e.g. its parent failed.
	ActionUnchanged Action = "unchanged"
	// ActionFailed means the row's batch failed; Err carries the cause.
	ActionFailed Action = "failed"
)

// Outcome is the result for a single input row.
type Outcome struct {
	// Action taken for the row.
	Action Action `json:"action"`

	// Key is the row's resolved key value. Nil for unchanged rows and for failed rows, except
	// a committed row whose key could not be written back (ErrKeyWriteBack).
	Key any `json:"key,omitempty"`

	// Generated is true iff the row was inserted and its key was assigned by the database.
	Generated bool `json:"generated"`

	// Err is set iff Action is ActionFailed.
	Err error `json:"-"`
}

// Succeeded reports whether the row was written.
func (o Outcome) Succeeded() bool {
	return o.Action == ActionInserted || o.Action == ActionUpdated
}

// Counts aggregates outcomes by action.
type Counts struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Total returns the number of rows counted.
func (c Counts) Total() int {
	return c.Inserted + c.Updated + c.Unchanged + c.Failed
}

// Add returns the sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Inserted:  c.Inserted + o.Inserted,
		Updated:   c.Updated + o.Updated,
		Unchanged: c.Unchanged + o.Unchanged,
		Failed:    c.Failed + o.Failed,
	}
}

// CountOutcomes tallies a list of outcomes.
func CountOutcomes(outcomes []Outcome) Counts {
	var c Counts
	for _, o := range outcomes {
		switch o.Action {
		case ActionInserted:
			c.Inserted++
		case ActionUpdated:
			c.Updated++
		case ActionUnchanged:
			c.Unchanged++
		case ActionFailed:
			c.Failed++
		}
	}
	return c
}

package merge

import "time"

// Cascade failure policies.
const (
	// PolicyHalt stops the whole cascade after any failed batch.
	PolicyHalt = "halt"
	// PolicySkip excludes only the children of failed parents.
	PolicySkip = "skip"
)

// Config holds configuration for the merge engine.
type Config struct {
	// MaxBatchSize is the maximum number of rows per statement. Zero derives it from the dialect.
	MaxBatchSize int `mapstructure:"max_batch_size" default:"0"`
	// Parallelism is the number of batches of one level executed concurrently.
	Parallelism int `mapstructure:"parallelism" default:"1"`
	// TimeoutSeconds bounds every batch transaction. Zero disables the timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// CascadePolicy decides what happens to deeper levels after a failed batch (halt, skip).
	CascadePolicy string `mapstructure:"cascade_policy" default:"halt"`
}

// Timeout returns the per-batch timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IsValidPolicy checks if the configured cascade policy is known.
func (c Config) IsValidPolicy() bool {
	switch c.CascadePolicy {
	case PolicyHalt, PolicySkip:
		return true
	default:
		return false
	}
}

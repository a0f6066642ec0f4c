package report

// Config holds configuration for merge result reporting.
type Config struct {
	// Upload enables uploading every result as JSON to the storage bucket.
	Upload bool `mapstructure:"upload" default:"false"`
	// Prefix is the object key prefix for uploaded results.
	Prefix string `mapstructure:"prefix" default:"reports"`
}

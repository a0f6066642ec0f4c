package merge

import "gorm.io/gorm"

// DefaultMaxBatchSize caps the number of rows per statement when no size is configured.
const DefaultMaxBatchSize = 1000

// maxParams is the bind-parameter limit of one statement per gorm dialector name.
var maxParams = map[string]int{
	"mysql":     65535,
	"postgres":  65535,
	"sqlite":    32766,
	"sqlserver": 2100,
}

// conservative limit for dialects we do not know
const fallbackMaxParams = 999

// dialectMaxParams returns the parameter limit of the dialect behind db.
func dialectMaxParams(db *gorm.DB) int {
	if db == nil || db.Dialector == nil {
		return fallbackMaxParams
	}
	if n, ok := maxParams[db.Dialector.Name()]; ok {
		return n
	}
	return fallbackMaxParams
}

// defaultBatchSize derives a batch size that keeps one multi-row insert of columns-wide rows
// under the dialect's parameter limit.
func defaultBatchSize(db *gorm.DB, columns int) int {
	if columns <= 0 {
		columns = 1
	}
	size := dialectMaxParams(db) / columns
	if size > DefaultMaxBatchSize {
		size = DefaultMaxBatchSize
	}
	if size < 1 {
		size = 1
	}
	return size
}

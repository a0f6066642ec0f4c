// Package utils provides small helpers shared across packages, mainly loose type
// conversion of values scanned from different database drivers.
package utils

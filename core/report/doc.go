// Package report hands merge results to their consumers.
//
// A Result carries the scenario name, elapsed time, number of rows and the outcome counts
// of one merge run. Reporters are purely informational: LogReporter writes a structured log
// line, StorageReporter uploads the result as JSON to MinIO/S3, Multi fans out to several.
package report

// Package config provides configuration management for bulkmerge.
//
// It uses Viper to load settings from environment variables and an optional .env file.
// Defaults come from the `default` struct tags of every section, so each key is known to
// Viper before AutomaticEnv resolves it.
//
// # Configuration Structure
//
//   - Server: HTTP port and API key
//   - Database: driver (mysql, postgres, sqlite) and connection details
//   - Storage: S3/MinIO credentials and the report bucket
//   - Log: logging level and format
//   - Merge: batch size, parallelism, batch timeout and cascade failure policy
//   - Report: whether results are uploaded, and under which prefix
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Merge.Parallelism)
package config

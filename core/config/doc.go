// Package config provides configuration management for booru-sync.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from the `default` struct tags of each
// section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Danbooru: API URL, login and API key (DANBOORU_LOGIN, DANBOORU_API_KEY)
//   - Sync: page size, expression cap, rate limit and stale revision policy
//   - Database: sqlite file or MySQL connection details
//   - Storage: S3/MinIO report export
//   - Log: Logging level and format
//   - Metrics: Prometheus textfile path
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	limits := cfg.Sync.Limits()
package config

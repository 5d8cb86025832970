// Package config provides configuration management for the synchronizer.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Log: logging level and format
//   - AWS: home region for API access (credentials come from the default chain)
//   - Sync: reconcile engine tuning (interval, batching, backoff, fan-out width)
//   - Registry: mapping store backend selection (ssm or mysql)
//   - Database: MySQL connection details for the mysql registry backend
//   - Storage: S3/MinIO credentials for the report archive
//   - Report: outcome delivery (SNS topic, archive toggle)
//   - Onboard: sizing policy for newly created prefix lists
//   - Server: ops HTTP server settings for daemon mode
//
// Every field carries a default tag, so a bare environment works out of the
// box and each key can be overridden individually (e.g. SYNC_INTERVAL=1m,
// REGISTRY_BACKEND=mysql).
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.Interval)
package config

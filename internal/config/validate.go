package config

import (
	"fmt"
	"path/filepath"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the configuration and returns a list of validation
// errors. An empty slice indicates the configuration is valid.
func ValidateConfig(config *Config) []error {
	var errs []error
	errs = append(errs, validateEngineConfig(&config.Engine)...)
	errs = append(errs, validateJournalConfig(&config.Journal)...)
	errs = append(errs, validateCacheConfig(&config.Cache)...)
	errs = append(errs, validateLogConfig(&config.Logging)...)
	return errs
}

func validateEngineConfig(cfg *EngineConfig) []error {
	var errs []error
	if cfg.DataDir == "" {
		errs = append(errs, ValidationError{Field: "engine.data_dir", Message: "must not be empty"})
	} else if !filepath.IsAbs(cfg.DataDir) {
		errs = append(errs, ValidationError{Field: "engine.data_dir", Message: "should be an absolute path"})
	}
	return errs
}

func validateJournalConfig(cfg *JournalConfig) []error {
	var errs []error
	switch cfg.FsyncPolicy {
	case "always", "interval", "never":
	default:
		errs = append(errs, ValidationError{
			Field:   "journal.fsync_policy",
			Message: "must be one of always, interval, never",
		})
	}
	if cfg.FsyncPolicy == "interval" && cfg.FsyncInterval <= 0 {
		errs = append(errs, ValidationError{
			Field:   "journal.fsync_interval",
			Message: "must be positive when fsync_policy is interval",
		})
	}
	return errs
}

func validateCacheConfig(cfg *CacheConfig) []error {
	var errs []error
	if cfg.BufferPoolPages < 0 {
		errs = append(errs, ValidationError{Field: "cache.buffer_pool_pages", Message: "must be non-negative"})
	}
	return errs
}

func validateLogConfig(cfg *LogConfig) []error {
	var errs []error
	switch cfg.Level {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, ValidationError{Field: "logging.level", Message: "unrecognized log level"})
	}
	switch cfg.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{Field: "logging.format", Message: "must be text or json"})
	}
	return errs
}

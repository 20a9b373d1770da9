// Package config provides configuration parsing and management for the
// bucket index engine.
package config

import "time"

// Config holds the complete engine configuration.
type Config struct {
	Engine  EngineConfig  `ini:"engine"`
	Journal JournalConfig `ini:"journal"`
	Cache   CacheConfig   `ini:"cache"`
	Logging LogConfig     `ini:"logging"`
}

// EngineConfig holds on-disk layout and access-mode settings.
type EngineConfig struct {
	DataDir    string `ini:"data_dir"`
	JournalDir string `ini:"journal_dir"`
	ReadOnly   bool   `ini:"read_only"`
}

// JournalConfig controls the before-image journal used for crash recovery.
type JournalConfig struct {
	// FsyncPolicy is one of "always" (fsync every commit), "interval"
	// (fsync on FsyncInterval), or "never" (rely on OS buffering only).
	FsyncPolicy   string        `ini:"fsync_policy"`
	FsyncInterval time.Duration `ini:"fsync_interval"`
	RecoverOnOpen bool          `ini:"recover_on_open"`
}

// CacheConfig controls the pager's in-memory bucket cache.
type CacheConfig struct {
	BufferPoolPages int `ini:"buffer_pool_pages"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `ini:"level"`
	Format string `ini:"format"`
	Output string `ini:"output"`
}

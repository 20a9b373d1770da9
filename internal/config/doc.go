// Package config provides configuration parsing and management for the
// bucket index engine.
//
// # Overview
//
// The config package handles loading, parsing, and validating engine
// configuration from INI files via gopkg.in/ini.v1, environment variable
// overrides, and default values for anything a file omits.
//
// # Configuration Structure
//
//	type Config struct {
//	    Engine  EngineConfig  // on-disk layout, read-only mode
//	    Journal JournalConfig // fsync policy for the before-image journal
//	    Cache   CacheConfig   // buffer pool sizing
//	    Logging LogConfig     // log level, format, output
//	}
//
// # Loading Configuration
//
//	cfg, err := config.LoadConfig("/etc/bucketidx/bucketidx.ini")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Or start from defaults:
//
//	cfg := config.DefaultConfig()
//
// # Environment Variables
//
// Values inside the INI file may reference environment variables with
// ${VAR} or ${VAR:-default} before the file is parsed:
//
//	[engine]
//	data_dir = ${BUCKETIDX_DATA_DIR:-/var/lib/bucketidx}
//
// # Example Configuration
//
//	[engine]
//	data_dir = /var/lib/bucketidx
//	journal_dir = /var/lib/bucketidx/journal
//	read_only = false
//
//	[journal]
//	fsync_policy = always
//	recover_on_open = true
//
//	[cache]
//	buffer_pool_pages = 1024
//
//	[logging]
//	level = info
//	format = json
//	output = stdout
package config

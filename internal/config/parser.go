package config

import (
	"errors"
	"os"
	"regexp"
	"strings"

	"gopkg.in/ini.v1"
)

// Parser errors.
var (
	ErrFileNotFound      = errors.New("configuration file not found")
	ErrMissingConfigFile = errors.New("config file path is required")
	ErrMissingOnChange   = errors.New("onChange callback is required")
)

// LoadConfig loads configuration from an INI file path, the way
// conf.Cfg.Load reads my.ini into a *conf.Cfg.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig parses configuration from INI data, substituting environment
// variables first and filling in defaults for anything the file omits.
func ParseConfig(data []byte) (*Config, error) {
	data = substituteEnvVars(data)

	config := DefaultConfig()

	raw, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	if sec, err := raw.GetSection("engine"); err == nil {
		parseEngineSection(sec, &config.Engine)
	}
	if sec, err := raw.GetSection("journal"); err == nil {
		if err := parseJournalSection(sec, &config.Journal); err != nil {
			return nil, err
		}
	}
	if sec, err := raw.GetSection("cache"); err == nil {
		config.Cache.BufferPoolPages = sec.Key("buffer_pool_pages").MustInt(config.Cache.BufferPoolPages)
	}
	if sec, err := raw.GetSection("logging"); err == nil {
		parseLoggingSection(sec, &config.Logging)
	}

	return config, nil
}

func parseEngineSection(sec *ini.Section, cfg *EngineConfig) {
	cfg.DataDir = sec.Key("data_dir").MustString(cfg.DataDir)
	cfg.JournalDir = sec.Key("journal_dir").MustString(cfg.JournalDir)
	cfg.ReadOnly = sec.Key("read_only").MustBool(cfg.ReadOnly)
}

func parseJournalSection(sec *ini.Section, cfg *JournalConfig) error {
	cfg.FsyncPolicy = sec.Key("fsync_policy").MustString(cfg.FsyncPolicy)
	cfg.RecoverOnOpen = sec.Key("recover_on_open").MustBool(cfg.RecoverOnOpen)
	if key := sec.Key("fsync_interval"); key.String() != "" {
		d, err := key.Duration()
		if err != nil {
			return err
		}
		cfg.FsyncInterval = d
	}
	return nil
}

func parseLoggingSection(sec *ini.Section, cfg *LogConfig) {
	cfg.Level = sec.Key("level").MustString(cfg.Level)
	cfg.Format = sec.Key("format").MustString(cfg.Format)
	cfg.Output = sec.Key("output").MustString(cfg.Output)
}

// substituteEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment variable values before the INI parser ever sees the bytes.
func substituteEnvVars(data []byte) []byte {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllFunc(data, func(match []byte) []byte {
		content := string(match[2 : len(match)-1])
		if idx := strings.Index(content, ":-"); idx != -1 {
			varName := content[:idx]
			defaultVal := content[idx+2:]
			if val := os.Getenv(varName); val != "" {
				return []byte(val)
			}
			return []byte(defaultVal)
		}
		return []byte(os.Getenv(content))
	})
}

package config

import "sync"

// ConfigManager manages runtime configuration with hot reload support.
type ConfigManager struct {
	config     *Config
	configFile string
	mu         sync.RWMutex
	onUpdate   func(old, new *Config)
}

// NewConfigManager creates a new config manager.
func NewConfigManager(cfg *Config, configFile string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configFile: configFile,
	}
}

// SetOnUpdate sets the callback for config updates.
func (m *ConfigManager) SetOnUpdate(fn func(old, new *Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// GetConfig returns the current config.
func (m *ConfigManager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetConfigFile returns the config file path.
func (m *ConfigManager) GetConfigFile() string {
	return m.configFile
}

// Reload re-reads the config file, validates the result, and swaps it in if
// valid, invoking the onUpdate callback with the old and new config.
func (m *ConfigManager) Reload() error {
	newConfig, err := LoadConfig(m.configFile)
	if err != nil {
		return err
	}
	if errs := ValidateConfig(newConfig); len(errs) > 0 {
		return errs[0]
	}

	m.mu.Lock()
	old := m.config
	m.config = newConfig
	cb := m.onUpdate
	m.mu.Unlock()

	if cb != nil {
		cb(old, newConfig)
	}
	return nil
}

// ConfigJSON represents config in JSON format, for diagnostic endpoints.
type ConfigJSON struct {
	Engine  EngineConfigJSON  `json:"engine"`
	Journal JournalConfigJSON `json:"journal"`
	Cache   CacheConfigJSON   `json:"cache"`
	Logging LogConfigJSON     `json:"logging"`
}

// EngineConfigJSON represents engine config in JSON.
type EngineConfigJSON struct {
	DataDir    string `json:"dataDir"`
	JournalDir string `json:"journalDir"`
	ReadOnly   bool   `json:"readOnly"`
}

// JournalConfigJSON represents journal config in JSON.
type JournalConfigJSON struct {
	FsyncPolicy   string `json:"fsyncPolicy"`
	FsyncInterval string `json:"fsyncInterval"`
	RecoverOnOpen bool   `json:"recoverOnOpen"`
}

// CacheConfigJSON represents cache config in JSON.
type CacheConfigJSON struct {
	BufferPoolPages int `json:"bufferPoolPages"`
}

// LogConfigJSON represents logging config in JSON.
type LogConfigJSON struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Output string `json:"output"`
}

// ToJSON converts Config to its JSON representation; no field is masked.
func (c *Config) ToJSON() ConfigJSON {
	return ConfigJSON{
		Engine: EngineConfigJSON{
			DataDir:    c.Engine.DataDir,
			JournalDir: c.Engine.JournalDir,
			ReadOnly:   c.Engine.ReadOnly,
		},
		Journal: JournalConfigJSON{
			FsyncPolicy:   c.Journal.FsyncPolicy,
			FsyncInterval: c.Journal.FsyncInterval.String(),
			RecoverOnOpen: c.Journal.RecoverOnOpen,
		},
		Cache: CacheConfigJSON{
			BufferPoolPages: c.Cache.BufferPoolPages,
		},
		Logging: LogConfigJSON{
			Level:  c.Logging.Level,
			Format: c.Logging.Format,
			Output: c.Logging.Output,
		},
	}
}

package config

// ConfigBuilder assembles a Config programmatically, mainly for tests.
type ConfigBuilder struct {
	cfg Config
}

// NewConfigBuilder starts from the built-in defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: Config{
			Store: StoreConfig{Dir: "./data", Database: "shelf", Version: 1},
			HTTP:  HTTPConfig{Port: "8080"},
			Log:   LogConfig{Level: "info"},
		},
	}
}

func (b *ConfigBuilder) WithStoreDir(dir string) *ConfigBuilder {
	b.cfg.Store.Dir = dir
	return b
}

func (b *ConfigBuilder) WithDatabase(name string) *ConfigBuilder {
	b.cfg.Store.Database = name
	return b
}

func (b *ConfigBuilder) WithVersion(version uint64) *ConfigBuilder {
	b.cfg.Store.Version = version
	return b
}

func (b *ConfigBuilder) WithPort(port string) *ConfigBuilder {
	b.cfg.HTTP.Port = port
	return b
}

func (b *ConfigBuilder) WithLogLevel(level string) *ConfigBuilder {
	b.cfg.Log.Level = level
	return b
}

// Build validates and returns the configuration.
func (b *ConfigBuilder) Build() (*Config, error) {
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

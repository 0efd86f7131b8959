package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4241,
			Host: "localhost",
		},
		API: APIConfig{
			URL:     "http://localhost:3000",
			Timeout: "10s",
		},
		Search: SearchConfig{
			DebounceMS: 300,
		},
		Session: SessionConfig{
			IdleTimeout: "30m",
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/fund-portal",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console"},
			FilePath:   "logs/fund-portal.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

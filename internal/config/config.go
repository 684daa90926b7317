package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings. Values come from an optional YAML file,
// with KINDLING_* environment variables taking precedence.
type Config struct {
	Port     string `yaml:"port"`
	DBPath   string `yaml:"db_path"`
	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Port:     "8080",
		DBPath:   "kindling.db",
		LogLevel: "info",
	}
}

// Load reads the config file at path if it exists, then applies environment
// overrides. A missing file is not an error; defaults stand in.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("KINDLING_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("KINDLING_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("KINDLING_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

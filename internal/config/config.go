package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SettingsStore selects the key-value backend the CLI persists its
// settings in.
type SettingsStore struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Config struct {
	SettingsStore SettingsStore `yaml:"settingsStore"`
}

// Default is used when no config file is present: a SQLite settings store
// in the current working directory.
func Default() *Config {
	return &Config{
		SettingsStore: SettingsStore{
			Type:             "sqlite",
			ConnectionString: "catalogadmin.db",
		},
	}
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := validateSettingsStore(config.SettingsStore); err != nil {
		return nil, fmt.Errorf("invalid settings store configuration: %w", err)
	}

	return &config, nil
}

func validateSettingsStore(store SettingsStore) error {
	switch store.Type {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unsupported settings store type: %q", store.Type)
	}
	if store.ConnectionString == "" {
		return fmt.Errorf("settings store connection string is empty")
	}
	return nil
}

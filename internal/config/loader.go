package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir

const (
	systemConfigPath = "/etc/chainmon/config.yaml"
	userConfigDir    = ".config/chainmon"
	configFileName   = "config.yaml"
)

// LoadConfig loads the chainmon configuration by layering default, system,
// user, and (optionally) an explicitly given file. explicitPath may be empty.
// The merged configuration is validated before being returned.
func LoadConfig(explicitPath string) (Config, error) {
	config := GetDefaultConfig()

	if _, err := os.Stat(systemConfigPath); !os.IsNotExist(err) {
		systemConfig, err := loadConfigFromFile(systemConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("error loading system config from %s: %w", systemConfigPath, err)
		}
		config = mergeConfigs(config, systemConfig)
	}

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional; note the problem and continue.
		fmt.Fprintf(os.Stderr, "Warning: could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	if explicitPath != "" {
		explicitConfig, err := loadConfigFromFile(explicitPath)
		if err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
		config = mergeConfigs(config, explicitConfig)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir() // Use mockable variable
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Scalar settings
// are overridden when set in the overlay; the node list is replaced
// wholesale so a file fully controls the display order.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if overlay.TickRate != 0 {
		merged.TickRate = overlay.TickRate
	}
	if overlay.Rotation.SwitchInterval != 0 {
		merged.Rotation.SwitchInterval = overlay.Rotation.SwitchInterval
	}
	if overlay.Price.Currency != "" {
		merged.Price.Currency = overlay.Price.Currency
	}
	if overlay.Price.Enabled != nil {
		merged.Price.Enabled = overlay.Price.Enabled
	}
	if overlay.Fees.Enabled != nil {
		merged.Fees.Enabled = overlay.Fees.Enabled
	}
	if overlay.Fees.Endpoint != "" {
		merged.Fees.Endpoint = overlay.Fees.Endpoint
	}
	if len(overlay.Nodes) > 0 {
		merged.Nodes = overlay.Nodes
	}

	return merged
}

// GetUserConfigDir returns the user configuration directory path.
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

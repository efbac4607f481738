package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultDatabase  = "share-anything.db"
	DefaultNamespace = "share-anything"
	DefaultPort      = 3000
)

// TomlServer represents HTTP server configuration from TOML
type TomlServer struct {
	Hostname     string `toml:"hostname"`
	Port         int    `toml:"port"`
	AllowOrigins string `toml:"allow_origins,omitempty"`
}

// TomlStorage represents the persistent namespace configuration
type TomlStorage struct {
	Database  string `toml:"database"`
	Namespace string `toml:"namespace"`
	Ephemeral bool   `toml:"ephemeral,omitempty"` // Keep posts in memory only
}

// TomlRouter represents router configuration
type TomlRouter struct {
	InitialFragment string `toml:"initial_fragment,omitempty"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Server  TomlServer  `toml:"server"`
	Storage TomlStorage `toml:"storage"`
	Router  TomlRouter  `toml:"router"`
}

// Default returns the configuration used when no file is given
func Default() TomlConfig {
	return TomlConfig{
		Server: TomlServer{
			Hostname: "localhost",
			Port:     DefaultPort,
		},
		Storage: TomlStorage{
			Database:  DefaultDatabase,
			Namespace: DefaultNamespace,
		},
	}
}

// LoadConfig reads the TOML file at path on top of the defaults
func LoadConfig(path string) (*TomlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

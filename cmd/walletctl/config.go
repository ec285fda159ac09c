// ABOUTME: config.go provides configuration file management for walletctl.
// ABOUTME: Supports loading, saving, and auto-initialization with environment variable overrides.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/demos-labs/walletkit/demos"
)

// Config represents the walletctl configuration.
type Config struct {
	Network  string `json:"network"` // mainnet or testnet
	RPC      string `json:"rpc,omitempty"`
	Registry string `json:"registry,omitempty"`
	DB       string `json:"db"`
	DeviceID string `json:"device_id"`
}

// ConfigPath is a function that returns the path to the walletctl config
// file. It can be overridden in tests.
var ConfigPath = func() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".walletkit", "config.json")
	}
	return filepath.Join(home, ".walletkit", "config.json")
}

// ConfigDir returns the directory containing the config file.
func ConfigDir() string {
	return filepath.Dir(ConfigPath())
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir := ConfigDir()

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			backup := dir + ".backup." + time.Now().Format("20060102-150405")
			if err := os.Rename(dir, backup); err != nil {
				return fmt.Errorf("config path %s is a file, failed to backup: %w", dir, err)
			}
			fmt.Fprintf(os.Stderr, "Warning: %s was a file, backed up to %s\n", dir, backup)
		} else {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("check config dir: %w", err)
	}

	return os.MkdirAll(dir, 0o750)
}

// LoadConfig loads config from file and applies environment variable
// overrides. Returns default config if the file doesn't exist.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	configPath := ConfigPath()

	info, statErr := os.Stat(configPath)
	if statErr == nil && info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory, not a file\nRun 'walletctl init' to fix this", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			// Corrupted config is backed up, never silently overwritten.
			backup := configPath + ".corrupt." + time.Now().Format("20060102-150405")
			if renameErr := os.Rename(configPath, backup); renameErr == nil {
				fmt.Fprintf(os.Stderr, "Warning: corrupted config backed up to %s\n", backup)
			}
			return nil, fmt.Errorf("config file corrupted: %w\nRun 'walletctl init' to create a new config", jsonErr)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.DB == "" {
		cfg.DB = filepath.Join(ConfigDir(), "wallet.db")
	}
	if cfg.Network == "" {
		cfg.Network = string(demos.Testnet)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Network: string(demos.Testnet),
		DB:      filepath.Join(ConfigDir(), "wallet.db"),
	}
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if network := os.Getenv("WALLETKIT_NETWORK"); network != "" {
		cfg.Network = network
	}
	if rpc := os.Getenv("WALLETKIT_RPC"); rpc != "" {
		cfg.RPC = rpc
	}
	if registry := os.Getenv("WALLETKIT_REGISTRY"); registry != "" {
		cfg.Registry = registry
	}
	if db := os.Getenv("WALLETKIT_DB"); db != "" {
		cfg.DB = expandPath(db)
	}
}

// SaveConfig writes config to file.
func SaveConfig(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// InitConfig creates a new config with a fresh device ID.
func InitConfig() (*Config, error) {
	cfg := defaultConfig()
	cfg.DeviceID = ulid.Make().String()

	if err := SaveConfig(cfg); err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Config created at %s\n", ConfigPath())
	fmt.Fprintf(os.Stderr, "Device ID: %s\n", cfg.DeviceID)
	fmt.Fprintf(os.Stderr, "\nNext: Run 'walletctl generate' to create a wallet\n")

	return cfg, nil
}

// ConfigExists returns true if config file exists.
func ConfigExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// RPCURL returns the node endpoint, falling back to the network default.
func (c *Config) RPCURL() string {
	if c.RPC != "" {
		return c.RPC
	}
	return demos.ConfigFor(demos.Network(c.Network)).RPCURL
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

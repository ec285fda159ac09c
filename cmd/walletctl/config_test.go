package main

import (
	"os"
	"path/filepath"
	"testing"
)

func withTempConfig(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	original := ConfigPath
	ConfigPath = func() string {
		return filepath.Join(tmpDir, ".walletkit", "config.json")
	}
	t.Cleanup(func() { ConfigPath = original })
	return tmpDir
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if path == "" {
		t.Fatal("ConfigPath returned empty string")
	}
	if !filepath.IsAbs(path) {
		t.Errorf("ConfigPath returned relative path: %s", path)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	withTempConfig(t)

	if err := EnsureConfigDir(); err != nil {
		t.Fatalf("EnsureConfigDir failed: %v", err)
	}
	if _, err := os.Stat(ConfigDir()); os.IsNotExist(err) {
		t.Errorf("Config directory not created: %s", ConfigDir())
	}
}

func TestLoadConfig_NotExists(t *testing.T) {
	withTempConfig(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed when file doesn't exist: %v", err)
	}
	if cfg.DB == "" {
		t.Error("Default DB path not set")
	}
	if cfg.Network != "testnet" {
		t.Errorf("Default network = %q, want testnet", cfg.Network)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	withTempConfig(t)

	t.Setenv("WALLETKIT_NETWORK", "mainnet")
	t.Setenv("WALLETKIT_RPC", "https://rpc.example.com")
	t.Setenv("WALLETKIT_DB", "/tmp/custom.db")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Network != "mainnet" {
		t.Errorf("Network = %q", cfg.Network)
	}
	if cfg.RPC != "https://rpc.example.com" {
		t.Errorf("RPC = %q", cfg.RPC)
	}
	if cfg.DB != "/tmp/custom.db" {
		t.Errorf("DB = %q", cfg.DB)
	}
	if cfg.RPCURL() != "https://rpc.example.com" {
		t.Errorf("RPCURL = %q", cfg.RPCURL())
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	withTempConfig(t)

	want := &Config{
		Network:  "testnet",
		RPC:      "https://node.local",
		DB:       "/data/wallet.db",
		DeviceID: "01J0TESTDEVICE",
	}
	if err := SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if !ConfigExists() {
		t.Fatal("ConfigExists should be true after save")
	}

	got, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.RPC != want.RPC || got.DeviceID != want.DeviceID {
		t.Errorf("loaded %+v, want %+v", got, want)
	}
}

func TestLoadConfig_CorruptedBacksUp(t *testing.T) {
	withTempConfig(t)

	if err := EnsureConfigDir(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig should fail on corrupted config")
	}
	// Original file was moved aside, not deleted.
	matches, _ := filepath.Glob(ConfigPath() + ".corrupt.*")
	if len(matches) != 1 {
		t.Errorf("expected one backup file, got %v", matches)
	}
}

func TestInitConfigGeneratesDeviceID(t *testing.T) {
	withTempConfig(t)

	cfg, err := InitConfig()
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if cfg.DeviceID == "" {
		t.Error("InitConfig should generate a device ID")
	}
	if len(cfg.DeviceID) != 26 {
		t.Errorf("device ID %q is not a ULID", cfg.DeviceID)
	}
}

func TestRPCURLFallsBackToNetworkDefault(t *testing.T) {
	cfg := &Config{Network: "testnet"}
	if got := cfg.RPCURL(); got != "https://testnet-rpc.demos.network" {
		t.Errorf("RPCURL = %q", got)
	}
}

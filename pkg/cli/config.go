// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultRegistry is the registry used when neither the config file
// nor the --registry flag names one.
const DefaultRegistry = "https://clawdhub.com"

// UserConfig is the per-user CLI configuration stored at
// ~/.clawdhub/config.json (or CLAWDHUB_CONFIG_PATH).
type UserConfig struct {
	Registry string `json:"registry,omitempty"`
	Token    string `json:"token,omitempty"`
}

func configPath() (string, error) {
	if p := os.Getenv("CLAWDHUB_CONFIG_PATH"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".clawdhub", "config.json"), nil
}

// LoadUserConfig reads the user config. A missing file yields an
// empty config, not an error.
func LoadUserConfig() (*UserConfig, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveUserConfig writes the user config, creating the directory as needed
func SaveUserConfig(cfg *UserConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

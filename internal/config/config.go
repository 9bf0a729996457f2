// Package config loads the authority's startup configuration: its YAML
// settings file and its JSON pre-trusted identities file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AuthorityConfig is the configuration for the authority-core process.
type AuthorityConfig struct {
	Database           string `yaml:"database"`
	IdentityPath       string `yaml:"identity_path"`
	PreTrustedPath     string `yaml:"pre_trusted_identities_path"`
	CredentialValidity string `yaml:"credential_validity"`
	LogLevel           string `yaml:"log_level"`
}

// DefaultAuthorityConfig returns a config with sensible defaults.
func DefaultAuthorityConfig() *AuthorityConfig {
	return &AuthorityConfig{
		Database:           "/var/lib/authority-core/authority.db",
		IdentityPath:       "/etc/authority-core/identity.key",
		CredentialValidity: "720h",
		LogLevel:           "info",
	}
}

// LoadAuthorityConfig loads config from a YAML file, overlaying it on the
// defaults.
func LoadAuthorityConfig(path string) (*AuthorityConfig, error) {
	cfg := DefaultAuthorityConfig()
	if err := loadYAML(path, cfg); err != nil {
		return nil, fmt.Errorf("load authority config: %w", err)
	}
	return cfg, nil
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

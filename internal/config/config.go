// Package config loads the optional songline.yaml project configuration
// found at the data root.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConnectionConfig is the connection block of songline.yaml.
type ConnectionConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Username           string `yaml:"username"`
	Database           string `yaml:"database"`
	ManagementDatabase string `yaml:"management_database,omitempty"`
	SSLMode            string `yaml:"sslmode"`
	AuthMethod         string `yaml:"auth_method,omitempty"` // "", "azure", "aws", "google"
	AzureTenantID      string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID      string `yaml:"azure_client_id,omitempty"`
	AWSRegion          string `yaml:"aws_region,omitempty"`
	GoogleInstance     string `yaml:"google_instance,omitempty"`
}

// DataConfig is the data block of songline.yaml: where the datasets live
// relative to the data root.
type DataConfig struct {
	SongSubdir string `yaml:"song_data,omitempty"`
	LogSubdir  string `yaml:"log_data,omitempty"`
}

// ProjectConfig is the root of songline.yaml.
type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Data       DataConfig       `yaml:"data"`
	Timeout    string           `yaml:"timeout"`
}

const ConfigFileName = "songline.yaml"

// Load reads songline.yaml from dataPath. Returns ErrConfigNotFound when the
// file is absent; a missing config is not an error for callers that treat it
// as optional.
func Load(dataPath string) (*ProjectConfig, error) {
	configPath := filepath.Join(dataPath, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg as songline.yaml under dataPath, replacing any existing
// file.
func Save(dataPath string, cfg *ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ConfigFileName, err)
	}
	return os.WriteFile(filepath.Join(dataPath, ConfigFileName), data, 0644)
}

func (c *ProjectConfig) validate() error {
	switch c.Connection.AuthMethod {
	case "", "azure", "aws", "google":
	default:
		return fmt.Errorf("invalid auth_method %q: must be azure, aws or google", c.Connection.AuthMethod)
	}
	if c.Connection.Port < 0 || c.Connection.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Connection.Port)
	}
	return nil
}

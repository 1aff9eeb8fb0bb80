// Package config loads the trainerd configuration file. Trainer instances
// are declared by name, each with a backend type selector and a free-form
// backend config mapping:
//
//	trainers:
//	  <instance name>:
//	    type: <backend type>
//	    config:
//	      <option>: <value>
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the trainerd server.
type Config struct {
	Server   ServerConfig             `yaml:"server"`
	Database DatabaseConfig           `yaml:"database"`
	Storage  StorageConfig            `yaml:"storage"`
	Trainers map[string]TrainerConfig `yaml:"trainers"`
}

// ServerConfig holds the HTTP server settings. AuthHeader names the trusted
// identity header set by the auth proxy; empty disables per-user scoping.
type ServerConfig struct {
	Port       string `yaml:"port"`
	AuthHeader string `yaml:"authHeader"`
}

// DatabaseConfig holds the training-record database settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig holds the artifact object-store settings.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
}

// TrainerConfig declares one trainer instance: which backend implements it
// and the backend-specific options passed to its factory.
type TrainerConfig struct {
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = getEnvOrDefault("PORT", "8080")
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}

	for name, tc := range cfg.Trainers {
		if tc.Type == "" {
			return nil, fmt.Errorf("trainer %q is missing a type", name)
		}
	}

	return cfg, nil
}

// Decode maps a free-form trainer config mapping onto a backend's typed
// options struct, via a yaml round trip so the struct tags stay the single
// source of field names.
func Decode(in map[string]any, out any) error {
	if len(in) == 0 {
		return nil
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to re-encode config: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slok/apkjob/internal/model"
)

// ConfigYAMLRepository loads the client configuration from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads the client configuration from a YAML file and returns a validated domain model.
// Missing fields are filled with the defaults.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string) (model.ClientConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.ClientConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.ClientConfig{}, ctx.Err()
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.ClientConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	m, err := cfg.toModel()
	if err != nil {
		return model.ClientConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := m.Validate(); err != nil {
		return model.ClientConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return m, nil
}

// ClientConfig represents the YAML structure for the client configuration.
type ClientConfig struct {
	ServerURL    string     `yaml:"server_url"`
	PollInterval string     `yaml:"poll_interval"`
	OptionsDelay string     `yaml:"options_delay"`
	RateLimit    float64    `yaml:"rate_limit"`
	Modes        []string   `yaml:"modes"`
	Form         FormConfig `yaml:"form"`
}

// FormConfig represents the YAML structure for the default form values.
type FormConfig struct {
	Mode          string `yaml:"mode"`
	LibName       string `yaml:"lib_name"`
	CustomOptions string `yaml:"custom_options"`
	BotToken      string `yaml:"bot_token"`
	ChatID        string `yaml:"chat_id"`
	UploadServer  string `yaml:"upload_server"`
}

func (c ClientConfig) toModel() (model.ClientConfig, error) {
	cfg := model.DefaultClientConfig()

	if c.ServerURL != "" {
		cfg.ServerURL = c.ServerURL
	}

	if c.PollInterval != "" {
		d, err := time.ParseDuration(c.PollInterval)
		if err != nil {
			return model.ClientConfig{}, fmt.Errorf("poll_interval: %w", err)
		}
		cfg.PollInterval = d
	}

	if c.OptionsDelay != "" {
		d, err := time.ParseDuration(c.OptionsDelay)
		if err != nil {
			return model.ClientConfig{}, fmt.Errorf("options_delay: %w", err)
		}
		cfg.OptionsDelay = d
	}

	cfg.RateLimit = c.RateLimit
	cfg.Modes = c.Modes

	// An explicit modes list without default mode selects the first one.
	if c.Form.Mode != "" {
		cfg.Form.Mode = c.Form.Mode
	} else if len(c.Modes) > 0 {
		cfg.Form.Mode = c.Modes[0]
	}
	if c.Form.LibName != "" {
		cfg.Form.LibName = c.Form.LibName
	}
	cfg.Form.CustomOptions = c.Form.CustomOptions
	cfg.Form.BotToken = c.Form.BotToken
	cfg.Form.ChatID = c.Form.ChatID
	cfg.Form.UploadServer = c.Form.UploadServer

	return cfg, nil
}

package model

import (
	"fmt"
	"time"
)

const (
	// DefaultServerURL is the job server used when none is configured.
	DefaultServerURL = "http://127.0.0.1:5000"
	// DefaultPollInterval is the time between job status checks.
	DefaultPollInterval = 3 * time.Second
	// DefaultOptionsDelay is the wait between a file selection and the options screen.
	DefaultOptionsDelay = 500 * time.Millisecond
)

// ClientConfig is the client configuration.
type ClientConfig struct {
	ServerURL    string
	PollInterval time.Duration
	OptionsDelay time.Duration
	// Modes are the modes accepted by the server, empty accepts any.
	Modes []string
	// Form has the default form values used on new sessions and resets.
	Form FormOptions
	// RateLimit is the max requests per second sent to the server, zero disables it.
	RateLimit float64
}

// DefaultClientConfig returns the configuration used when nothing is configured.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ServerURL:    DefaultServerURL,
		PollInterval: DefaultPollInterval,
		OptionsDelay: DefaultOptionsDelay,
		Form:         DefaultFormOptions(),
	}
}

// Validate checks the configuration is usable.
func (c ClientConfig) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server url is required: %w", ErrNotValid)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive: %w", ErrNotValid)
	}
	if c.OptionsDelay < 0 {
		return fmt.Errorf("options delay can't be negative: %w", ErrNotValid)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit can't be negative: %w", ErrNotValid)
	}
	if err := c.Form.ValidateMode(c.Modes); err != nil {
		return fmt.Errorf("default form: %w", err)
	}
	return nil
}

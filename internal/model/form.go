package model

import (
	"fmt"
	"slices"
)

const (
	// DefaultMode is the mode selected when nothing else has been configured.
	DefaultMode = "standard"
	// DefaultLibName is the library name used when the user leaves it blank.
	DefaultLibName = "libxx.so"
)

// FormOptions are the submission options sent along the APK.
type FormOptions struct {
	Mode          string
	LibName       string
	CustomOptions string
	BotToken      string
	ChatID        string
	UploadServer  string
}

// DefaultFormOptions returns the form as it is on a fresh session.
func DefaultFormOptions() FormOptions {
	return FormOptions{
		Mode:    DefaultMode,
		LibName: DefaultLibName,
	}
}

// WithDefaults returns a copy of the options with blank values replaced by the wire defaults.
func (f FormOptions) WithDefaults() FormOptions {
	if f.LibName == "" {
		f.LibName = DefaultLibName
	}
	return f
}

// ValidateMode checks the mode is one of the allowed ones. An empty allowed
// list accepts any non empty mode.
func (f FormOptions) ValidateMode(allowed []string) error {
	if f.Mode == "" {
		return fmt.Errorf("mode is required: %w", ErrNotValid)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, f.Mode) {
		return fmt.Errorf("mode %q is not one of %v: %w", f.Mode, allowed, ErrNotValid)
	}
	return nil
}

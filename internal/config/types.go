// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
)

const (
	// BackendHost runs build commands directly on the host.
	BackendHost Backend = "host"
	// BackendSandbox runs build commands under rattler-sandbox.
	BackendSandbox Backend = "sandbox"
	// BackendContainer runs build commands in a container.
	BackendContainer Backend = "container"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidBackend is returned when a Backend value is not recognized.
	ErrInvalidBackend = errors.New("invalid runner backend")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Backend names the execution backend.
	Backend string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidValueError reports an enum field holding an unknown value.
	InvalidValueError struct {
		Field    string
		Value    string
		Sentinel error
	}

	// InvalidConfigError aggregates field errors found by Config.IsValid.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the root configuration.
	Config struct {
		Runner RunnerConfig `json:"runner" mapstructure:"runner"`
		UI     UIConfig     `json:"ui" mapstructure:"ui"`

		// Source is the file the configuration was read from, empty for defaults.
		Source string `json:"-" mapstructure:"-"`
	}

	// RunnerConfig selects and configures the execution backend.
	RunnerConfig struct {
		Backend   Backend         `json:"backend" mapstructure:"backend"`
		Sandbox   SandboxConfig   `json:"sandbox" mapstructure:"sandbox"`
		Container ContainerConfig `json:"container" mapstructure:"container"`
	}

	// SandboxConfig configures the rattler-sandbox policy.
	SandboxConfig struct {
		AllowNetwork      bool     `json:"allow_network" mapstructure:"allow_network"`
		Read              []string `json:"read" mapstructure:"read"`
		ReadExecute       []string `json:"read_execute" mapstructure:"read_execute"`
		ReadWrite         []string `json:"read_write" mapstructure:"read_write"`
		OverwriteDefaults bool     `json:"overwrite_defaults" mapstructure:"overwrite_defaults"`
		PolicyFile        string   `json:"policy_file" mapstructure:"policy_file"`
	}

	// ContainerConfig configures the container backend.
	ContainerConfig struct {
		Engine       string   `json:"engine" mapstructure:"engine"`
		Image        string   `json:"image" mapstructure:"image"`
		AllowNetwork bool     `json:"allow_network" mapstructure:"allow_network"`
		Mounts       []string `json:"mounts" mapstructure:"mounts"`
	}

	// UIConfig contains UI-related settings.
	UIConfig struct {
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Runner: RunnerConfig{
			Backend:   BackendHost,
			Container: ContainerConfig{Engine: "docker"},
		},
		UI: UIConfig{ColorScheme: ColorSchemeAuto},
	}
}

// IsValid reports whether b is a known backend.
func (b Backend) IsValid() (bool, []error) {
	switch b {
	case BackendHost, BackendSandbox, BackendContainer:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Field: "runner.backend", Value: string(b), Sentinel: ErrInvalidBackend}}
	}
}

// IsValid reports whether s is a known color scheme. Empty means auto.
func (s ColorScheme) IsValid() (bool, []error) {
	switch s {
	case "", ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidValueError{Field: "ui.color_scheme", Value: string(s), Sentinel: ErrInvalidColorScheme}}
	}
}

// GlamourStyle returns the glamour style matching the scheme.
func (s ColorScheme) GlamourStyle() string {
	switch s {
	case ColorSchemeDark:
		return "dark"
	case ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

// IsValid checks the enum fields that viper environment overrides can bypass the schema for.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Runner.Backend.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %v %q", e.Field, e.Sentinel, e.Value)
}

// Unwrap returns the sentinel for errors.Is() compatibility.
func (e *InvalidValueError) Unwrap() error { return e.Sentinel }

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap exposes ErrInvalidConfig and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

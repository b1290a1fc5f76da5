// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/condarun/condarun/internal/issue"
	"github.com/condarun/condarun/pkg/cueutil"
	"github.com/condarun/condarun/pkg/platform"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "condarun"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment variable overrides.
	EnvPrefix = "CONDARUN"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the condarun configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("runner.backend", defaults.Runner.Backend)
	v.SetDefault("runner.sandbox.allow_network", defaults.Runner.Sandbox.AllowNetwork)
	v.SetDefault("runner.sandbox.read", defaults.Runner.Sandbox.Read)
	v.SetDefault("runner.sandbox.read_execute", defaults.Runner.Sandbox.ReadExecute)
	v.SetDefault("runner.sandbox.read_write", defaults.Runner.Sandbox.ReadWrite)
	v.SetDefault("runner.sandbox.overwrite_defaults", defaults.Runner.Sandbox.OverwriteDefaults)
	v.SetDefault("runner.sandbox.policy_file", defaults.Runner.Sandbox.PolicyFile)
	v.SetDefault("runner.container.engine", defaults.Runner.Container.Engine)
	v.SetDefault("runner.container.image", defaults.Runner.Container.Image)
	v.SetDefault("runner.container.allow_network", defaults.Runner.Container.AllowNetwork)
	v.SetDefault("runner.container.mounts", defaults.Runner.Container.Mounts)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Use 'condarun config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Source = resolvedPath

	if valid, errs := cfg.IsValid(); !valid {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check CONDARUN_* environment variables for typos").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

// resolveConfigPath returns the file to load, or "" when defaults apply.
// An explicit ConfigFilePath must exist; otherwise the config directory is
// tried before the current directory.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		cfgDir = dir
	}

	for _, candidate := range []string{
		filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
		ConfigFileName + "." + ConfigFileExt,
	} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Concrete(false) is used because every config field is optional, and the
// result is decoded into a map so Viper defaults and env overrides still apply.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// Save writes cfg as config.cue into dir, creating dir if needed.
func Save(cfg *Config, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// condarun configuration file\n\n")

	sb.WriteString("runner: {\n")
	fmt.Fprintf(&sb, "\tbackend: %q\n", cfg.Runner.Backend)

	sb.WriteString("\tsandbox: {\n")
	fmt.Fprintf(&sb, "\t\tallow_network: %v\n", cfg.Runner.Sandbox.AllowNetwork)
	writeList(&sb, "\t\t", "read", cfg.Runner.Sandbox.Read)
	writeList(&sb, "\t\t", "read_execute", cfg.Runner.Sandbox.ReadExecute)
	writeList(&sb, "\t\t", "read_write", cfg.Runner.Sandbox.ReadWrite)
	fmt.Fprintf(&sb, "\t\toverwrite_defaults: %v\n", cfg.Runner.Sandbox.OverwriteDefaults)
	if cfg.Runner.Sandbox.PolicyFile != "" {
		fmt.Fprintf(&sb, "\t\tpolicy_file: %q\n", cfg.Runner.Sandbox.PolicyFile)
	}
	sb.WriteString("\t}\n")

	sb.WriteString("\tcontainer: {\n")
	if cfg.Runner.Container.Engine != "" {
		fmt.Fprintf(&sb, "\t\tengine: %q\n", cfg.Runner.Container.Engine)
	}
	if cfg.Runner.Container.Image != "" {
		fmt.Fprintf(&sb, "\t\timage: %q\n", cfg.Runner.Container.Image)
	}
	fmt.Fprintf(&sb, "\t\tallow_network: %v\n", cfg.Runner.Container.AllowNetwork)
	writeList(&sb, "\t\t", "mounts", cfg.Runner.Container.Mounts)
	sb.WriteString("\t}\n")
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	if cfg.UI.ColorScheme != "" {
		fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	}
	sb.WriteString("}\n")

	return sb.String()
}

func writeList(sb *strings.Builder, indent, key string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s%s: [\n", indent, key)
	for _, v := range values {
		fmt.Fprintf(sb, "%s\t%q,\n", indent, v)
	}
	fmt.Fprintf(sb, "%s]\n", indent)
}

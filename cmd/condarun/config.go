// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/condarun/condarun/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `condarun config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage condarun configuration",
		Long: `Manage condarun configuration.

Configuration is stored in:
  - Linux: ~/.config/condarun/config.cue
  - macOS: ~/Library/Application Support/condarun/config.cue
  - Windows: %APPDATA%\condarun\config.cue

Every key can be overridden with a CONDARUN_* environment variable,
e.g. CONDARUN_RUNNER_CONTAINER_IMAGE.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app.stdout)
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	cfg, err := app.loadConfig(ctx)
	if err != nil {
		return err
	}

	w := app.stdout
	key := CmdStyle.Render
	value := func(v any) string { return SuccessStyle.Render(fmt.Sprint(v)) }
	list := func(values []string) string {
		if len(values) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return value(strings.Join(values, ", "))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if cfg.Source != "" {
		fmt.Fprintf(w, "%s: %s\n", key("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", key("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", key("runner"))
	fmt.Fprintf(w, "  backend: %s\n", value(cfg.Runner.Backend))
	fmt.Fprintf(w, "  %s:\n", key("sandbox"))
	fmt.Fprintf(w, "    allow_network: %s\n", value(cfg.Runner.Sandbox.AllowNetwork))
	fmt.Fprintf(w, "    read: %s\n", list(cfg.Runner.Sandbox.Read))
	fmt.Fprintf(w, "    read_execute: %s\n", list(cfg.Runner.Sandbox.ReadExecute))
	fmt.Fprintf(w, "    read_write: %s\n", list(cfg.Runner.Sandbox.ReadWrite))
	fmt.Fprintf(w, "    overwrite_defaults: %s\n", value(cfg.Runner.Sandbox.OverwriteDefaults))
	if cfg.Runner.Sandbox.PolicyFile != "" {
		fmt.Fprintf(w, "    policy_file: %s\n", value(cfg.Runner.Sandbox.PolicyFile))
	}
	fmt.Fprintf(w, "  %s:\n", key("container"))
	fmt.Fprintf(w, "    engine: %s\n", value(cfg.Runner.Container.Engine))
	if cfg.Runner.Container.Image != "" {
		fmt.Fprintf(w, "    image: %s\n", value(cfg.Runner.Container.Image))
	} else {
		fmt.Fprintf(w, "    image: %s\n", SubtitleStyle.Render("(not set)"))
	}
	fmt.Fprintf(w, "    allow_network: %s\n", value(cfg.Runner.Container.AllowNetwork))
	fmt.Fprintf(w, "    mounts: %s\n", list(cfg.Runner.Container.Mounts))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", key("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", value(cfg.UI.Verbose))
	fmt.Fprintf(w, "  color_scheme: %s\n", value(cfg.UI.ColorScheme))

	return nil
}

func initConfig(w io.Writer) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("Config file already exists:"), cfgPath)
		return nil
	}

	path, err := config.Save(config.DefaultConfig(), cfgDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("Created config file:"), path)
	return nil
}

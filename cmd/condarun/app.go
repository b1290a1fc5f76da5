// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/condarun/condarun/internal/config"
	"github.com/condarun/condarun/internal/runner"

	"github.com/charmbracelet/log"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Every Cobra handler receives
	// an App reference instead of reaching for package state.
	App struct {
		Config        ConfigProvider
		RunnerOptions []runner.Option
		GOOS          string
		GOARCH        string
		stdout        io.Writer
		stderr        io.Writer
		log           *log.Logger
		logger        *slog.Logger
		verbose       bool
		colorScheme   config.ColorScheme
		configPath    string
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// RunnerOptions are passed to every prepared backend.
		RunnerOptions []runner.Option
		// GOOS and GOARCH select the target platform for sandbox defaults and skip conditions.
		GOOS   string
		GOARCH string
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.GOOS == "" {
		deps.GOOS = runtime.GOOS
	}
	if deps.GOARCH == "" {
		deps.GOARCH = runtime.GOARCH
	}

	charmLog := log.NewWithOptions(deps.Stderr, log.Options{
		Prefix: config.AppName,
	})

	return &App{
		Config:        deps.Config,
		RunnerOptions: deps.RunnerOptions,
		GOOS:          deps.GOOS,
		GOARCH:        deps.GOARCH,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
		log:           charmLog,
		logger:        slog.New(charmLog),
	}
}

// Logger returns the structured logger used for build output and diagnostics.
func (a *App) Logger() *slog.Logger { return a.logger }

// loadConfig loads configuration honoring --config and applies ui.verbose.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, err
	}
	a.colorScheme = cfg.UI.ColorScheme
	if cfg.UI.Verbose {
		a.setVerbose(true)
	}
	return cfg, nil
}

func (a *App) setVerbose(v bool) {
	a.verbose = a.verbose || v
	if a.verbose {
		a.log.SetLevel(log.DebugLevel)
	} else {
		a.log.SetLevel(log.InfoLevel)
	}
}

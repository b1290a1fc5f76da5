// SPDX-License-Identifier: MPL-2.0

// Package script turns a build script into files in the work directory and runs
// them through a prepared runner.
//
// Two files are written: build_env.sh exports the build environment, and
// conda_build.sh sources it (unless CONDA_BUILD is already set) before the script
// body. The runner then executes `bash -e conda_build.sh`, so the same files work
// on the host, in the sandbox and inside a container that receives no environment.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"mvdan.cc/sh/v3/syntax"

	"github.com/condarun/condarun/internal/runner"
)

const (
	// EnvFileName is the file exporting the build environment.
	EnvFileName = "build_env.sh"
	// BuildFileName is the file executed by bash.
	BuildFileName = "conda_build.sh"
	// RedactedValue replaces secret values in captured output.
	RedactedValue = "********"
)

var (
	// ErrInvalidScript is returned when the script body does not parse as bash.
	ErrInvalidScript = errors.New("invalid build script")
	// ErrInvalidEnvName is returned for environment variable names bash cannot export.
	ErrInvalidEnvName = errors.New("invalid environment variable name")
)

type (
	// Script is a build script with its environment.
	Script struct {
		// Content is the bash script body.
		Content string
		// Env is exported in insertion order.
		Env *orderedmap.OrderedMap[string, string]
		// Secrets names variables in Env whose values are redacted from output.
		Secrets []string
		// Interpreter defaults to "bash".
		Interpreter string
	}

	// FailedError reports a script that ran but exited non-zero.
	FailedError struct {
		ExitCode int
	}
)

func (e *FailedError) Error() string {
	return fmt.Sprintf("build script failed with exit code %d", e.ExitCode)
}

// Validate checks the script body and environment names.
func (s *Script) Validate() error {
	if _, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(s.Content), BuildFileName); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if s.Env == nil {
		return nil
	}
	var errs []error
	for pair := s.Env.Oldest(); pair != nil; pair = pair.Next() {
		if !syntax.ValidName(pair.Key) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidEnvName, pair.Key))
		}
	}
	return errors.Join(errs...)
}

// Redactor returns a redactor hiding the values of the secret variables.
func (s *Script) Redactor() *runner.Redactor {
	mapping := make(map[string]string, len(s.Secrets))
	for _, name := range s.Secrets {
		if s.Env == nil {
			break
		}
		if value, ok := s.Env.Get(name); ok && value != "" {
			mapping[value] = RedactedValue
		}
	}
	return runner.NewRedactor(mapping)
}

// WriteFiles writes build_env.sh and conda_build.sh into workDir and returns the
// path of conda_build.sh.
func (s *Script) WriteFiles(workDir string) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	envPath := filepath.Join(workDir, EnvFileName)
	envFile, err := renderEnv(s.Env)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(envPath, []byte(envFile), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", envPath, err)
	}

	buildPath := filepath.Join(workDir, BuildFileName)
	quotedEnv, err := syntax.Quote(envPath, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("quoting %s: %w", envPath, err)
	}
	var b strings.Builder
	b.WriteString("## Start of bash preamble\n")
	b.WriteString("if [ -z ${CONDA_BUILD+x} ]; then\n")
	b.WriteString("    source " + quotedEnv + "\n")
	b.WriteString("fi\n")
	b.WriteString("## End of preamble\n\n")
	b.WriteString(s.Content)
	if !strings.HasSuffix(s.Content, "\n") {
		b.WriteByte('\n')
	}
	//nolint:gosec // the build script must be executable
	if err := os.WriteFile(buildPath, []byte(b.String()), 0o755); err != nil {
		return "", fmt.Errorf("writing %s: %w", buildPath, err)
	}
	return buildPath, nil
}

// Run writes the script files and executes them with prepared. A non-zero exit is
// returned as *FailedError together with the result.
func (s *Script) Run(ctx context.Context, prepared *runner.PreparedRunner, workDir string, opts ...runner.ExecuteOption) (*runner.Result, error) {
	buildPath, err := s.WriteFiles(workDir)
	if err != nil {
		return nil, err
	}

	interpreter := s.Interpreter
	if interpreter == "" {
		interpreter = "bash"
	}
	slog.Info("running build script", "runner", prepared.Runner().Name(), "script", buildPath)

	res, err := prepared.ExecuteCommand(ctx, []string{interpreter, "-e", buildPath}, workDir, s.Env, s.Redactor(), opts...)
	if err != nil {
		return res, err
	}
	if !res.Success() {
		return res, &FailedError{ExitCode: res.ExitCode}
	}
	return res, nil
}

func renderEnv(env *orderedmap.OrderedMap[string, string]) (string, error) {
	var b strings.Builder
	if env == nil {
		return "", nil
	}
	for pair := env.Oldest(); pair != nil; pair = pair.Next() {
		quoted, err := syntax.Quote(pair.Value, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quoting value of %s: %w", pair.Key, err)
		}
		b.WriteString("export " + pair.Key + "=" + quoted + "\n")
	}
	return b.String(), nil
}

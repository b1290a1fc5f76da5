// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/condarun/condarun/internal/issue"
	"github.com/condarun/condarun/internal/runner"
	"github.com/condarun/condarun/internal/script"
	"github.com/condarun/condarun/internal/skip"
)

// actionable converts backend errors into user-facing errors with remediation.
// Errors that are already actionable, or that carry no known remediation, are
// returned unchanged.
func actionable(operation string, err error) error {
	if err == nil {
		return nil
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ec := issue.NewErrorContext().WithOperation(operation).Wrap(err)

	var toolErr *runner.ToolMissingError
	var platformErr *runner.UnsupportedPlatformError
	var logErr *runner.BuildLogError
	var condErr *skip.ConditionError
	switch {
	case errors.As(err, &toolErr):
		id := issue.ContainerEngineNotFoundId
		if toolErr.Tool == runner.SandboxExecutable {
			id = issue.SandboxToolNotFoundId
		}
		ec.WithResource(toolErr.Tool).WithIssue(id).WithSuggestion(toolErr.Remediation)
	case errors.As(err, &platformErr):
		ec.WithResource(platformErr.GOOS).
			WithIssue(issue.UnsupportedPlatformId).
			WithSuggestion("Use the host or sandbox backend on this platform")
	case errors.As(err, &logErr):
		ec.WithResource(logErr.Path).
			WithIssue(issue.BuildLogUnavailableId).
			WithSuggestion("Check that the work directory exists and is writable")
	case errors.Is(err, runner.ErrConflictingRunners):
		ec.WithIssue(issue.ConflictingRunnersId).
			WithSuggestion("Pass either --sandbox or --docker, not both")
	case errors.Is(err, runner.ErrContainerImageRequired):
		ec.WithIssue(issue.ContainerImageRequiredId).
			WithSuggestion("Pass --docker-image or set runner.container.image in config.cue")
	case errors.As(err, &condErr):
		ec.WithResource(condErr.Condition).
			WithSuggestion("Conditions are CUE expressions such as: linux && x86_64")
	case errors.Is(err, script.ErrInvalidScript), errors.Is(err, script.ErrInvalidEnvName):
		ec.WithIssue(issue.ScriptExecutionFailedId)
	case errors.Is(err, runner.ErrSpawnFailed):
		ec.WithSuggestion("Check that the command exists and is executable")
	default:
		return err
	}
	return ec.BuildError()
}

// renderError prints err for the user and reports whether it was handled.
// Mirrored child exit codes print nothing; actionable errors print their
// suggestions, and in verbose mode the catalog entry.
func renderError(w io.Writer, err error, verbose bool, style string) bool {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return true
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return false
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+ae.Format(verbose))
	if !verbose || ae.IssueID == 0 {
		return true
	}
	if entry := issue.Get(ae.IssueID); entry != nil {
		rendered, renderErr := entry.Render(style)
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", ae.IssueID, "error", renderErr)
			return true
		}
		fmt.Fprint(w, rendered)
	}
	return true
}

// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
)

const (
	// BuildLogFileName is the append-only log written to every work directory.
	BuildLogFileName = "conda_build.log"

	// DefaultWaitDelay bounds how long Wait blocks on I/O after a cancelled process exits.
	DefaultWaitDelay = 5 * time.Second
)

const (
	// Stdout identifies the standard output stream.
	Stdout Stream = iota
	// Stderr identifies the standard error stream.
	Stderr
)

type (
	// Stream identifies one of the two captured output streams.
	Stream int

	// LineHandler receives every redacted output line as it arrives.
	LineHandler func(stream Stream, line string)

	// ExecuteOption customizes Execute.
	ExecuteOption func(*executeOptions)

	executeOptions struct {
		logger  *slog.Logger
		onLine  LineHandler
		logName string
	}

	lineEvent struct {
		stream Stream
		line   string
		eof    bool
		err    error
	}
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// WithLogger sets the logger used for warnings and the default line output.
func WithLogger(logger *slog.Logger) ExecuteOption {
	return func(o *executeOptions) { o.logger = logger }
}

// WithLineHandler replaces the default per-line log output.
func WithLineHandler(fn LineHandler) ExecuteOption {
	return func(o *executeOptions) { o.onLine = fn }
}

// WithBuildLogName overrides the log file name inside the work directory.
func WithBuildLogName(name string) ExecuteOption {
	return func(o *executeOptions) { o.logName = name }
}

// Execute spawns cmd, drains its output and waits for it to exit.
//
// Both streams are read concurrently; lines are redacted, captured per stream,
// appended to <workDir>/conda_build.log and passed to the line handler in arrival
// order. A non-zero exit status is reported in the Result, not as an error. Read
// and log write failures are logged as warnings. When ctx is cancelled the child
// is killed and the partial Result is returned together with the context error.
func Execute(ctx context.Context, cmd *exec.Cmd, workDir string, redactor *Redactor, opts ...ExecuteOption) (*Result, error) {
	o := executeOptions{logName: BuildLogFileName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.onLine == nil {
		logger := o.logger
		o.onLine = func(stream Stream, line string) {
			logger.Info(line, "stream", stream.String())
		}
	}

	logPath := filepath.Join(workDir, o.logName)
	//nolint:gosec // the build log lives in the caller-chosen work directory
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &BuildLogError{Path: logPath, Cause: err}
	}
	buildLog := &logSink{f: logFile, w: bufio.NewWriter(logFile), path: logPath, logger: o.logger}
	defer buildLog.close()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, cmd.Path, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, cmd.Path, err)
	}
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	o.logger.Debug("spawning command", "path", cmd.Path, "args", cmd.Args, "dir", cmd.Dir)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, cmd.Path, err)
	}

	var buffers [2]bytes.Buffer
	interrupt := func() {
		// A grandchild may still hold the pipes open; closing our ends unblocks the readers.
		_ = cmd.Process.Kill()
		_ = stdout.Close()
		_ = stderr.Close()
	}
	drainStreams(ctx, stdout, stderr, o.logger, interrupt, func(stream Stream, line string) {
		line = redactor.Apply(line)
		buffers[stream].WriteString(line)
		buffers[stream].WriteByte('\n')
		buildLog.writeLine(line)
		o.onLine(stream, line)
	})

	waitErr := cmd.Wait()
	result := &Result{
		ExitCode: -1,
		Stdout:   buffers[Stdout].Bytes(),
		Stderr:   buffers[Stderr].Bytes(),
		LogPath:  logPath,
		LogSize:  buildLog.close(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("command %s interrupted: %w", cmd.Path, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil, errors.As(waitErr, &exitErr):
	case errors.Is(waitErr, exec.ErrWaitDelay):
		o.logger.Warn("command output was still open after exit", "path", cmd.Path)
	default:
		return result, fmt.Errorf("waiting for %s: %w", cmd.Path, waitErr)
	}

	o.logger.Debug("command finished", "path", cmd.Path, "exit_code", result.ExitCode)
	return result, nil
}

// drainStreams reads stdout and stderr concurrently and passes every line to
// handle, in arrival order, until both streams have ended. A read error ends
// only the failing stream and is logged unless ctx is done. interrupt runs once
// when ctx is done and must make blocked reads return.
func drainStreams(ctx context.Context, stdout, stderr io.Reader, logger *slog.Logger, interrupt func(), handle func(Stream, string)) {
	events := make(chan lineEvent)
	go readLines(Stdout, stdout, events)
	go readLines(Stderr, stderr, events)

	open := [2]bool{true, true}
	done := ctx.Done()
	for open[Stdout] || open[Stderr] {
		select {
		case <-done:
			interrupt()
			done = nil
		case ev := <-events:
			switch {
			case ev.err != nil:
				open[ev.stream] = false
				if ctx.Err() == nil {
					logger.Warn("failed to read command output", "stream", ev.stream.String(), "error", ev.err)
				}
			case ev.eof:
				open[ev.stream] = false
			default:
				handle(ev.stream, ev.line)
			}
		}
	}
}

// readLines sends each line of r, then exactly one terminal event.
func readLines(stream Stream, r io.Reader, out chan<- lineEvent) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			out <- lineEvent{stream: stream, line: trimLineEnding(line)}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				out <- lineEvent{stream: stream, eof: true}
			} else {
				out <- lineEvent{stream: stream, err: err}
			}
			return
		}
	}
}

func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// logSink appends lines to the build log and reports the first write failure only.
type logSink struct {
	f      *os.File
	w      *bufio.Writer
	path   string
	logger *slog.Logger
	failed bool
	size   int64
}

func (s *logSink) writeLine(line string) {
	if s.failed {
		return
	}
	if _, err := s.w.WriteString(line + "\n"); err != nil {
		s.failed = true
		s.logger.Warn("failed to write build log", "path", s.path, "error", err)
	}
}

// close flushes and closes the log and returns its size. Later calls return
// the same size without touching the file again.
func (s *logSink) close() int64 {
	if s.f == nil {
		return s.size
	}
	f := s.f
	s.f = nil

	if err := s.w.Flush(); err != nil && !s.failed {
		s.logger.Warn("failed to flush build log", "path", s.path, "error", err)
	}
	if info, err := f.Stat(); err == nil {
		s.size = info.Size()
		s.logger.Debug("build log updated", "path", s.path, "size", units.HumanSize(float64(s.size)))
	}
	if err := f.Close(); err != nil {
		s.logger.Warn("failed to close build log", "path", s.path, "error", err)
	}
	return s.size
}

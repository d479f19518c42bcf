package engine

import (
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

	"perftdiff/fen"
	"perftdiff/perft"
)

// Engine describes how to launch one engine executable. Every perft call
// spawns a fresh process and waits for it to exit.
type Engine struct {
	Name    string
	Path    string
	Args    []string
	Dir     string
	Env     []string // appended to the current environment
	Dialect perft.Dialect
	Timeout time.Duration // 0 waits forever

	Log *slog.Logger
}

// waitDelay bounds how long Wait keeps reading output after the engine is
// killed, in case a grandchild still holds the pipes open.
const waitDelay = 500 * time.Millisecond

// FailureError is returned when the engine process exits unsuccessfully.
type FailureError struct {
	Engine   string
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *FailureError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("engine %s failed with exit status %d: %s", e.Engine, e.ExitCode, e.Command)
	}
	return fmt.Sprintf("engine %s failed: %s: %v", e.Engine, e.Command, e.Err)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// Commands returns the protocol lines that request a perft of position to depth.
func Commands(position string, depth int) string {
	var sb strings.Builder
	if !fen.IsStartPos(position) {
		sb.WriteString(fmt.Sprintf("position fen %s\n", strings.TrimSpace(position)))
	}
	sb.WriteString(fmt.Sprintf("go perft %d\n", depth))
	return sb.String()
}

// RunPerft runs one perft and returns everything the engine wrote to stdout
// and stderr, plus the time spent between writing the commands and the
// process exiting.
func (e *Engine) RunPerft(ctx context.Context, position string, depth int) (string, time.Duration, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.Path, e.Args...)
	cmd.Dir = e.Dir
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", 0, fmt.Errorf("%s: stdin pipe: %w", e.DisplayName(), err)
	}

	e.log().Debug("executing", "engine", e.DisplayName(), "cmd", cmd.String(), "depth", depth)

	if err := cmd.Start(); err != nil {
		return "", 0, fmt.Errorf("%s: starting '%s': %w", e.DisplayName(), e.Path, err)
	}

	start := time.Now()

	_, writeErr := io.WriteString(stdin, Commands(position, depth))
	if err := stdin.Close(); err != nil && writeErr == nil {
		writeErr = err
	}

	waitErr := cmd.Wait()
	elapsed := time.Since(start)
	output := out.String()

	e.log().Debug("engine exited", "engine", e.DisplayName(), "elapsed", elapsed, "output_bytes", len(output))

	if waitErr != nil {
		failure := &FailureError{
			Engine:   e.DisplayName(),
			Command:  cmd.String(),
			ExitCode: -1,
			Output:   output,
			Err:      waitErr,
		}
		if ctx.Err() != nil {
			failure.Err = ctx.Err()
			return output, elapsed, failure
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			failure.ExitCode = exitErr.ExitCode()
		}
		return output, elapsed, failure
	}

	if writeErr != nil {
		// the engine exited cleanly before reading all commands; its output decides
		e.log().Debug("writing commands", "engine", e.DisplayName(), "err", writeErr)
	}

	return output, elapsed, nil
}

// Perft runs one perft and parses the reply with the engine's dialect.
func (e *Engine) Perft(ctx context.Context, position string, depth int) (*perft.Result, error) {
	output, elapsed, err := e.RunPerft(ctx, position, depth)
	if err != nil {
		return nil, err
	}

	res, err := perft.Parse(e.Dialect, output, elapsed)
	var warn *perft.Warning
	if errors.As(err, &warn) {
		e.log().Warn(warn.Error(), "engine", e.DisplayName(), "depth", depth, "fen", position)
		return res, nil
	}
	var malformed *perft.MalformedOutputError
	if errors.As(err, &malformed) {
		malformed.Engine = e.DisplayName()
		return nil, malformed
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.DisplayName(), err)
	}

	return res, nil
}

// DisplayName is Name, or the executable's base name when Name is empty.
func (e *Engine) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return filepath.Base(e.Path)
}

func (e *Engine) log() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

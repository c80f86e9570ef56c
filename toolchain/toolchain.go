// Package toolchain turns LLVM IR text into a native executable with llc
// and clang, and runs the result.
package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrMissingTool is returned when llc or clang cannot be found.
var ErrMissingTool = errors.New("missing tool")

type Toolchain struct {
	LLC   string
	Clang string

	// Stdio of programs started by Run. Nil discards output and reads
	// nothing.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logf func(format string, args ...any)
}

// FromEnv returns a Toolchain using IRX_LLC and IRX_CLANG as looked up by
// getenv, defaulting to llc and clang on $PATH.
func FromEnv(getenv func(string) string) *Toolchain {
	tc := &Toolchain{LLC: "llc", Clang: "clang"}
	if v := getenv("IRX_LLC"); v != "" {
		tc.LLC = v
	}
	if v := getenv("IRX_CLANG"); v != "" {
		tc.Clang = v
	}
	return tc
}

func (tc *Toolchain) logf(format string, args ...any) {
	if tc.Logf != nil {
		tc.Logf(format, args...)
	}
}

// Available reports whether both tools resolve to executables.
func (tc *Toolchain) Available() error {
	for _, tool := range []string{tc.LLC, tc.Clang} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingTool, tool)
		}
	}
	return nil
}

// Build compiles ir into an executable at out.
func (tc *Toolchain) Build(ctx context.Context, ir string, out string) error {
	if err := tc.Available(); err != nil {
		return err
	}
	tmpDir, err := os.MkdirTemp("", "irx-build-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	llPath := filepath.Join(tmpDir, "module.ll")
	if err := os.WriteFile(llPath, []byte(ir), 0o644); err != nil {
		return fmt.Errorf("failed to write IR: %w", err)
	}

	objPath := filepath.Join(tmpDir, "module.o")
	tc.logf("%s -filetype=obj %s", tc.LLC, llPath)
	cmd := exec.CommandContext(ctx, tc.LLC, "-filetype=obj", llPath, "-o", objPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("llc failed: %w\n%s", err, output)
	}

	tc.logf("%s %s -o %s", tc.Clang, objPath, out)
	cmd = exec.CommandContext(ctx, tc.Clang, objPath, "-o", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("linker failed: %w\n%s", err, output)
	}
	return nil
}

// Run executes exe and returns its exit code. A non-zero exit is not an
// error; failing to start the program is.
func (tc *Toolchain) Run(ctx context.Context, exe string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdin = tc.Stdin
	cmd.Stdout = tc.Stdout
	cmd.Stderr = tc.Stderr
	tc.logf("running %s", exe)

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("failed to run %s: %w", exe, err)
	}
	return 0, nil
}

// BuildAndRun builds ir in a temp dir and runs it.
func (tc *Toolchain) BuildAndRun(ctx context.Context, ir string, args ...string) (int, error) {
	tmpDir, err := os.MkdirTemp("", "irx-run-")
	if err != nil {
		return -1, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	exe := filepath.Join(tmpDir, "program")
	if err := tc.Build(ctx, ir, exe); err != nil {
		return -1, err
	}
	return tc.Run(ctx, exe, args...)
}

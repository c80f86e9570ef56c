package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/arxlang/irx/toolchain"
)

const addSource = `(module "calc"
  (function (prototype "add" i32 (arg "a" i32) (arg "b" i32))
    (block (return (binary "+" (var "a") (var "b")))))
  (function (prototype "main" i32)
    (block (return (call "add" 2 3)))))
`

type testCLI struct {
	cli
	out, errOut bytes.Buffer
	env         map[string]string
}

func newTestCLI() *testCLI {
	c := &testCLI{env: map[string]string{}}
	c.stdin = strings.NewReader("")
	c.stdout = &c.out
	c.stderr = &c.errOut
	c.getenv = func(k string) string { return c.env[k] }
	return c
}

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	be.Err(t, os.WriteFile(path, []byte(src), 0o644), nil)
	return path
}

func TestEmitCommand(t *testing.T) {
	path := writeSource(t, "add.irx", addSource)
	c := newTestCLI()
	c.env["IRX_TRIPLE"] = "riscv64-unknown-linux-gnu"

	code := c.run([]string{"emit", path})
	be.Equal(t, code, 0)
	out := c.out.String()
	be.True(t, strings.HasPrefix(out, "; ModuleID = 'calc'"))
	be.True(t, strings.Contains(out, `target triple = "riscv64-unknown-linux-gnu"`))
	be.True(t, strings.Contains(out, "%addtmp.7 = add i32 %a.5, %b.6"))
	be.Equal(t, c.errOut.String(), "")
}

func TestEmitFlagsBeatEnvironment(t *testing.T) {
	path := writeSource(t, "add.irx", addSource)
	c := newTestCLI()
	c.env["IRX_TRIPLE"] = "riscv64-unknown-linux-gnu"

	code := c.run([]string{"emit", "-triple", "aarch64-apple-darwin", "-datalayout", "e-m:o", path})
	be.Equal(t, code, 0)
	be.True(t, strings.Contains(c.out.String(), `target triple = "aarch64-apple-darwin"`))
	be.True(t, strings.Contains(c.out.String(), `target datalayout = "e-m:o"`))
}

func TestEmitCFG(t *testing.T) {
	path := writeSource(t, "add.irx", addSource)
	c := newTestCLI()

	code := c.run([]string{"emit", "-cfg", path})
	be.Equal(t, code, 0)
	be.Equal(t, c.out.String(),
		`(func "add" (block "entry" alloca alloca store store load load add ret))`+"\n"+
			`(func "main" (block "entry" (call "add") ret))`+"\n")
}

func TestEmitToFile(t *testing.T) {
	path := writeSource(t, "add.irx", addSource)
	outPath := filepath.Join(t.TempDir(), "add.ll")
	c := newTestCLI()

	code := c.run([]string{"emit", "-o", outPath, path})
	be.Equal(t, code, 0)
	be.Equal(t, c.out.String(), "")
	data, err := os.ReadFile(outPath)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(string(data), "define dso_local i32 @add"))
}

func TestEmitVerbose(t *testing.T) {
	path := writeSource(t, "add.irx", addSource)
	c := newTestCLI()

	code := c.run([]string{"emit", "-v", path})
	be.Equal(t, code, 0)
	log := c.errOut.String()
	be.True(t, strings.Contains(log, "Compiling "+path))
	be.True(t, strings.Contains(log, "function add"))
	be.True(t, strings.Contains(log, "function main"))
}

func TestCompilationFailed(t *testing.T) {
	path := writeSource(t, "bad.irx", `(module "m" (function (prototype "main" i32) (block (return (var "y")))))`)
	c := newTestCLI()

	code := c.run([]string{"emit", path})
	be.Equal(t, code, 1)
	be.Equal(t, c.errOut.String(), "Compilation failed: module m: function main: node 5 (var): unbound name: y\n")
}

func TestDecodeErrorNamesFile(t *testing.T) {
	path := writeSource(t, "bad.irx", "(module \"m\"\n  (frob))")
	c := newTestCLI()

	code := c.run([]string{"emit", path})
	be.Equal(t, code, 1)
	be.True(t, strings.Contains(c.errOut.String(), path+":line 2: unknown form (frob ...)"))
}

func TestCheckCommand(t *testing.T) {
	good := writeSource(t, "add.irx", addSource)
	c := newTestCLI()
	be.Equal(t, c.run([]string{"check", good}), 0)
	be.Equal(t, c.out.String(), good+": no errors found\n")

	bad := writeSource(t, "bad.irx", `(module "m" (function (prototype "main" i32) (block)))`)
	c = newTestCLI()
	be.Equal(t, c.run([]string{"check", bad}), 1)
	be.True(t, strings.Contains(c.out.String(), "Errors in "+bad))
	be.True(t, strings.Contains(c.out.String(), "can reach its end without returning"))
}

func TestUsageErrors(t *testing.T) {
	t.Run("no command", func(t *testing.T) {
		c := newTestCLI()
		be.Equal(t, c.run(nil), 1)
		be.True(t, strings.Contains(c.errOut.String(), "Usage:"))
	})
	t.Run("unknown command", func(t *testing.T) {
		c := newTestCLI()
		be.Equal(t, c.run([]string{"frobnicate"}), 1)
		be.True(t, strings.HasPrefix(c.errOut.String(), "Unknown command: frobnicate\n"))
	})
	t.Run("help", func(t *testing.T) {
		c := newTestCLI()
		be.Equal(t, c.run([]string{"help"}), 0)
		be.True(t, strings.Contains(c.errOut.String(), "irx <command> [arguments]"))
	})
	t.Run("missing file", func(t *testing.T) {
		c := newTestCLI()
		be.Equal(t, c.run([]string{"emit"}), 1)
		be.True(t, strings.Contains(c.errOut.String(), "Error: expected exactly one file argument"))
		be.True(t, strings.Contains(c.errOut.String(), "Usage: irx emit"))
	})
	t.Run("two files", func(t *testing.T) {
		c := newTestCLI()
		be.Equal(t, c.run([]string{"check", "a.irx", "b.irx"}), 1)
	})
	t.Run("bad flag", func(t *testing.T) {
		c := newTestCLI()
		be.Equal(t, c.run([]string{"emit", "-nope", "a.irx"}), 2)
	})
	t.Run("command help", func(t *testing.T) {
		c := newTestCLI()
		be.Equal(t, c.run([]string{"build", "-h"}), 0)
		be.True(t, strings.Contains(c.errOut.String(), "Usage: irx build"))
	})
	t.Run("unreadable file", func(t *testing.T) {
		c := newTestCLI()
		be.Equal(t, c.run([]string{"emit", filepath.Join(t.TempDir(), "missing.irx")}), 1)
		be.True(t, strings.Contains(c.errOut.String(), "Compilation failed: reading"))
	})
}

func TestBuildMissingTools(t *testing.T) {
	path := writeSource(t, "add.irx", addSource)
	c := newTestCLI()
	c.env["IRX_LLC"] = "irx-no-such-llc"

	code := c.run([]string{"build", path})
	be.Equal(t, code, 1)
	be.True(t, strings.Contains(c.errOut.String(), "missing tool: irx-no-such-llc"))
}

func TestBuildAndRunCommands(t *testing.T) {
	if err := toolchain.FromEnv(os.Getenv).Available(); err != nil {
		t.Skip(err)
	}
	path := writeSource(t, "add.irx", addSource)

	c := newTestCLI()
	c.getenv = os.Getenv
	exe := filepath.Join(t.TempDir(), "add")
	be.Equal(t, c.run([]string{"build", "-o", exe, path}), 0)
	be.Equal(t, c.out.String(), "Generated "+exe+"\n")
	_, err := os.Stat(exe)
	be.Err(t, err, nil)

	c = newTestCLI()
	c.getenv = os.Getenv
	be.Equal(t, c.run([]string{"run", path}), 5)
}

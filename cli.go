package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/arxlang/irx/ast"
	"github.com/arxlang/irx/backend"
	"github.com/arxlang/irx/llvmir"
	"github.com/arxlang/irx/lower"
	"github.com/arxlang/irx/toolchain"
	"github.com/arxlang/irx/treeio"
)

const usage = `irx - lowers typed program trees to LLVM IR

Usage:
    irx <command> [arguments]

Commands:
    emit <file>     Print the LLVM IR of an .irx module
    build <file>    Compile an .irx module to a native executable
    run <file>      Compile and execute an .irx module
    check <file>    Lower an .irx module and report errors only
    help            Show this help message

Examples:
    irx emit examples/add.irx
    irx emit -cfg examples/max.irx
    irx build -o add add.irx
    irx run hello.irx

Environment:
    IRX_LLC, IRX_CLANG          tool paths (default llc, clang)
    IRX_TRIPLE, IRX_DATALAYOUT  target for modules that name none

Use "irx <command> -h" for more information about a command.
`

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
}

func (c *cli) showUsage() {
	fmt.Fprint(c.stderr, usage)
}

// run dispatches args and returns the process exit code.
func (c *cli) run(args []string) int {
	if len(args) < 1 {
		c.showUsage()
		return 1
	}

	command, rest := args[0], args[1:]
	switch command {
	case "emit":
		return c.emitCommand(rest)
	case "build":
		return c.buildCommand(rest)
	case "run":
		return c.runCommand(rest)
	case "check":
		return c.checkCommand(rest)
	case "help", "-h", "--help":
		c.showUsage()
		return 0
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n\n", command)
		c.showUsage()
		return 1
	}
}

// commandFlags holds the flags every command shares.
type commandFlags struct {
	fs         *flag.FlagSet
	verbose    *bool
	triple     *string
	datalayout *string
}

func (c *cli) newFlags(name, synopsis, summary string) *commandFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	cf := &commandFlags{
		fs:         fs,
		verbose:    fs.Bool("v", false, "Show verbose compilation details"),
		triple:     fs.String("triple", "", "Target triple for modules that name none"),
		datalayout: fs.String("datalayout", "", "Target data layout for modules that name none"),
	}
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: irx %s %s\n", name, synopsis)
		fmt.Fprintf(c.stderr, "%s\n\n", summary)
		fmt.Fprintf(c.stderr, "Flags:\n")
		fs.PrintDefaults()
	}
	return cf
}

// parse returns the exit code to stop with, or -1 to continue. Unless
// extra is set the command takes exactly one file argument.
func (c *cli) parse(cf *commandFlags, args []string, extra bool) int {
	if err := cf.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if n := cf.fs.NArg(); n == 0 || (n > 1 && !extra) {
		fmt.Fprintf(c.stderr, "Error: expected exactly one file argument\n")
		cf.fs.Usage()
		return 1
	}
	return -1
}

func (c *cli) logf(cf *commandFlags) func(string, ...any) {
	if !*cf.verbose {
		return nil
	}
	return func(format string, args ...any) {
		fmt.Fprintf(c.stderr, format+"\n", args...)
	}
}

// target picks flags first, then the environment, then the host.
func (c *cli) target(cf *commandFlags) ast.Target {
	t := ast.Target{Triple: *cf.triple, DataLayout: *cf.datalayout}
	if t.Triple == "" {
		t.Triple = c.getenv("IRX_TRIPLE")
	}
	if t.DataLayout == "" {
		t.DataLayout = c.getenv("IRX_DATALAYOUT")
	}
	return backend.Resolve(t)
}

// compileFile decodes and lowers the module in filename.
func (c *cli) compileFile(cf *commandFlags, filename string) (string, *llvmir.Builder, error) {
	logf := c.logf(cf)
	if logf != nil {
		logf("Compiling %s...", filename)
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	mod, err := treeio.Decode(string(src))
	if err != nil {
		return "", nil, fmt.Errorf("%s:%w", filename, err)
	}
	b := llvmir.New()
	ir, err := lower.New(b, lower.Options{Target: c.target(cf), Logf: logf}).Translate(mod)
	if err != nil {
		return "", nil, err
	}
	return ir, b, nil
}

func (c *cli) failed(err error) int {
	fmt.Fprintf(c.stderr, "Compilation failed: %v\n", err)
	return 1
}

func (c *cli) tools(cf *commandFlags) *toolchain.Toolchain {
	tc := toolchain.FromEnv(c.getenv)
	tc.Stdin, tc.Stdout, tc.Stderr = c.stdin, c.stdout, c.stderr
	tc.Logf = c.logf(cf)
	return tc
}

func (c *cli) emitCommand(args []string) int {
	cf := c.newFlags("emit", "[-o output] [-cfg] [-v] <file>", "Print the LLVM IR of an .irx module")
	output := cf.fs.String("o", "", "Output file path (default: stdout)")
	cfg := cf.fs.Bool("cfg", false, "Print the control-flow skeleton of each function instead of IR")
	if code := c.parse(cf, args, false); code >= 0 {
		return code
	}

	ir, b, err := c.compileFile(cf, cf.fs.Arg(0))
	if err != nil {
		return c.failed(err)
	}
	text := ir
	if *cfg {
		var sb strings.Builder
		for _, name := range b.Functions() {
			skel, _ := b.Skeleton(name)
			sb.WriteString(skel.String())
			sb.WriteString("\n")
		}
		text = sb.String()
	}

	if *output == "" {
		fmt.Fprint(c.stdout, text)
		return 0
	}
	if err := os.WriteFile(*output, []byte(text), 0o644); err != nil {
		fmt.Fprintf(c.stderr, "Error writing %s: %v\n", *output, err)
		return 1
	}
	return 0
}

func (c *cli) buildCommand(args []string) int {
	cf := c.newFlags("build", "[-o output] [-v] <file>", "Compile an .irx module to a native executable")
	output := cf.fs.String("o", "", "Output file path (default: <filename> without .irx)")
	if code := c.parse(cf, args, false); code >= 0 {
		return code
	}

	filename := cf.fs.Arg(0)
	outputFile := *output
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, filepath.Ext(filename))
		if outputFile == filename {
			outputFile += ".out"
		}
	}

	ir, _, err := c.compileFile(cf, filename)
	if err != nil {
		return c.failed(err)
	}
	if err := c.tools(cf).Build(context.Background(), ir, outputFile); err != nil {
		return c.failed(err)
	}
	fmt.Fprintf(c.stdout, "Generated %s\n", outputFile)
	return 0
}

func (c *cli) runCommand(args []string) int {
	cf := c.newFlags("run", "[-v] <file> [args...]", "Compile and execute an .irx module")
	if code := c.parse(cf, args, true); code >= 0 {
		return code
	}

	ir, _, err := c.compileFile(cf, cf.fs.Arg(0))
	if err != nil {
		return c.failed(err)
	}
	code, err := c.tools(cf).BuildAndRun(context.Background(), ir, cf.fs.Args()[1:]...)
	if err != nil {
		fmt.Fprintf(c.stderr, "Execution failed: %v\n", err)
		return 1
	}
	return code
}

func (c *cli) checkCommand(args []string) int {
	cf := c.newFlags("check", "[-v] <file>", "Lower an .irx module and report errors only")
	if code := c.parse(cf, args, false); code >= 0 {
		return code
	}

	filename := cf.fs.Arg(0)
	if _, _, err := c.compileFile(cf, filename); err != nil {
		fmt.Fprintf(c.stdout, "Errors in %s:\n%v\n", filename, err)
		return 1
	}
	fmt.Fprintf(c.stdout, "%s: no errors found\n", filename)
	return 0
}

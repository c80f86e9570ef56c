// Command irx lowers typed program trees, written as S-expressions, to
// LLVM IR and optionally compiles and runs them.
package main

import "os"

func main() {
	c := &cli{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
	}
	os.Exit(c.run(os.Args[1:]))
}

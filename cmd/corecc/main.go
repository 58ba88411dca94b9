// corecc compiles one preprocessed C translation unit into WUT-4-style
// assembly, per spec.md §6.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"corecc/internal/driver"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "corecc: internal error: %v\n", r)
			code = driver.ExitInternalError
		}
	}()

	flags := pflag.NewFlagSet("corecc", pflag.ContinueOnError)
	output := flags.StringP("output", "o", "", "write assembly to path instead of stdout")
	debugLines := flags.BoolP("debug", "g", false, "emit #line debug directives")
	std := flags.String("std", "", "language dialect (accepted, not yet dialect-sensitive)")
	warnFlags := flags.StringArrayP("warn", "f", nil, "enable/disable a diagnostic (-fwarning, -fno-warning)")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	positional := flags.Args()
	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "usage: corecc [-o output] [-g] [-std=dialect] [-f warning]... input.c")
		return 1
	}

	opts := driver.Options{
		Input:      positional[0],
		Output:     *output,
		DebugLines: *debugLines,
		Std:        *std,
		WarnFlags:  *warnFlags,
	}

	if err := driver.Compile(opts, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// Package driver implements spec.md §6's external interface behind the
// command-line front end: the Options that cmd/corecc fills in from its
// flags, and wiring the lexer/parser/codegen/emitter pipeline together.
// A fatal compile error comes back from Compile as an error; cmd/corecc
// prints it and maps it to the exit status.
package driver

import (
	"fmt"
	"io"
	"os"
	"strings"

	"corecc/internal/codegen"
	"corecc/internal/emit"
	"corecc/internal/intern"
	"corecc/internal/lexer"
	"corecc/internal/parser"
)

// Options holds one invocation's resolved command-line flags, per
// spec.md §6: a single positional input path, an output path, the `-g`
// debug-line switch, and diagnostic-control flags that are accepted for
// compatibility but do not yet change code generation.
type Options struct {
	Input      string
	Output     string
	DebugLines bool
	Std        string
	WarnFlags  []string
}

// ExitInternalError is the documented convention for a crash inside the
// compiler itself, as opposed to a fatal diagnostic about the input.
const ExitInternalError = 125

// knownStds lists the dialect names -std= accepts; anything else is a
// warning, not a fatal error, since the core doesn't yet vary lexing or
// parsing by dialect.
var knownStds = map[string]bool{
	"":      true,
	"c99":   true,
	"c11":   true,
	"c17":   true,
	"gnu99": true,
	"gnu11": true,
}

// knownWarnings lists the -f<name> diagnostics this driver recognizes.
// An unrecognized name is reported, not rejected, matching spec.md §7's
// "warnings never terminate" rule.
var knownWarnings = map[string]bool{
	"unused":       true,
	"sign-compare": true,
	"shadow":       true,
}

// Compile runs one translation unit through the full pipeline: lex,
// parse, generate, emit. It returns a non-nil error for any fatal
// diagnostic (spec.md §7); the caller maps that to a process exit code.
func Compile(opts Options, stderr io.Writer) (err error) {
	diag := NewDiagnostics(stderr)
	if !knownStds[opts.Std] {
		diag.Warn("unrecognized -std=%s, compiling without dialect adjustments", opts.Std)
	}
	for _, f := range opts.WarnFlags {
		name := strings.TrimPrefix(f, "no-")
		if !knownWarnings[name] {
			diag.Warn("unrecognized warning flag -f%s", f)
		}
	}

	in, err := os.Open(opts.Input)
	if err != nil {
		return fmt.Errorf("opening %s: %w", opts.Input, err)
	}
	defer in.Close()

	out, err := createOutput(opts.Output)
	if err != nil {
		return err
	}
	if out != os.Stdout {
		defer out.Close()
	}

	return compileSource(opts, in, out, stderr)
}

// compileSource runs the lex/parse/generate/emit pipeline over an
// already-opened input stream, writing to an already-opened output
// stream. Split out from Compile so tests can drive the pipeline over
// in-memory buffers instead of real files.
func compileSource(opts Options, in io.Reader, out io.Writer, stderr io.Writer) error {
	pool := intern.NewPool()
	lex := lexer.New(in, opts.Input, pool)
	p := parser.New(lex)

	decls, err := p.ParseTranslationUnit()
	if err != nil {
		return err
	}

	prog := codegen.Generate(decls, pool)

	e := emit.New(out, pool, opts.DebugLines)
	if err := e.Program(prog); err != nil {
		return fmt.Errorf("writing %s: %w", opts.Output, err)
	}
	return nil
}

func createOutput(path string) (*os.File, error) {
	if path == "" || path == "-" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, nil
}

package driver

import (
	"fmt"
	"io"
	"os"
)

// Diagnostics prints warnings to an output stream, per spec.md §7:
// warnings are reported but never terminate the compile. When the
// stream is a terminal, consecutive warnings get a blank separator line
// so a long run of them doesn't run together on a scrolling console;
// redirected output (a log file, a pipe) skips the separator since
// there's no scrolling to keep legible.
type Diagnostics struct {
	w          io.Writer
	isTerminal bool
	warnings   int
}

// NewDiagnostics wraps w, probing whether it is a terminal via a raw
// termios ioctl (the same style of direct x/sys use the emulator uses
// for its console device, rather than pulling in x/term's higher-level
// raw-mode wrapper this batch driver has no other use for).
func NewDiagnostics(w io.Writer) *Diagnostics {
	return &Diagnostics{w: w, isTerminal: isTerminalWriter(w)}
}

// Warn reports one non-fatal diagnostic.
func (d *Diagnostics) Warn(format string, args ...any) {
	if d.isTerminal && d.warnings > 0 {
		fmt.Fprintln(d.w)
	}
	fmt.Fprintf(d.w, "warning: %s\n", fmt.Sprintf(format, args...))
	d.warnings++
}

// Count reports how many warnings have been printed so far.
func (d *Diagnostics) Count() int { return d.warnings }

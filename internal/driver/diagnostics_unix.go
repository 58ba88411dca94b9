//go:build linux || darwin || freebsd || netbsd || openbsd

package driver

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// isTerminalWriter probes w with the raw termios ioctl x/sys exposes,
// per DESIGN.md's note on using x/sys directly for this one check
// rather than pulling in x/term for a batch driver that never needs
// raw-mode input.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	_, err := unix.IoctlGetTermios(int(f.Fd()), ioctlTermiosGet)
	return err == nil
}

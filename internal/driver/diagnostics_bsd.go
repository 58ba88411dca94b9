//go:build darwin || freebsd || netbsd || openbsd

package driver

import "golang.org/x/sys/unix"

const ioctlTermiosGet = unix.TIOCGETA

//go:build linux

package driver

import "golang.org/x/sys/unix"

const ioctlTermiosGet = unix.TCGETS

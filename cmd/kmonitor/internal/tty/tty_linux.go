//go:build linux
// +build linux

package tty

import (
	"os"

	"golang.org/x/sys/unix"
)

// setReadTimeout tunes VMIN/VTIME so reads return as soon as a single byte
// is available instead of waiting for a line, matching the semantics a
// real serial teletype gives you. term.MakeRaw already does most of this;
// this tightens VMIN/VTIME specifically, since MakeRaw's defaults are
// geared towards line editors, not a pass-through console.
func setReadTimeout(f *os.File) error {
	fd := int(f.Fd())

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}

	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(fd, unix.TCSETS, termios)
}

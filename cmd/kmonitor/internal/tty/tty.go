// Package tty puts the controlling terminal into raw mode for the
// duration of an attach session, so kmonitor can pass keystrokes straight
// through to the console-I/O channel without the local line discipline
// eating control characters.
package tty

import (
	"errors"
	"os"

	"golang.org/x/term"
)

// ErrNoTTY is returned by Raw when stdin is not a terminal (e.g. piped
// input during a scripted test run).
var ErrNoTTY = errors.New("tty: stdin is not a terminal")

// Raw puts stdin into raw mode and returns a function that restores its
// original state. Callers must defer the returned function.
func Raw() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}

	if err := setReadTimeout(os.Stdin); err != nil {
		_ = term.Restore(fd, state)
		return nil, err
	}

	return func() { _ = term.Restore(fd, state) }, nil
}

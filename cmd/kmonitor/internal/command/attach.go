// Package command implements kmonitor's sub-commands.
package command

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/lightap/Microkernel-OS-sub001/cmd/kmonitor/internal/log"
	"github.com/lightap/Microkernel-OS-sub001/cmd/kmonitor/internal/tty"
	"github.com/lightap/Microkernel-OS-sub001/cmd/kmonitor/internal/wire"
)

// Attach connects to a running kernel's emulated serial port (a QEMU
// `-serial unix:path,server` socket) and streams console-I/O messages in
// both directions: kernel output to the local terminal, local keystrokes
// back as raw bytes.
type Attach struct {
	fs *flag.FlagSet
}

// NewAttach constructs the attach sub-command.
func NewAttach() *Attach {
	fs := flag.NewFlagSet("attach", flag.ContinueOnError)
	return &Attach{fs: fs}
}

// FlagSet implements cli.Command.
func (a *Attach) FlagSet() *flag.FlagSet { return a.fs }

// Description implements cli.Command.
func (a *Attach) Description() string {
	return "attach to a running kernel's serial console socket"
}

// Run implements cli.Command. args[0] must be the unix socket path QEMU
// was told to expose via -serial unix:<path>,server.
func (a *Attach) Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		fmt.Fprintln(out, "usage: kmonitor attach <socket-path>")
		return 1
	}

	conn, err := net.Dial("unix", args[0])
	if err != nil {
		logger.Error("dial failed", "socket", args[0], "err", err)
		return 1
	}
	defer conn.Close()

	restore, err := tty.Raw()
	if err != nil {
		logger.Warn("stdin is not a terminal, running non-interactively", "err", err)
	} else {
		defer restore()
	}

	done := make(chan struct{})
	go readLoop(conn, out, logger, done)
	go writeLoop(ctx, conn, logger)

	select {
	case <-ctx.Done():
	case <-done:
	}
	return 0
}

// readLoop decodes fixed-size wire.Message frames off conn and writes any
// console-I/O bytes straight through to out.
func readLoop(conn net.Conn, out io.Writer, logger *log.Logger, done chan<- struct{}) {
	defer close(done)

	buf := make([]byte, wire.Size)
	for {
		if _, err := io.ReadFull(conn, buf); err != nil {
			if err != io.EOF {
				logger.Error("read failed", "err", err)
			}
			return
		}

		msg := wire.DecodeMessage(buf)
		if msg.Kind != wire.TypeConsoleIO {
			continue
		}

		cio := wire.ConsoleIO(msg)
		n := int(cio.Length)
		if n > len(cio.Bytes) {
			n = len(cio.Bytes)
		}
		out.Write(cio.Bytes[:n])
	}
}

// writeLoop forwards local keystrokes to conn as raw bytes; the server
// side of the console collaborator is responsible for wrapping them back
// into a console-I/O message before delivering them to whatever task is
// receiving on the console channel.
func writeLoop(ctx context.Context, conn net.Conn, logger *log.Logger) {
	r := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b, err := r.ReadByte()
		if err != nil {
			if err != io.EOF {
				logger.Error("stdin read failed", "err", err)
			}
			return
		}
		if _, err := conn.Write([]byte{b}); err != nil {
			logger.Error("write failed", "err", err)
			return
		}
	}
}

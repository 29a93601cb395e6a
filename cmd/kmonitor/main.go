// Command kmonitor is a host-side serial console client: it attaches to a
// running kernel's emulated serial port and drives it as a teletype,
// decoding the console-I/O message shape as it streams across the wire.
package main

import (
	"context"
	"os"

	"github.com/lightap/Microkernel-OS-sub001/cmd/kmonitor/internal/cli"
	"github.com/lightap/Microkernel-OS-sub001/cmd/kmonitor/internal/command"
)

func main() {
	attach := command.NewAttach()
	help := command.NewHelp(
		[]string{attach.FlagSet().Name()},
		[]string{attach.Description()},
	)

	code := cli.New(context.Background()).
		WithLogger(os.Stderr).
		WithCommands([]cli.Command{attach}).
		WithHelp(help).
		Execute(os.Args[1:])

	os.Exit(code)
}

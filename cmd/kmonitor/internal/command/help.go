package command

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/lightap/Microkernel-OS-sub001/cmd/kmonitor/internal/log"
)

// Help is the default command run when no sub-command matches.
type Help struct {
	fs       *flag.FlagSet
	commands []interface{ Description() string }
}

// NewHelp constructs the help sub-command, listing names alongside descs.
func NewHelp(names []string, descs []string) *Help {
	fs := flag.NewFlagSet("help", flag.ContinueOnError)
	h := &Help{fs: fs}
	for i := range names {
		i := i
		h.commands = append(h.commands, describer{names[i], descs[i]})
	}
	return h
}

type describer struct {
	name string
	desc string
}

func (d describer) Description() string { return d.name + " - " + d.desc }

// FlagSet implements cli.Command.
func (h *Help) FlagSet() *flag.FlagSet { return h.fs }

// Description implements cli.Command.
func (h *Help) Description() string { return "show this help message" }

// Run implements cli.Command.
func (h *Help) Run(_ context.Context, _ []string, out io.Writer, _ *log.Logger) int {
	fmt.Fprintln(out, "kmonitor - serial console client for a running kernel")
	fmt.Fprintln(out, "commands:")
	for _, c := range h.commands {
		fmt.Fprintln(out, "  "+c.Description())
	}
	return 0
}

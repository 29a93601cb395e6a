// Package cli contains kmonitor's command-line interface.
package cli

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/lightap/Microkernel-OS-sub001/cmd/kmonitor/internal/log"
)

// Command is a single kmonitor sub-command.
type Command interface {
	// FlagSet returns the flags this command accepts; its Name identifies
	// the sub-command word on the CLI.
	FlagSet() *flag.FlagSet

	// Description is a one-line summary shown in help output.
	Description() string

	// Run executes the command. Output should go to out; it returns a
	// process exit code.
	Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int
}

// Commander runs a single sub-command chosen from argv[0].
type Commander struct {
	ctx context.Context
	log *log.Logger

	help     Command
	commands []Command
}

// New creates a Commander bound to ctx.
func New(ctx context.Context) *Commander {
	return &Commander{ctx: ctx}
}

// WithCommands registers cmds as the available sub-commands.
func (c *Commander) WithCommands(cmds []Command) *Commander {
	c.commands = append([]Command(nil), cmds...)
	return c
}

// WithHelp sets the command run when no sub-command (or an unknown one) is
// given.
func (c *Commander) WithHelp(cmd Command) *Commander {
	c.help = cmd
	return c
}

// WithLogger installs a formatted logger writing to out and makes it the
// process-wide slog default.
func (c *Commander) WithLogger(out *os.File) *Commander {
	logger := log.NewFormattedLogger(out)
	c.log = logger
	log.SetDefault(logger)
	return c
}

// Execute parses args and runs the matching sub-command.
func (c *Commander) Execute(args []string) int {
	if len(args) == 0 {
		return c.help.Run(c.ctx, nil, os.Stdout, c.log)
	}

	found := c.help
	for _, cmd := range c.commands {
		if cmd.FlagSet().Name() == args[0] {
			found = cmd
			break
		}
	}

	fs := found.FlagSet()
	if err := fs.Parse(args[1:]); err != nil {
		c.log.Error("parse error", "err", err)
		return 1
	}

	return found.Run(c.ctx, fs.Args(), os.Stdout, c.log)
}

// Type aliases from stdlib flag, to reduce symbol stutter at call sites.
type (
	FlagSet = flag.FlagSet
)

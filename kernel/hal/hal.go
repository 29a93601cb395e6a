// Package hal defines the narrow interfaces through which the core reaches
// the three external collaborators spec.md §1 calls out: a boot loader that
// hands over memory size, a monotonic clock that drives preemption, and a
// console that receives panic/debug output. None of the three is
// implemented here — drivers, the console, and the bootloader glue are all
// explicitly out of scope for the core (spec.md §1) and live outside this
// module's kernel/ tree.
package hal

import (
	"io"

	"github.com/lightap/Microkernel-OS-sub001/kernel/kfmt"
)

// Console is the external collaborator that receives the core's formatted
// output (panic banners, early boot diagnostics, debug_log syscall text).
type Console interface {
	io.Writer
}

// Clock is the external, monotonic tick source. Init is called once during
// boot with the function the clock must invoke on every tick; the clock
// collaborator owns the hardware timer (PIT/APIC) and its IRQ wiring.
type Clock interface {
	Init(tick func())
}

// Boot is the external collaborator that calls into the core's entry point
// once, handing over the amount of installed RAM.
type Boot interface {
	MemKB() uint32
}

var activeConsole Console

// SetConsole installs c as the target for kfmt.Printf output. Passing nil
// reverts to kfmt's internal early ring buffer.
func SetConsole(c Console) {
	activeConsole = c
	kfmt.SetOutputSink(c)
}

// ActiveConsole returns the console installed via SetConsole, or nil if
// none has been installed yet.
func ActiveConsole() Console {
	return activeConsole
}

// Package irq installs the segment descriptor tables (GDT, TSS, IDT),
// remaps the legacy 8259A interrupt controller and dispatches exceptions,
// hardware IRQs and the syscall vector to registered handlers.
package irq

import (
	"io"

	"github.com/lightap/Microkernel-OS-sub001/kernel/kfmt"
)

// Registers is the snapshot of general-purpose registers and segment state
// saved by the common entry stub before the dispatcher runs. It mirrors the
// layout pushed onto the stack by the exception/syscall and IRQ stubs.
type Registers struct {
	DS uint32

	EDI, ESI, EBP, ESPDummy, EBX, EDX, ECX, EAX uint32

	// VectorOrSyscallNo carries the interrupt vector pushed by the stub. For
	// a syscall this is the syscall vector (0x80); the syscall number itself
	// is in EAX.
	VectorOrSyscallNo uint32

	// ErrorCode is the hardware-pushed error code for the exceptions that
	// have one (8, 10-14, 17); zero otherwise.
	ErrorCode uint32

	// The CPU-pushed return frame. EIP/CS/EFLAGS are always present;
	// UserESP/UserSS are only present on a ring-3 -> ring-0 transition.
	EIP, CS, EFLAGS uint32
	UserESP, UserSS uint32
}

// DumpTo writes a human-readable register dump to w.
func (r *Registers) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "EAX=%8x EBX=%8x ECX=%8x EDX=%8x\n", r.EAX, r.EBX, r.ECX, r.EDX)
	kfmt.Fprintf(w, "ESI=%8x EDI=%8x EBP=%8x DS =%8x\n", r.ESI, r.EDI, r.EBP, r.DS)
	kfmt.Fprintf(w, "EIP=%8x CS =%8x EFLAGS=%8x\n", r.EIP, r.CS, r.EFLAGS)
}

// InUserMode reports whether the saved CS selector's RPL is ring 3.
func (r *Registers) InUserMode() bool {
	return r.CS&0x3 == 3
}

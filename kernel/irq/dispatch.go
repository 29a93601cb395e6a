package irq

import "github.com/lightap/Microkernel-OS-sub001/kernel/kfmt"

// ExceptionHandler handles a CPU exception (vectors 0-31). Its return value
// is interpreted the same way an IRQHandler's is: non-zero means the
// interrupted task is gone and the stub must resume on a different task's
// stack instead, e.g. a user-mode page fault killing the faulting task.
type ExceptionHandler func(regs *Registers) uintptr

// IRQHandler handles a remapped hardware interrupt (vectors 32-47, IRQ
// numbers 0-15). A non-zero return value is interpreted by the IRQ stub as
// the stack pointer of a different task to resume; returning 0 continues on
// the interrupted task's own stack. Only the timer handler (the scheduler's
// tick) is expected to ever return non-zero.
type IRQHandler func(regs *Registers) uintptr

// SyscallHandler handles the software interrupt ring-3 code uses to enter
// the kernel.
type SyscallHandler func(regs *Registers)

var (
	exceptionHandlers [32]ExceptionHandler
	irqHandlers       [16]IRQHandler
	syscallHandlerFn  SyscallHandler
)

// HandleException registers h to run for the given exception vector (0-31).
func HandleException(vector uint8, h ExceptionHandler) {
	exceptionHandlers[vector] = h
}

// HandleIRQ registers h to run for the given IRQ line (0-15).
func HandleIRQ(irqLine uint8, h IRQHandler) {
	irqHandlers[irqLine] = h
}

// HandleSyscall registers the single syscall dispatcher.
func HandleSyscall(h SyscallHandler) {
	syscallHandlerFn = h
}

// dispatchFromStub is invoked by commonStub (isr_stubs_386.s) with a
// pointer to the saved register frame. Its return value becomes the stack
// pointer the stub resumes on, or 0 to stay on the current stack.
func dispatchFromStub(regs *Registers) uintptr {
	vector := regs.VectorOrSyscallNo

	switch {
	case vector < 32:
		if h := exceptionHandlers[vector]; h != nil {
			return h(regs)
		}
		return unhandledException(regs)

	case vector < 48:
		irqLine := uint8(vector - IRQBase)
		var newESP uintptr
		if h := irqHandlers[irqLine]; h != nil {
			newESP = h(regs)
		}
		acknowledge(irqLine)
		return newESP

	case vector == syscallVector:
		if syscallHandlerFn != nil {
			syscallHandlerFn(regs)
		}
		return 0
	}

	return 0
}

func unhandledException(regs *Registers) uintptr {
	kfmt.Printf("\nunhandled exception %d (error code %d)\n", regs.VectorOrSyscallNo, regs.ErrorCode)
	regs.DumpTo(kfmt.GetOutputSink())
	kfmt.Panic("unhandled exception")
	return 0
}

// Init installs the GDT/TSS, remaps the PIC and loads the IDT. Every
// HandleException/HandleIRQ/HandleSyscall registration made after Init
// takes effect immediately since the tables are consulted per-interrupt.
func Init() {
	InitGDT()
	RemapPIC()
	InitIDT()
}

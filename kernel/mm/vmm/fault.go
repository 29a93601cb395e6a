package vmm

import (
	"github.com/lightap/Microkernel-OS-sub001/kernel/cpu"
	"github.com/lightap/Microkernel-OS-sub001/kernel/irq"
	"github.com/lightap/Microkernel-OS-sub001/kernel/kfmt"
)

var (
	readCR2Fn         = cpu.ReadCR2
	handleExceptionFn = irq.HandleException
	killCurrentTaskFn func(regs *irq.Registers) uintptr
)

// SetTaskKiller lets the task package hand vmm a callback that kills the
// currently running task and picks the next one to run, without vmm
// importing task directly (task already depends on vmm for address-space
// teardown). Its return value is the replacement task's stack pointer, in
// the same sense an IRQHandler's is, so the fault never IRETs back into the
// now-destroyed address space it came from.
func SetTaskKiller(kill func(regs *irq.Registers) uintptr) {
	killCurrentTaskFn = kill
}

func installPageFaultHandler() {
	handleExceptionFn(uint8(irq.PageFaultVector), pageFaultHandler)
}

// pageFaultHandler reads CR2 for the faulting address. If the faulting
// task is a user process, the task is killed and the scheduler picks the
// next runnable task to resume on — the fault can never be retried, so
// staying on the faulting task's stack is not an option. Otherwise the
// fault occurred in the kernel itself, which is unrecoverable, and the
// system halts. There is no copy-on-write retry path: every present user
// mapping is backed by a real frame from the moment MapUser installs it, so
// a fault on a present page is always a protection violation, never a
// lazy-fill opportunity.
func pageFaultHandler(regs *irq.Registers) uintptr {
	faultAddr := readCR2Fn()

	if regs.InUserMode() {
		kfmt.Printf("\nuser page fault at %#x (task killed)\n", faultAddr)
		if killCurrentTaskFn != nil {
			return killCurrentTaskFn(regs)
		}
		return 0
	}

	kfmt.Printf("\nunrecoverable kernel page fault at %#x\n", faultAddr)
	regs.DumpTo(kfmt.GetOutputSink())
	kfmt.Panic("kernel page fault")
	return 0
}

// Package kmain wires together every freestanding subsystem into a single
// boot sequence. It is the last stop before control passes to the idle
// task and, eventually, whatever server the boot image loads first.
package kmain

import (
	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/cpu"
	"github.com/lightap/Microkernel-OS-sub001/kernel/goruntime"
	"github.com/lightap/Microkernel-OS-sub001/kernel/hal"
	"github.com/lightap/Microkernel-OS-sub001/kernel/hal/boot"
	"github.com/lightap/Microkernel-OS-sub001/kernel/ipc"
	"github.com/lightap/Microkernel-OS-sub001/kernel/irq"
	"github.com/lightap/Microkernel-OS-sub001/kernel/kfmt"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/pmm"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/vmm"
	"github.com/lightap/Microkernel-OS-sub001/kernel/syscall"
	"github.com/lightap/Microkernel-OS-sub001/kernel/task"
)

// errKmainReturned is panicked with if Kmain's outer loop is ever left,
// which should not be possible: Kmain intentionally never returns.
var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// tickRateHz is the timer IRQ frequency the scheduler's quantum accounting
// assumes. The clock collaborator installed via hal.Clock is responsible
// for actually ticking the PIT/APIC at this rate.
const tickRateHz = 100

// Kmain is the only Go symbol the rt0 entry stub calls. It is invoked once,
// after rt0 has built a minimal g0 and handed it a stack, with the
// multiboot2 info pointer and the physical bounds of the loaded kernel
// image. Kmain never returns; if every subsystem initializes cleanly it
// falls through to an idle halt loop that the timer IRQ preempts away from
// as soon as another task is runnable.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	var info boot.Info
	info.SetInfoPtr(multibootInfoPtr)
	memKB := info.MemKB()
	if memKB == 0 {
		kfmt.Panic(&kernel.Error{Module: "kmain", Message: "multiboot2 basic memory info tag missing"})
	}

	pmm.Init(memKB, kernelStart, kernelEnd)

	if err := vmm.Init(memKB); err != nil {
		kfmt.Panic(err)
	}

	if err := goruntime.Init(); err != nil {
		kfmt.Panic(err)
	}

	irq.Init()
	task.Init(tickRateHz)

	vmm.SetTaskKiller(killFaultingTask)
	task.SetExitHook(ipc.ScrubPID)

	irq.HandleIRQ(irq.TimerIRQLine, task.TimerTick)
	irq.HandleSyscall(syscall.Dispatch)

	if hal.ActiveConsole() == nil {
		kfmt.Printf("mikron: no console driver attached yet, using early ring buffer\n")
	}
	kfmt.Printf("mikron: %d KB usable, scheduler online at %d Hz\n", memKB, tickRateHz)

	cpu.EnableInterrupts()
	for {
		cpu.Halt()
	}

	kfmt.Panic(errKmainReturned)
}

// killFaultingTask is handed to vmm.SetTaskKiller so a user-mode page fault
// can terminate the faulting task without kernel/mm/vmm importing
// kernel/task directly (task already imports vmm for address-space
// teardown, and a cycle there is not an option). It returns the next
// runnable task's stack pointer so the IRQ stub resumes there instead of
// IRET-ing back into the address space that was just torn down.
func killFaultingTask(regs *irq.Registers) uintptr {
	return task.KillCurrent(regs)
}

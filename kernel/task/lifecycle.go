package task

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/irq"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mem"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/pmm"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/vmm"
)

// ErrTaskTableFull is returned by Create when every slot is occupied.
var ErrTaskTableFull = &kernel.Error{Module: "task", Message: "task table is full"}

// CreateParams describes a new task's initial placement. EntryPoint and
// UserStackTop together seed the interrupt-return frame that lets the new
// task start execution via the normal IRQ-stub resume path, the same one
// every preemptive switch uses.
type CreateParams struct {
	Name            string
	Priority        uint8
	Quantum         uint32
	IsUser          bool
	AddressSpace    vmm.Directory
	HasAddressSpace bool
	EntryPoint      uintptr
	UserStackTop    uintptr
	UserStackBase   uintptr
	UserStackSize   uintptr
	KernelStackBase uintptr
	KernelStackSize uintptr
	StackOwner      StackOwner
	HasIOPrivilege  bool
	HeapBase        uintptr
	HeapSize        uintptr
}

// Create finds a free slot, builds the PCB and seeds its kernel stack with
// an interrupt-return frame matching what the exception/syscall stub would
// have saved for a task that was always running. Returns the negative
// sentinel -1 (as *kernel.Error) if the table is full.
func Create(p CreateParams) (int32, *kernel.Error) {
	slot := -1
	for i := 1; i < MaxTasks; i++ {
		if !tasks[i].Active {
			slot = i
			break
		}
	}
	if slot == -1 {
		return -1, ErrTaskTableFull
	}

	pid := nextPID
	nextPID++

	pcb := &tasks[slot]
	*pcb = PCB{
		PID:             pid,
		Name:            p.Name,
		Active:          true,
		State:           StateReady,
		Priority:        p.Priority,
		Quantum:         p.Quantum,
		TicksRemaining:  p.Quantum,
		UserStackBase:   p.UserStackBase,
		UserStackSize:   p.UserStackSize,
		KernelStackBase: p.KernelStackBase,
		KernelStackSize: p.KernelStackSize,
		StackOwner:      p.StackOwner,
		AddressSpace:    p.AddressSpace,
		HasAddressSpace: p.HasAddressSpace,
		IsUser:          p.IsUser,
		HasIOPrivilege:  p.HasIOPrivilege,
		HeapBase:        p.HeapBase,
		HeapNext:        p.HeapBase,
		HeapLimit:       p.HeapBase + p.HeapSize,
	}

	pcb.StackPointer = buildInitialFrame(p)
	return pid, nil
}

// buildInitialFrame writes an irq.Registers value at the top of the task's
// kernel stack (the same layout the exception/syscall stub saves) so that
// the scheduler's ordinary "resume at this stack pointer" path can start
// the task for the first time with no special-case code.
func buildInitialFrame(p CreateParams) uintptr {
	top := p.KernelStackBase + p.KernelStackSize
	frameAddr := (top - unsafe.Sizeof(irq.Registers{})) &^ 0xF

	eflags := uint32(0x202) // IF set
	if p.IsUser && p.HasIOPrivilege {
		eflags |= 0x3000 // IOPL=3
	}
	regs := (*irq.Registers)(unsafe.Pointer(frameAddr))
	*regs = irq.Registers{
		EIP:     uint32(p.EntryPoint),
		EFLAGS:  eflags,
		UserESP: uint32(p.UserStackTop),
	}
	if p.IsUser {
		regs.CS = uint32(irq.SelectorUserCode)
		regs.DS = uint32(irq.SelectorUserData)
		regs.UserSS = uint32(irq.SelectorUserData)
	} else {
		regs.CS = uint32(irq.SelectorKernelCode)
		regs.DS = uint32(irq.SelectorKernelData)
	}
	return frameAddr
}

// Exit terminates the current task. Infallible once the PCB exists: it
// frees the user stack only if this PCB owns it on the kernel heap (an
// address-space-backed stack is reclaimed implicitly by
// DestroyAddressSpace), frees the kernel stack, switches CR3 to the kernel
// space if the dying process's directory is active, and destroys the
// address space.
func Exit() {
	kill(Current())
	Yield()
}

// Kill terminates the task identified by pid. A no-op if no such active
// task exists.
func Kill(pid int32) {
	if t := ByPID(pid); t != nil {
		kill(t)
	}
}

// KillCurrent terminates the currently running task and immediately hands
// back the next runnable task's stack pointer, mirroring doSwitch's
// reschedule. Unlike Exit/Kill, the caller here is not the task itself
// asking to stop cooperatively — it is a fault handler running on the
// victim's own interrupt stack — so there is no task left to spin in
// Yield's wait loop: the only way the dying task ever leaves the CPU is by
// the IRQ stub resuming a different task's saved frame.
func KillCurrent(regs *irq.Registers) uintptr {
	cur := &tasks[currentIdx]
	kill(cur)

	next := selectNext()
	nt := &tasks[next]
	nt.State = StateRunning
	nt.SwitchCount++
	currentIdx = next

	if nt.HasAddressSpace {
		setKernelStackFn(nt.KernelStackBase + nt.KernelStackSize)
		switchFn(nt.AddressSpace)
	}
	return nt.StackPointer
}

// exitHookFn is invoked with a task's pid right before its slot is
// deactivated. kmain wires this to ipc.ScrubPID so a dead process's service
// registrations cannot shadow a later registration forever; task itself
// cannot import ipc, since ipc already imports task for PCB access.
var exitHookFn func(pid int32)

// SetExitHook installs the callback kill runs on every task's exit.
func SetExitHook(f func(pid int32)) { exitHookFn = f }

func kill(t *PCB) {
	if t.PID == 0 || !t.Active {
		return
	}

	if t.StackOwner == StackOwnerKernelHeap && t.UserStackBase != 0 {
		freeRange(t.UserStackBase, t.UserStackSize)
	}
	if t.KernelStackBase != 0 {
		freeRange(t.KernelStackBase, t.KernelStackSize)
	}

	if t.HasAddressSpace {
		if vmm.Active().Frame == t.AddressSpace.Frame {
			vmm.Switch(vmm.KernelDirectory())
		}
		vmm.DestroyAddressSpace(t.AddressSpace)
	}

	if exitHookFn != nil {
		exitHookFn(t.PID)
	}

	t.State = StateTerminated
	t.Active = false
}

func freeRange(base, size uintptr) {
	pages := (size + mem.PageSize - 1) / mem.PageSize
	for i := uintptr(0); i < pages; i++ {
		freeFrameFn(pmm.FrameForAddress(base + i*mem.PageSize))
	}
}

var freeFrameFn = pmm.Free

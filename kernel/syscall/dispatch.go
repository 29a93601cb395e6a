package syscall

import (
	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/hal"
	"github.com/lightap/Microkernel-OS-sub001/kernel/ipc"
	"github.com/lightap/Microkernel-OS-sub001/kernel/irq"
	"github.com/lightap/Microkernel-OS-sub001/kernel/kfmt"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mem"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/pmm"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/vmm"
	"github.com/lightap/Microkernel-OS-sub001/kernel/task"
)

// irqOwners records which PID (0 = none) owns each of the 16 IRQ lines, so
// RegisterIRQ can report an already-owned line without re-reading the irq
// package's own handler table.
var irqOwners [16]int32

// allocFrameFn/freeFrameFn/mapUserFn are the pmm/vmm entry points sysMalloc
// drives, broken out as package vars so tests can exercise the heap-growth
// bookkeeping without touching real physical memory.
var (
	allocFrameFn = pmm.Alloc
	freeFrameFn  = pmm.Free
	mapUserFn    = vmm.MapUser
)

// ticksElapsedFn lets tests substitute a fixed tick counter instead of
// reading the scheduler's real one.
var ticksElapsedFn = func() uint64 { return 0 }

// Dispatch is installed via irq.HandleSyscall. It never blocks on its own:
// syscalls that suspend the caller (send/receive/sendrec, sleep, exit) do
// so by calling directly into the scheduler/IPC subsystems, which return
// control to the caller's own resumed context, not to Dispatch.
func Dispatch(regs *irq.Registers) {
	num := Number(regs.EAX)
	a0, a1, a2 := uintptr(regs.EBX), uintptr(regs.ECX), uintptr(regs.EDX)

	var result uint32
	switch num {
	case SysWrite:
		result = sysWrite(a0, uint32(a1))
	case SysRead:
		result = sysRead(a0, uint32(a1))
	case SysGetPID:
		result = uint32(task.Current().PID)
	case SysExit:
		task.Exit()
		result = 0
	case SysSleep:
		task.Sleep(uint32(a0))
		result = 0
	case SysGetTicks:
		result = uint32(ticksElapsedFn())
	case SysMalloc:
		result = sysMalloc(uint32(a0))
	case SysFree:
		result = 0 // bump allocator: individual frees are a no-op
	case SysSend:
		result = toResult(sysSend(int32(a0), a1))
	case SysReceive:
		result = toResult(sysReceive(int32(a0), a1))
	case SysSendRec:
		result = toResult(sysSendRec(int32(a0), a1))
	case SysReply:
		result = toResult(sysReply(int32(a0), a1))
	case SysNotify:
		result = toResult(sysNotify(int32(a0), a1))
	case SysRegisterService:
		result = toResult(sysRegisterService(a0, uint32(a1)))
	case SysLookupService:
		result = sysLookupService(a0, uint32(a1))
	case SysGrantIO:
		result = toResult(sysGrantIO(regs, int32(a0)))
	case SysRegisterIRQ:
		result = toResult(sysRegisterIRQ(uint8(a0)))
	case SysCreateTask:
		result = sysCreateTask(a0, uint32(a1), uintptr(a2))
	case SysDebugLog:
		result = sysDebugLog(a0, uint32(a1))
	case SysDebugDump:
		result = toResult(sysDebugDump(a0))
	case SysGPUSubmit, SysGPUInit, SysGPUClear, SysGPUUpload, SysGPUSetMVP, SysGPUDraw, SysGPUPresent:
		result = gpuPassThroughFn(num, a0, uint32(a1))
	default:
		result = ErrBadSyscall
	}

	regs.EAX = result
}

func toResult(err *kernel.Error) uint32 {
	if err == nil {
		return 0
	}
	switch err {
	case errBadArg, ipc.ErrBadArgs:
		return ErrBadArg
	case errNoSuchProc, ipc.ErrNoSuchProcess:
		return ErrNoSuchProc
	case errOutOfMemory, ipc.ErrRegistryFull:
		return ErrOutOfMemory
	case errTableFull, task.ErrTaskTableFull:
		return ErrTableFull
	case ipc.ErrInvalidReplyState:
		return ErrIPC
	default:
		return ErrBadArg
	}
}

func sysWrite(bufAddr uintptr, length uint32) uint32 {
	buf, err := copyFromUser(bufAddr, length)
	if err != nil {
		return toResult(err)
	}
	c := hal.ActiveConsole()
	if c == nil {
		return ErrBadArg
	}
	n, _ := c.Write(buf)
	return uint32(n)
}

func sysRead(bufAddr uintptr, length uint32) uint32 {
	// No input device is wired into this kernel's boot contract; reads
	// always report end-of-input.
	return 0
}

func sysDebugLog(strAddr uintptr, length uint32) uint32 {
	buf, err := copyFromUser(strAddr, length)
	if err != nil {
		return toResult(err)
	}
	kfmt.Printf("[debug:%d] %s\n", task.Current().PID, string(buf))
	return uint32(len(buf))
}

// sysMalloc grows the caller's heap by size bytes (rounded up to whole
// pages), mapping freshly allocated frames at the next heap address; the
// frames are not cleared before mapping. A bump allocator: there is no general free, matching free()'s
// no-op contract above.
func sysMalloc(size uint32) uint32 {
	c := task.Current()
	if size == 0 || c.HeapLimit == 0 {
		return ErrBadArg
	}
	pages := (uintptr(size) + mem.PageSize - 1) / mem.PageSize
	if c.HeapNext+pages*mem.PageSize > c.HeapLimit {
		return ErrOutOfMemory
	}

	base := c.HeapNext
	for i := uintptr(0); i < pages; i++ {
		frame, err := allocFrameFn()
		if err != nil {
			return ErrOutOfMemory
		}
		if mErr := mapUserFn(c.AddressSpace, base+i*mem.PageSize, frame, vmm.FlagRW); mErr != nil {
			freeFrameFn(frame)
			return ErrOutOfMemory
		}
	}
	c.HeapNext += pages * mem.PageSize
	return uint32(base)
}

func sysSend(pid int32, msgAddr uintptr) *kernel.Error {
	raw, err := copyFromUser(msgAddr, uint32(ipc.Size))
	if err != nil {
		return err
	}
	m := ipc.Decode(raw)
	return ipc.Send(pid, &m)
}

func sysReceive(from int32, msgAddr uintptr) *kernel.Error {
	var m ipc.Message
	if err := ipc.Receive(from, &m); err != nil {
		return err
	}
	enc := ipc.Encode(m)
	return copyToUser(enc[:], msgAddr)
}

func sysSendRec(pid int32, msgAddr uintptr) *kernel.Error {
	raw, err := copyFromUser(msgAddr, uint32(ipc.Size))
	if err != nil {
		return err
	}
	m := ipc.Decode(raw)
	if err := ipc.SendRec(pid, &m); err != nil {
		return err
	}
	enc := ipc.Encode(m)
	return copyToUser(enc[:], msgAddr)
}

func sysReply(pid int32, msgAddr uintptr) *kernel.Error {
	raw, err := copyFromUser(msgAddr, uint32(ipc.Size))
	if err != nil {
		return err
	}
	m := ipc.Decode(raw)
	return ipc.Reply(pid, &m)
}

func sysNotify(pid int32, msgAddr uintptr) *kernel.Error {
	raw, err := copyFromUser(msgAddr, uint32(ipc.Size))
	if err != nil {
		return err
	}
	m := ipc.Decode(raw)
	return ipc.Notify(pid, &m)
}

func sysRegisterService(nameAddr uintptr, length uint32) *kernel.Error {
	buf, err := copyFromUser(nameAddr, length)
	if err != nil {
		return err
	}
	return ipc.Register(string(buf), task.Current().PID)
}

func sysLookupService(nameAddr uintptr, length uint32) uint32 {
	buf, err := copyFromUser(nameAddr, length)
	if err != nil {
		return toResult(err)
	}
	return uint32(ipc.Lookup(string(buf)))
}

// sysGrantIO grants I/O privilege unconditionally, per this design's
// resolution of the open question around capability checks. If target is
// the caller itself the change takes effect immediately on the current
// saved frame (callerRegs); otherwise it is patched into the target's own
// last-saved frame, which is live only once that task is next resumed.
func sysGrantIO(callerRegs *irq.Registers, target int32) *kernel.Error {
	t := task.ByPID(target)
	if t == nil {
		return errNoSuchProc
	}
	t.HasIOPrivilege = true

	if t.PID == task.Current().PID {
		callerRegs.EFLAGS |= 0x3000
		return nil
	}
	patchIOPLFn(t)
	return nil
}

func sysRegisterIRQ(line uint8) *kernel.Error {
	if line >= 16 || line == irq.TimerIRQLine {
		return errBadArg
	}
	pid := task.Current().PID
	irqOwners[line] = pid
	task.Current().OwnedIRQs |= 1 << line

	irq.HandleIRQ(line, func(*irq.Registers) uintptr {
		var m ipc.Message
		m.Kind = ipc.TypeIRQNotify
		m.SetIRQNotify(ipc.IRQNotifyPayload{IRQNum: uint32(line), Timestamp: ticksElapsedFn()})
		ipc.Notify(pid, &m)
		return 0
	})
	return nil
}

// sysCreateTask spawns a lightweight ring-3 task sharing the caller's own
// address space (a thread, not a process): entry must point inside memory
// already mapped by the caller.
func sysCreateTask(nameAddr uintptr, nameLen uint32, entry uintptr) uint32 {
	nameBuf, err := copyFromUser(nameAddr, nameLen)
	if err != nil {
		return toResult(err)
	}
	c := task.Current()

	kStack, kErr := allocKernelStackFn()
	if kErr != nil {
		return ErrOutOfMemory
	}

	pid, cErr := task.Create(task.CreateParams{
		Name:            string(nameBuf),
		Priority:        c.Priority,
		Quantum:         c.Quantum,
		IsUser:          true,
		AddressSpace:    c.AddressSpace,
		HasAddressSpace: c.HasAddressSpace,
		EntryPoint:      entry,
		UserStackTop:    c.UserStackBase + c.UserStackSize,
		KernelStackBase: kStack,
		KernelStackSize: defaultKernelStackSize,
		StackOwner:      task.StackOwnerKernelHeap,
	})
	if cErr != nil {
		return toResult(cErr)
	}
	return uint32(pid)
}

func sysDebugDump(bufAddr uintptr) *kernel.Error {
	snapshot := DumpSnapshot()
	return copyToUser(snapshot, bufAddr)
}

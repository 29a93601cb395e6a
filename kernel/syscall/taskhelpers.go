package syscall

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/irq"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mem"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/pmm"
	"github.com/lightap/Microkernel-OS-sub001/kernel/task"
)

// defaultKernelStackSize is the fixed kernel stack allocation for a
// syscall-spawned lightweight task: a single frame, so no contiguous
// multi-frame allocation is required from a bitmap allocator that makes no
// contiguity guarantee beyond one frame at a time.
const defaultKernelStackSize = mem.PageSize

// allocKernelStackFn allocates a single-frame kernel stack, returning its
// base address. Swappable in tests to avoid touching pmm/physical memory.
var allocKernelStackFn = func() (uintptr, *kernel.Error) {
	f, err := pmm.Alloc()
	if err != nil {
		return 0, errOutOfMemory
	}
	return f.Address(), nil
}

// patchIOPLFn rewrites the IOPL bits of a non-current task's last saved
// register frame so a deferred grant_io takes effect the next time that
// task resumes. A no-op if the task has never yet been scheduled away from
// (StackPointer is still zero).
var patchIOPLFn = func(t *task.PCB) {
	if t.StackPointer == 0 {
		return
	}
	regs := (*irq.Registers)(unsafe.Pointer(t.StackPointer))
	regs.EFLAGS |= 0x3000
}

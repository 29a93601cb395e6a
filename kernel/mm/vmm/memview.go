package vmm

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mem"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/pmm"
)

// tableViewFn returns the 1024-entry view backing frame f. Since the kernel
// identity-maps every managed physical frame at its own address (Init maps
// all RAM up to mem_kb 1:1), a frame's table contents are reachable by
// simply treating its physical address as a virtual one. Tests replace this
// with a view over ordinary Go-allocated memory, keyed by frame number.
var tableViewFn = func(f pmm.Frame) table {
	return (*[entriesPerTable]entry)(unsafe.Pointer(f.Address()))
}

var zeroFrameFn = func(f pmm.Frame) {
	kernel.Memset(f.Address(), 0, mem.PageSize)
}

package vmm

import (
	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mem"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/pmm"
)

// Two reserved kernel virtual addresses, just below the user/kernel split,
// used to transiently map a frame belonging to some other process's address
// space so the kernel can read/write it by virtual address while a
// completely unrelated directory may be active in CR3.
const (
	windowDirAddr   = mem.UserBase - 2*mem.PageSize
	windowTableAddr = mem.UserBase - mem.PageSize
)

// MapUser installs a user mapping in dir, which may not be the currently
// active directory. This is the core's most delicate address-space
// operation: it must work while CR3 points anywhere at all, since a process
// can ask the kernel to set up mappings in a sibling process it does not
// share an address space with (ELF loading, the GPU command-buffer
// ioctl-style syscalls). The final PTE gets flags plus FlagPresent|FlagUser
// and nothing else — e.g. FlagWriteThrough for the GPU command range is the
// caller's decision, not this function's.
func MapUser(dir Directory, virt uintptr, phys pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	savedCR3 := activePDTFn()
	if savedCR3 != kernelDir.Frame.Address() {
		switchPDTFn(kernelDir.Frame.Address())
	}

	if err := mapPageIn(kernelDir, windowDirAddr, dir.Frame, FlagRW); err != nil {
		switchPDTFn(savedCR3)
		return err
	}
	targetDirView := tableViewFn(dir.Frame)
	pde := &targetDirView[directoryIndex(virt)]

	var ptFrame pmm.Frame
	if pde.HasFlags(FlagPresent) {
		ptFrame = pde.Frame()
		pde.SetFlags(FlagUser)
	} else {
		f, err := allocFrameFn()
		if err != nil {
			unmapPageIn(kernelDir, windowDirAddr)
			switchPDTFn(savedCR3)
			return err
		}
		if err := mapPageIn(kernelDir, windowTableAddr, f, FlagRW); err != nil {
			unmapPageIn(kernelDir, windowDirAddr)
			switchPDTFn(savedCR3)
			return err
		}
		zeroFrameFn(f)
		unmapPageIn(kernelDir, windowTableAddr)

		ptFrame = f
		*pde = 0
		pde.SetFrame(ptFrame)
		pde.SetFlags(FlagPresent | FlagUser | FlagRW)
	}

	if err := mapPageIn(kernelDir, windowTableAddr, ptFrame, FlagRW); err != nil {
		unmapPageIn(kernelDir, windowDirAddr)
		switchPDTFn(savedCR3)
		return err
	}
	targetTableView := tableViewFn(ptFrame)
	pte := &targetTableView[tableIndex(virt)]
	*pte = 0
	pte.SetFrame(phys)
	pte.SetFlags(FlagPresent | FlagUser | flags)

	unmapPageIn(kernelDir, windowTableAddr)
	unmapPageIn(kernelDir, windowDirAddr)
	switchPDTFn(savedCR3)
	flushTLBEntryFn(virt)

	return nil
}

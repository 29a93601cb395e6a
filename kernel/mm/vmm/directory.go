package vmm

import (
	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/cpu"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mem"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/pmm"
)

// Directory identifies a page directory by the physical frame holding it.
type Directory struct {
	Frame pmm.Frame
}

var (
	allocFrameFn    = pmm.Alloc
	freeFrameFn     = pmm.Free
	flushTLBEntryFn = cpu.FlushTLBEntry
	switchPDTFn     = cpu.SwitchPDT
	activePDTFn     = cpu.ActivePDT
	enablePagingFn  = cpu.EnablePaging

	errOutOfMemory = &kernel.Error{Module: "vmm", Message: "out of physical frames"}
	// ErrNotPresent is returned when a virtual address has no mapping.
	ErrNotPresent = &kernel.Error{Module: "vmm", Message: "virtual address is not mapped"}
)

// kernelDir is the page directory built by Init; every other address space
// is derived from it.
var kernelDir Directory

// KernelDirectory returns the directory Init built for the kernel.
func KernelDirectory() Directory { return kernelDir }

func newDirectoryFrame() (pmm.Frame, *kernel.Error) {
	f, err := allocFrameFn()
	if err != nil {
		return pmm.InvalidFrame, err
	}
	zeroFrameFn(f)
	return f, nil
}

// mapPageIn installs virt->phys in dir, allocating a fresh page-table frame
// for the covering directory slot if one is not already present. It is the
// single low-level primitive every other mapping operation is built on.
func mapPageIn(dir Directory, virt uintptr, phys pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	dirView := tableViewFn(dir.Frame)
	dirIdx := directoryIndex(virt)
	pde := &dirView[dirIdx]

	var ptFrame pmm.Frame
	if pde.HasFlags(FlagPresent) {
		ptFrame = pde.Frame()
	} else {
		f, err := allocFrameFn()
		if err != nil {
			return err
		}
		zeroFrameFn(f)
		ptFrame = f
		*pde = 0
		pde.SetFrame(ptFrame)
		pde.SetFlags(FlagPresent | FlagRW)
		if flags&FlagUser != 0 {
			pde.SetFlags(FlagUser)
		}
	}

	ptView := tableViewFn(ptFrame)
	pte := &ptView[tableIndex(virt)]
	*pte = 0
	pte.SetFrame(phys)
	pte.SetFlags(FlagPresent | flags)

	return nil
}

// MapPage installs virt->phys in the kernel directory.
func MapPage(virt uintptr, phys pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	return mapPageIn(kernelDir, virt, phys, flags)
}

// MapRange maps size bytes of contiguous physical memory starting at
// physStart to virtStart bytes of virtual memory, one page at a time.
func MapRange(virtStart uintptr, physStart pmm.Frame, size mem.Size, flags PageTableEntryFlag) *kernel.Error {
	pages := (uintptr(size) + mem.PageSize - 1) / mem.PageSize
	for i := uintptr(0); i < pages; i++ {
		virt := virtStart + i*mem.PageSize
		phys := pmm.Frame(uint32(physStart) + uint32(i))
		if err := MapPage(virt, phys, flags); err != nil {
			return err
		}
	}
	return nil
}

// UnmapPage clears the entry for virt in the kernel directory and
// invalidates the TLB line for it.
func UnmapPage(virt uintptr) *kernel.Error {
	return unmapPageIn(kernelDir, virt)
}

func unmapPageIn(dir Directory, virt uintptr) *kernel.Error {
	dirView := tableViewFn(dir.Frame)
	pde := &dirView[directoryIndex(virt)]
	if !pde.HasFlags(FlagPresent) {
		return ErrNotPresent
	}

	ptView := tableViewFn(pde.Frame())
	pte := &ptView[tableIndex(virt)]
	if !pte.HasFlags(FlagPresent) {
		return ErrNotPresent
	}
	*pte = 0
	flushTLBEntryFn(virt)
	return nil
}

// Init builds the kernel address space: a page directory that identity
// maps every physical frame up to memKB as present+writable (supervisor
// only; the user-accessible decision is deferred to per-entry-table
// granularity so CreateAddressSpace can add it later), installs the
// page-fault handler and enables paging.
func Init(memKB uint32) *kernel.Error {
	dirFrame, err := newDirectoryFrame()
	if err != nil {
		return err
	}
	kernelDir = Directory{Frame: dirFrame}

	totalBytes := mem.Size(memKB) * mem.Kb
	pages := uintptr(totalBytes) / mem.PageSize
	for i := uintptr(0); i < pages; i++ {
		addr := i * mem.PageSize
		if err := mapPageIn(kernelDir, addr, pmm.Frame(i), FlagRW); err != nil {
			return err
		}
	}

	installPageFaultHandler()

	switchPDTFn(dirFrame.Address())
	enablePagingFn()
	return nil
}

// CreateAddressSpace allocates a new directory, and for every present
// kernel directory entry allocates a fresh page-table frame, copies every
// present entry with FlagUser added, and links it into the new directory
// with user-accessible permissions. The resulting process can reach the
// same low-memory code as the kernel from ring 3 (used for in-kernel-binary
// server programs).
func CreateAddressSpace() (Directory, *kernel.Error) {
	newFrame, err := newDirectoryFrame()
	if err != nil {
		return Directory{}, err
	}
	newDir := Directory{Frame: newFrame}

	kernelView := tableViewFn(kernelDir.Frame)
	newView := tableViewFn(newFrame)

	for idx := 0; idx < entriesPerTable; idx++ {
		kpde := kernelView[idx]
		if !kpde.HasFlags(FlagPresent) {
			continue
		}

		ptFrame, err := allocFrameFn()
		if err != nil {
			return Directory{}, err
		}
		zeroFrameFn(ptFrame)

		srcTable := tableViewFn(kpde.Frame())
		dstTable := tableViewFn(ptFrame)
		for pteIdx := 0; pteIdx < entriesPerTable; pteIdx++ {
			src := srcTable[pteIdx]
			if !src.HasFlags(FlagPresent) {
				continue
			}
			dst := src
			dst.SetFlags(FlagUser)
			dstTable[pteIdx] = dst
		}

		npde := &newView[idx]
		*npde = 0
		npde.SetFrame(ptFrame)
		npde.SetFlags(FlagPresent | FlagRW | FlagUser)
	}

	return newDir, nil
}

// CreateIsolatedSpace allocates a new directory and copies the kernel
// directory entries verbatim (supervisor-only, no FlagUser added), then
// clears every directory slot covering the user-address range so the user
// region starts empty. Used for ELF-loaded processes, whose ring-3 code
// must not be able to reach kernel memory.
func CreateIsolatedSpace() (Directory, *kernel.Error) {
	newFrame, err := newDirectoryFrame()
	if err != nil {
		return Directory{}, err
	}
	newDir := Directory{Frame: newFrame}

	kernelView := tableViewFn(kernelDir.Frame)
	newView := tableViewFn(newFrame)
	copy(newView[:], kernelView[:])

	userStartIdx := directoryIndex(mem.UserBase)
	for idx := userStartIdx; idx < entriesPerTable; idx++ {
		newView[idx] = 0
	}

	return newDir, nil
}

// DestroyAddressSpace frees every page-table frame in dir that is not the
// kernel's own page-table frame at the same directory slot, along with every
// data frame still mapped by the present entries of each such table, then
// frees the directory frame itself. The caller must have already switched
// CR3 away from dir.
func DestroyAddressSpace(dir Directory) {
	kernelView := tableViewFn(kernelDir.Frame)
	dirView := tableViewFn(dir.Frame)

	for idx := 0; idx < entriesPerTable; idx++ {
		pde := dirView[idx]
		if !pde.HasFlags(FlagPresent) {
			continue
		}
		if kernelView[idx].HasFlags(FlagPresent) && kernelView[idx].Frame() == pde.Frame() {
			continue
		}

		ptView := tableViewFn(pde.Frame())
		for pteIdx := 0; pteIdx < entriesPerTable; pteIdx++ {
			pte := ptView[pteIdx]
			if pte.HasFlags(FlagPresent) {
				freeFrameFn(pte.Frame())
			}
		}
		freeFrameFn(pde.Frame())
	}

	freeFrameFn(dir.Frame)
}

// Switch loads CR3 with dir's physical address.
func Switch(dir Directory) {
	switchPDTFn(dir.Frame.Address())
}

// Active returns the directory whose frame is currently loaded in CR3.
func Active() Directory {
	return Directory{Frame: pmm.FrameForAddress(activePDTFn())}
}

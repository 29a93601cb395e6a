package elf

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mem"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/pmm"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/vmm"
	"github.com/lightap/Microkernel-OS-sub001/kernel/task"
)

var (
	errBadImage    = &kernel.Error{Module: "elf", Message: "malformed or unsupported executable image"}
	errOutOfMemory = &kernel.Error{Module: "elf", Message: "out of physical frames"}
)

// defaultKernelStackSize is the fixed kernel stack allocation for an
// ELF-loaded task, mirroring the single-frame choice kernel/syscall makes
// for the same reason: pmm's bitmap allocator gives no multi-frame
// contiguity guarantee.
const defaultKernelStackSize = mem.PageSize

// Options controls the loader features a caller can opt into beyond the
// mandatory PT_LOAD segments and stack.
type Options struct {
	// MapVGA requests that the two legacy VGA text-mode pages be mapped
	// into the new process at mem.VGAVirtBase.
	MapVGA bool
	// IOPrivilege grants the loaded process an I/O-privilege-level of 3
	// on its initial interrupt-return frame, per spec.md §4.6 step 7.
	IOPrivilege bool
	// Priority and Quantum seed the new task's scheduling parameters.
	Priority uint8
	Quantum  uint32
}

// The function vars below are the allocation/mapping/teardown primitives
// Load drives, broken out so tests can exercise the step sequence and its
// failure-teardown behavior without touching real physical memory.
var (
	allocFrameFn         = pmm.Alloc
	freeFrameFn          = pmm.Free
	createIsolatedSpaceFn = vmm.CreateIsolatedSpace
	destroyAddressSpaceFn = vmm.DestroyAddressSpace
	mapUserFn            = vmm.MapUser
	createTaskFn         = task.Create

	// writeFrameFn copies n bytes from src into the frame f, zero-filling
	// the remainder of the page. Frames are addressable directly because
	// the kernel's own address space identity-maps all of RAM.
	writeFrameFn = func(f pmm.Frame, src []byte) {
		addr := f.Address()
		kernel.Memset(addr, 0, mem.PageSize)
		if len(src) > 0 {
			kernel.Memcopy(bytesAddr(src), addr, uintptr(len(src)))
		}
	}
)

func bytesAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// segmentFlags translates an ELF program header's permission bits into the
// mapping flags MapUser expects. Every loaded page is writable: this loader
// does not support read-only text segments, since the kernel has no
// copy-on-write or fault-time permission story yet.
func segmentFlags(ph ProgramHeader) vmm.PageTableEntryFlag {
	return vmm.FlagRW
}

// Load validates image as a 32-bit ELF executable, builds an isolated
// address space containing its PT_LOAD segments and a fixed-size user
// stack, and creates a ready-to-run task for it. Failure at any point after
// the address space is created fully tears down every allocation made so
// far before returning.
func Load(image []byte, name string, opts Options) (int32, *kernel.Error) {
	hdr, ok := parseHeader(image)
	if !ok {
		return -1, errBadImage
	}
	if hdr.Entry < uint32(mem.UserBase) {
		return -1, errBadImage
	}
	phEnd := uint32(hdr.Phoff) + uint32(hdr.Phnum)*programHeaderSize
	if hdr.Phnum == 0 || uint64(phEnd) > uint64(len(image)) {
		return -1, errBadImage
	}

	segments := make([]ProgramHeader, 0, hdr.Phnum)
	for i := uint16(0); i < hdr.Phnum; i++ {
		ph := parseProgramHeader(image, hdr.Phoff+uint32(i)*programHeaderSize)
		if ph.Type != PTLoad {
			continue
		}
		if uint64(ph.Offset)+uint64(ph.Filesz) > uint64(len(image)) {
			return -1, errBadImage
		}
		if ph.Filesz > ph.Memsz {
			return -1, errBadImage
		}
		if uintptr(ph.Vaddr) < mem.UserBase {
			return -1, errBadImage
		}
		segments = append(segments, ph)
	}
	if len(segments) == 0 {
		return -1, errBadImage
	}

	space, err := createIsolatedSpaceFn()
	if err != nil {
		return -1, err
	}

	if err := loadSegments(space, image, segments); err != nil {
		destroyAddressSpaceFn(space)
		return -1, err
	}

	stackBase, err := mapUserStack(space)
	if err != nil {
		destroyAddressSpaceFn(space)
		return -1, err
	}

	if opts.MapVGA {
		if err := mapVGA(space); err != nil {
			destroyAddressSpaceFn(space)
			return -1, err
		}
	}

	kStack, kErr := allocKernelStack()
	if kErr != nil {
		destroyAddressSpaceFn(space)
		return -1, kErr
	}

	pid, cErr := createTaskFn(task.CreateParams{
		Name:            name,
		Priority:        opts.Priority,
		Quantum:         opts.Quantum,
		IsUser:          true,
		AddressSpace:    space,
		HasAddressSpace: true,
		EntryPoint:      uintptr(hdr.Entry),
		UserStackTop:    mem.UserStackTop,
		UserStackBase:   stackBase,
		UserStackSize:   mem.UserStackPages * mem.PageSize,
		KernelStackBase: kStack,
		KernelStackSize: defaultKernelStackSize,
		StackOwner:      task.StackOwnerAddressSpace,
		HasIOPrivilege:  opts.IOPrivilege,
	})
	if cErr != nil {
		freeFrameFn(pmm.FrameForAddress(kStack))
		destroyAddressSpaceFn(space)
		return -1, cErr
	}
	return pid, nil
}

func loadSegments(space vmm.Directory, image []byte, segments []ProgramHeader) *kernel.Error {
	for _, ph := range segments {
		flags := segmentFlags(ph)
		pageCount := (uintptr(ph.Memsz) + mem.PageSize - 1) / mem.PageSize
		base := uintptr(ph.Vaddr) &^ (mem.PageSize - 1)

		for i := uintptr(0); i < pageCount; i++ {
			frame, err := allocFrameFn()
			if err != nil {
				return errOutOfMemory
			}

			writeFrameFn(frame, segmentPageContent(image, ph, i))

			if err := mapUserFn(space, base+i*mem.PageSize, frame, flags); err != nil {
				freeFrameFn(frame)
				return err
			}
		}
	}
	return nil
}

// segmentPageContent returns the slice of the file image that covers the
// i-th page of ph's in-memory image, clipped to Filesz: bytes beyond Filesz
// (the bss tail, or any page entirely past Filesz) are left as the zero
// fill writeFrameFn already applies.
func segmentPageContent(image []byte, ph ProgramHeader, pageIdx uintptr) []byte {
	pageVaddrStart := (uintptr(ph.Vaddr) &^ (mem.PageSize - 1)) + pageIdx*mem.PageSize
	segStart := uintptr(ph.Vaddr)
	segFileEnd := segStart + uintptr(ph.Filesz)

	if pageVaddrStart+mem.PageSize <= segStart || pageVaddrStart >= segFileEnd {
		return nil
	}

	winStart := pageVaddrStart
	if winStart < segStart {
		winStart = segStart
	}
	winEnd := pageVaddrStart + mem.PageSize
	if winEnd > segFileEnd {
		winEnd = segFileEnd
	}

	fileOff := uintptr(ph.Offset) + (winStart - segStart)
	fileEnd := fileOff + (winEnd - winStart)
	if fileEnd > uintptr(len(image)) {
		fileEnd = uintptr(len(image))
	}
	if fileOff >= fileEnd {
		return nil
	}

	// The destination page offset where this file data window begins.
	dstOff := winStart - pageVaddrStart
	page := make([]byte, mem.PageSize)
	copy(page[dstOff:], image[fileOff:fileEnd])
	return page
}

func mapUserStack(space vmm.Directory) (uintptr, *kernel.Error) {
	base := mem.UserStackTop - mem.UserStackPages*mem.PageSize
	for i := uintptr(0); i < mem.UserStackPages; i++ {
		frame, err := allocFrameFn()
		if err != nil {
			return 0, errOutOfMemory
		}
		writeFrameFn(frame, nil)
		if err := mapUserFn(space, base+i*mem.PageSize, frame, vmm.FlagRW); err != nil {
			freeFrameFn(frame)
			return 0, err
		}
	}
	return base, nil
}

func mapVGA(space vmm.Directory) *kernel.Error {
	const vgaPages = 2
	for i := uintptr(0); i < vgaPages; i++ {
		frame := pmm.FrameForAddress(mem.VGAPhysBase + i*mem.PageSize)
		if err := mapUserFn(space, mem.VGAVirtBase+i*mem.PageSize, frame, vmm.FlagRW); err != nil {
			return err
		}
	}
	return nil
}

func allocKernelStack() (uintptr, *kernel.Error) {
	f, err := allocFrameFn()
	if err != nil {
		return 0, errOutOfMemory
	}
	return f.Address(), nil
}

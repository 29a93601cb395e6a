// Package boot implements the multiboot2-lite collaborator described by
// spec.md §1: it reads the memory-size information out of the multiboot2
// info buffer the boot loader hands to the entry point and exposes it
// through hal.Boot. Everything else multiboot2 carries (framebuffer info,
// ELF section headers, command line) is outside the core's contract and is
// not decoded here.
package boot

import "unsafe"

type tagType uint32

const (
	tagEnd tagType = iota
	tagBootCmdLine
	tagBootLoaderName
	tagModules
	tagBasicMemoryInfo
	tagBiosBootDevice
	tagMemoryMap
)

type tagHeader struct {
	tagType tagType
	size    uint32
}

// basicMemoryInfo is the payload of the multiboot2 "basic memory
// information" tag: the size, in KB, of lower memory (below 1 MiB) and
// upper memory (from 1 MiB up to the first memory hole).
type basicMemoryInfo struct {
	memLowerKB uint32
	memUpperKB uint32
}

// Info reads a multiboot2 info buffer. The zero value reads nothing until
// SetInfoPtr installs a real buffer address.
type Info struct {
	ptr uintptr
}

// SetInfoPtr records the multiboot2 info buffer address the boot loader
// passed to the kernel entry point. Must be called before MemKB.
func (i *Info) SetInfoPtr(ptr uintptr) {
	i.ptr = ptr
}

// MemKB implements hal.Boot: it returns 1024 KiB (the fixed low-memory
// region every PC has) plus the upper-memory size reported by the basic
// memory info tag. Returns 0 if the tag is absent, which the boot
// collaborator's caller (kmain) treats as a fatal misconfiguration.
func (i *Info) MemKB() uint32 {
	ptr, size := i.findTag(tagBasicMemoryInfo)
	if size == 0 {
		return 0
	}
	info := (*basicMemoryInfo)(unsafe.Pointer(ptr))
	return 1024 + info.memUpperKB
}

// findTag scans the tag list starting 8 bytes into the info buffer (past
// the total-size/reserved header) for the first tag of the given type.
// Returns the address of the tag's payload (past its own 8-byte header)
// and the payload size, or (0, 0) if not found.
func (i *Info) findTag(want tagType) (uintptr, uint32) {
	if i.ptr == 0 {
		return 0, 0
	}

	cur := i.ptr + 8
	for {
		hdr := (*tagHeader)(unsafe.Pointer(cur))
		if hdr.tagType == tagEnd {
			return 0, 0
		}
		if hdr.tagType == want {
			return cur + 8, hdr.size - 8
		}
		// Tags are 8-byte aligned.
		cur += uintptr((hdr.size + 7) &^ 7)
	}
}

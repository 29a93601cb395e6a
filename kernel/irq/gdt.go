package irq

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel/cpu"
)

// Segment selectors. Index*8 | RPL, matching the descriptor table layout
// built by buildGDT.
const (
	SelectorKernelCode uint16 = 1*8 | 0
	SelectorKernelData uint16 = 2*8 | 0
	SelectorUserCode   uint16 = 3*8 | 3
	SelectorUserData   uint16 = 4*8 | 3
	SelectorTSS        uint16 = 5*8 | 0
)

const (
	gdtAccessPresent   = 1 << 7
	gdtAccessRing3     = 3 << 5
	gdtAccessCodeData  = 1 << 4
	gdtAccessExec      = 1 << 3
	gdtAccessRW        = 1 << 1
	gdtAccessTSSBusy32 = 0x09

	gdtFlagGranularity = 1 << 3
	gdtFlag32Bit       = 1 << 2
)

type gdtEntry struct {
	limitLow   uint16
	baseLow    uint16
	baseMiddle uint8
	access     uint8
	limitFlags uint8
	baseHigh   uint8
}

func makeGDTEntry(base uint32, limit uint32, access uint8, flags uint8) gdtEntry {
	return gdtEntry{
		limitLow:   uint16(limit & 0xFFFF),
		baseLow:    uint16(base & 0xFFFF),
		baseMiddle: uint8((base >> 16) & 0xFF),
		access:     access,
		limitFlags: uint8((limit>>16)&0xF) | (flags << 4),
		baseHigh:   uint8((base >> 24) & 0xFF),
	}
}

// tss is the 32-bit task state segment. Only the fields the kernel actually
// uses (the ring-0 stack pointer/segment and the I/O permission bitmap
// offset) are meaningfully populated; the rest stay zero.
type tss struct {
	prevTask        uint16
	_pad0           uint16
	esp0            uint32
	ss0             uint16
	_pad1           uint16
	rest            [22]uint32
	trapFlags       uint16
	ioMapBaseOffset uint16
}

var (
	gdt [6]gdtEntry
	kernelTSS tss

	loadGDTFn = cpu.LoadGDT
	loadTSSFn = cpu.LoadTSS
)

type gdtPtr struct {
	limit uint16
	base  uint32
}

// InitGDT builds the flat kernel/user code and data segments plus the TSS
// descriptor, and loads them. It must run before InitIDT since the IDT gate
// descriptors reference SelectorKernelCode.
func InitGDT() {
	gdt[0] = gdtEntry{}
	gdt[1] = makeGDTEntry(0, 0xFFFFF, gdtAccessPresent|gdtAccessCodeData|gdtAccessExec|gdtAccessRW, gdtFlagGranularity|gdtFlag32Bit)
	gdt[2] = makeGDTEntry(0, 0xFFFFF, gdtAccessPresent|gdtAccessCodeData|gdtAccessRW, gdtFlagGranularity|gdtFlag32Bit)
	gdt[3] = makeGDTEntry(0, 0xFFFFF, gdtAccessPresent|gdtAccessRing3|gdtAccessCodeData|gdtAccessExec|gdtAccessRW, gdtFlagGranularity|gdtFlag32Bit)
	gdt[4] = makeGDTEntry(0, 0xFFFFF, gdtAccessPresent|gdtAccessRing3|gdtAccessCodeData|gdtAccessRW, gdtFlagGranularity|gdtFlag32Bit)

	tssBase := uint32(uintptr(unsafe.Pointer(&kernelTSS)))
	tssLimit := uint32(unsafe.Sizeof(kernelTSS) - 1)
	gdt[5] = makeGDTEntry(tssBase, tssLimit, gdtAccessPresent|gdtAccessTSSBusy32, 0)

	kernelTSS.ss0 = SelectorKernelData
	kernelTSS.ioMapBaseOffset = uint16(unsafe.Sizeof(kernelTSS))

	ptr := gdtPtr{
		limit: uint16(unsafe.Sizeof(gdt) - 1),
		base:  uint32(uintptr(unsafe.Pointer(&gdt[0]))),
	}
	loadGDTFn(uintptr(unsafe.Pointer(&ptr)))
	loadTSSFn(SelectorTSS)
}

// SetKernelStack rewrites the TSS's ring-0 stack pointer. It must be called
// on every switch to a user task so that the next ring-3 -> ring-0
// transition (interrupt or syscall) lands on that task's dedicated kernel
// stack.
func SetKernelStack(esp0 uintptr) {
	kernelTSS.esp0 = uint32(esp0)
}

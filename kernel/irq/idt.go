package irq

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel/cpu"
)

const (
	gateTypeInterrupt32 = 0xE
	gatePresent          = 1 << 7
	gateRing3            = 3 << 5
)

type idtEntry struct {
	offsetLow  uint16
	selector   uint16
	zero       uint8
	typeAttr   uint8
	offsetHigh uint16
}

func makeIDTEntry(handler uintptr, selector uint16, dpl uint8) idtEntry {
	attr := uint8(gatePresent) | uint8(dpl)<<5 | gateTypeInterrupt32
	return idtEntry{
		offsetLow:  uint16(handler & 0xFFFF),
		selector:   selector,
		zero:       0,
		typeAttr:   attr,
		offsetHigh: uint16(handler >> 16),
	}
}

type idtPtr struct {
	limit uint16
	base  uint32
}

var (
	idt [256]idtEntry

	loadIDTFn = cpu.LoadIDT

	isrStubs = [48]func(){
		isrStub0, isrStub1, isrStub2, isrStub3, isrStub4, isrStub5, isrStub6, isrStub7,
		isrStub8, isrStub9, isrStub10, isrStub11, isrStub12, isrStub13, isrStub14, isrStub15,
		isrStub16, isrStub17, isrStub18, isrStub19, isrStub20, isrStub21, isrStub22, isrStub23,
		isrStub24, isrStub25, isrStub26, isrStub27, isrStub28, isrStub29, isrStub30, isrStub31,
		isrStub32, isrStub33, isrStub34, isrStub35, isrStub36, isrStub37, isrStub38, isrStub39,
		isrStub40, isrStub41, isrStub42, isrStub43, isrStub44, isrStub45, isrStub46, isrStub47,
	}
)

// syscallVector is the software interrupt number ring-3 code uses to enter
// the kernel.
const syscallVector = 0x80

// funcEntryPoint recovers the code address of a zero-argument Go function
// value, the way a compiler intrinsic would for an asm-only declared func.
func funcEntryPoint(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

// InitIDT builds the interrupt descriptor table: vectors 0-31 for CPU
// exceptions, 32-47 for the remapped hardware IRQ lines, and 0x80 for the
// syscall gate (installed with DPL 3 so ring-3 code may invoke it). It must
// run after InitGDT, since every gate references SelectorKernelCode.
func InitIDT() {
	for v := 0; v < 48; v++ {
		idt[v] = makeIDTEntry(funcEntryPoint(isrStubs[v]), SelectorKernelCode, 0)
	}
	idt[syscallVector] = makeIDTEntry(funcEntryPoint(isrStubSyscall), SelectorKernelCode, 3)

	ptr := idtPtr{
		limit: uint16(unsafe.Sizeof(idt) - 1),
		base:  uint32(uintptr(unsafe.Pointer(&idt[0]))),
	}
	loadIDTFn(uintptr(unsafe.Pointer(&ptr)))
}

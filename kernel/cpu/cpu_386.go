// Package cpu provides Go-callable wrappers around the handful of x86
// instructions that the rest of the kernel needs direct access to: port I/O,
// control-register access, interrupt masking and the HLT instruction. Each
// function declared without a body here is implemented in cpu_386.s.
package cpu

// EnableInterrupts sets the interrupt flag (STI).
func EnableInterrupts()

// DisableInterrupts clears the interrupt flag (CLI).
func DisableInterrupts()

// Halt executes HLT, suspending instruction execution until the next
// interrupt.
func Halt()

// FlushTLBEntry invalidates the TLB entry for virtAddr (INVLPG).
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT loads CR3 with pdtPhysAddr, flushing the entire TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// EnablePaging sets CR0.PG, turning on the MMU for whatever directory is
// currently loaded in CR3. Must only be called after SwitchPDT has pointed
// CR3 at a valid, fully-populated kernel directory.
func EnablePaging()

// ActivePDT returns the physical address currently loaded in CR3.
func ActivePDT() uintptr

// ReadCR2 returns the faulting address recorded by the last page fault.
func ReadCR2() uintptr

// InB reads a single byte from the given I/O port.
func InB(port uint16) uint8

// OutB writes a single byte to the given I/O port.
func OutB(port uint16, value uint8)

// InW reads a 16-bit word from the given I/O port.
func InW(port uint16) uint16

// OutW writes a 16-bit word to the given I/O port.
func OutW(port uint16, value uint16)

// LoadGDT loads the global descriptor table pointed to by gdtPtr (the
// address of a 6-byte limit:base pseudo-descriptor) and reloads every
// segment register.
func LoadGDT(gdtPtr uintptr)

// LoadIDT loads the interrupt descriptor table pointed to by idtPtr.
func LoadIDT(idtPtr uintptr)

// LoadTSS reloads the task register with the given GDT selector.
func LoadTSS(selector uint16)

// ID returns the EAX/EBX/ECX/EDX values produced by CPUID with EAX=leaf.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

var cpuidFn = ID

// IsIntel returns true if the code is running on a GenuineIntel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

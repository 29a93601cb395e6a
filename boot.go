package main

import "github.com/lightap/Microkernel-OS-sub001/kernel/kmain"

// multibootInfoPtr, kernelStart and kernelEnd are populated by the rt0
// assembly trampoline before it jumps here; they are declared as package
// globals (rather than passed as literal constants) so the compiler cannot
// constant-fold the call below and strip kmain.Kmain from the final
// binary.
var (
	multibootInfoPtr uintptr
	kernelStart      uintptr
	kernelEnd        uintptr
)

// main is the only Go symbol visible to the rt0 initialization code. It is
// a trampoline into the real entry point, kmain.Kmain, and is never
// expected to return: if it does, rt0 halts the CPU.
func main() {
	kmain.Kmain(multibootInfoPtr, kernelStart, kernelEnd)
}

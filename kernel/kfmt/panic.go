package kfmt

import (
	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/cpu"
)

var (
	// cpuHaltFn is replaced by tests so Panic's halt can be observed
	// without actually stopping the test process.
	cpuHaltFn = cpu.Halt

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// Panic renders a fatal-error banner to the active output sink and halts the
// CPU. Per spec.md §7, a kernel-mode panic is unrecoverable: there is no
// return from Panic. It also serves as the redirect target for the runtime's
// own panic()/throw() paths once kernel/goruntime wires those up.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		panicString(t)
		return
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** kernel panic: system halted ***")
	Printf("\n-----------------------------------\n")

	cpuHaltFn()
}

// panicString serves as a redirect target for runtime.throw, which passes a
// plain string rather than an error value.
func panicString(msg string) {
	errRuntimePanic.Message = msg
	Panic(errRuntimePanic)
}

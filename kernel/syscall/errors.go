package syscall

import "github.com/lightap/Microkernel-OS-sub001/kernel"

var (
	errBadArg      = &kernel.Error{Module: "syscall", Message: "bad argument"}
	errNoSuchProc  = &kernel.Error{Module: "syscall", Message: "no such process"}
	errOutOfMemory = &kernel.Error{Module: "syscall", Message: "out of memory"}
	errTableFull   = &kernel.Error{Module: "syscall", Message: "task table is full"}
)

// Package syscall implements the ring-3 entry point: decoding the saved
// register frame on the software-interrupt vector, dispatching to the
// scheduler/IPC/memory subsystems, and writing the result back into the
// caller's saved accumulator.
package syscall

// Number identifies one of the recognized syscalls. The accumulator
// register carries this value on entry; three general registers carry up
// to three arguments; the accumulator carries the result on return.
type Number uint32

const (
	// I/O (legacy/direct).
	SysWrite Number = iota
	SysRead

	// Process.
	SysGetPID
	SysExit
	SysSleep
	SysGetTicks

	// Memory.
	SysMalloc
	SysFree

	// IPC.
	SysSend
	SysReceive
	SysSendRec
	SysReply
	SysNotify

	// Service registry.
	SysRegisterService
	SysLookupService

	// Privilege.
	SysGrantIO
	SysRegisterIRQ
	SysCreateTask

	// Debug.
	SysDebugLog
	SysDebugDump

	// GPU pass-throughs: opaque from the kernel's point of view, forwarded
	// to the external GPU collaborator with only a bounded copy-from-user
	// performed first.
	SysGPUSubmit
	SysGPUInit
	SysGPUClear
	SysGPUUpload
	SysGPUSetMVP
	SysGPUDraw
	SysGPUPresent
)

// Negative return sentinels. Syscalls return a small negative integer (cast
// to uint32, read back by user space as a signed value) on failure.
const (
	ErrBadSyscall  = ^uint32(0)      // -1
	ErrBadArg      = ^uint32(1)      // -2
	ErrNoSuchProc  = ^uint32(2)      // -3
	ErrOutOfMemory = ^uint32(3)      // -4
	ErrIPC         = ^uint32(4)      // -5
	ErrTableFull   = ^uint32(5)      // -6
)

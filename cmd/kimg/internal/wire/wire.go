// Package wire mirrors the on-disk/on-wire binary shapes the freestanding
// core defines, without importing anything under kernel/...: the hosted
// tools only ever see these as bytes copied out of a running kernel or a
// captured file, never as a live Go value shared across the freestanding
// boundary.
package wire

import "unsafe"

// MaxTasks mirrors kernel/task.MaxTasks. The two must agree for dump
// --live to decode a real snapshot; a mismatch here is a packaging bug,
// not something this tool can detect on its own.
const MaxTasks = 64

// TaskSnapshot mirrors kernel/syscall.TaskSnapshot.
type TaskSnapshot struct {
	PID         int32
	Active      uint8
	State       uint8
	Priority    uint8
	_           uint8
	SwitchCount uint64
}

// DebugSnapshot mirrors kernel/syscall.DebugSnapshot: the debug_dump
// syscall's payload, frame-allocator counters followed by one row per task
// table slot.
type DebugSnapshot struct {
	UsedFrames  uint32
	TotalFrames uint32
	TaskCount   uint32
	_           uint32
	Tasks       [MaxTasks]TaskSnapshot
}

// Size is the fixed byte size of a DebugSnapshot on the wire.
const Size = unsafe.Sizeof(DebugSnapshot{})

// TaskState names mirror kernel/task.State's iota ordering.
var TaskState = [...]string{"inactive", "ready", "running", "sleeping", "blocked", "terminated"}

// StateName renders a raw state byte using the TaskState table, falling
// back to "unknown" for anything out of range.
func StateName(s uint8) string {
	if int(s) < len(TaskState) {
		return TaskState[s]
	}
	return "unknown"
}

// Decode reinterprets raw as a DebugSnapshot. raw must be at least Size
// bytes.
func Decode(raw []byte) (DebugSnapshot, bool) {
	var s DebugSnapshot
	if uintptr(len(raw)) < Size {
		return s, false
	}
	s = *(*DebugSnapshot)(unsafe.Pointer(&raw[0]))
	return s, true
}

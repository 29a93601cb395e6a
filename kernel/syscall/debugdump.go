package syscall

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/pmm"
	"github.com/lightap/Microkernel-OS-sub001/kernel/task"
)

// TaskSnapshot is one task table row as rendered by debug_dump. Matches the
// layout cmd/kimg's `dump --live` decoder reads.
type TaskSnapshot struct {
	PID         int32
	Active      uint8
	State       uint8
	Priority    uint8
	_           uint8
	SwitchCount uint64
}

// DebugSnapshot is the full debug_dump payload: frame-allocator counters
// followed by one row per task table slot.
type DebugSnapshot struct {
	UsedFrames  uint32
	TotalFrames uint32
	TaskCount   uint32
	_           uint32
	Tasks       [task.MaxTasks]TaskSnapshot
}

// snapshotFn builds the current DebugSnapshot. A package var so tests can
// substitute a fixed task-table view.
var snapshotFn = func() DebugSnapshot {
	var s DebugSnapshot
	s.UsedFrames = pmm.UsedCount()
	s.TotalFrames = pmm.TotalCount()
	task.Each(func(t *task.PCB) {
		if s.TaskCount >= task.MaxTasks {
			return
		}
		s.Tasks[s.TaskCount] = TaskSnapshot{
			PID:         t.PID,
			Active:      boolByte(t.Active),
			State:       uint8(t.State),
			Priority:    t.Priority,
			SwitchCount: t.SwitchCount,
		}
		s.TaskCount++
	})
	return s
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// DumpSnapshot renders the current snapshot as raw bytes for copy-to-user.
func DumpSnapshot() []byte {
	s := snapshotFn()
	return (*[unsafe.Sizeof(DebugSnapshot{})]byte)(unsafe.Pointer(&s))[:]
}

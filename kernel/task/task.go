// Package task implements the process control block table and the
// priority-aware round-robin scheduler: task creation/exit/kill, sleep,
// yield, and the timer-tick handler that performs preemptive switches.
package task

import (
	"github.com/lightap/Microkernel-OS-sub001/kernel/irq"
	"github.com/lightap/Microkernel-OS-sub001/kernel/mm/vmm"
)

// State is a PCB's scheduling state.
type State uint8

const (
	StateInactive State = iota
	StateReady
	StateRunning
	StateSleeping
	StateBlocked
	StateTerminated
)

// BlockReason describes why a blocked PCB is blocked.
type BlockReason uint8

const (
	BlockNone BlockReason = iota
	BlockSend
	BlockReceive
	BlockSendRec
)

// AnyPID is the wildcard peer sentinel: "any sender" for receive, or
// "whoever is in receive" is never valid for send, only for receive's
// receive-from field.
const AnyPID = -1

// MaxTasks bounds the task table to a fixed array so the scheduler needs no
// heap allocation to run.
const MaxTasks = 64

// StackOwner records who is responsible for freeing a task's user stack on
// exit: the kernel heap (kernel-resident server tasks built via
// CreateAddressSpace, whose "user" stack is actually kernel memory) or the
// process's own address space (ELF-loaded tasks, whose user stack is process
// pages freed implicitly when DestroyAddressSpace tears down the directory).
type StackOwner uint8

const (
	// StackOwnerAddressSpace means the user stack lives in pages mapped
	// into the task's own address space; Exit does not free it directly,
	// since DestroyAddressSpace reclaims every owned frame.
	StackOwnerAddressSpace StackOwner = iota
	// StackOwnerKernelHeap means the user stack was allocated directly
	// from the frame allocator outside of any per-process mapping (the
	// in-kernel-binary server-task case) and must be freed explicitly.
	StackOwnerKernelHeap
)

// PCB is one schedulable entity.
type PCB struct {
	PID    int32
	Name   string
	Active bool

	State          State
	Priority       uint8
	Quantum        uint32
	TicksRemaining uint32
	WakeTick       uint64
	TickCount      uint64
	SwitchCount    uint64

	StackPointer  uintptr
	UserStackBase uintptr
	UserStackSize uintptr
	KernelStackBase uintptr
	KernelStackSize uintptr
	StackOwner    StackOwner

	AddressSpace   vmm.Directory
	HasAddressSpace bool

	HeapBase  uintptr
	HeapNext  uintptr
	HeapLimit uintptr

	IsUser        bool
	HasIOPrivilege bool
	OwnedIRQs     uint16

	BlockReason   BlockReason
	PeerPID       int32
	MsgBufferAddr uintptr
	ScratchMsg    [MessageSize]byte

	pendingNotify    [MessageSize]byte
	hasPendingNotify bool
}

// MessageSize is redeclared here (rather than imported from kernel/ipc) to
// avoid a package cycle: ipc needs task's PCB to deliver into, and task
// needs to size the per-PCB scratch/notification buffers.
const MessageSize = 64

var (
	tasks       [MaxTasks]PCB
	currentIdx  int
	lockCount   int32
	nextPID     int32 = 1
	tickRate    uint32 = 100

	setKernelStackFn = irq.SetKernelStack
	switchFn         = vmm.Switch
)

// SetPendingNotify stores raw into this PCB's single-slot pending
// notification mailbox, coalescing with (overwriting) any notification
// already pending.
func (p *PCB) SetPendingNotify(raw [MessageSize]byte) {
	p.pendingNotify = raw
	p.hasPendingNotify = true
}

// TakePendingNotify removes and returns the pending notification, if any.
func (p *PCB) TakePendingNotify() ([MessageSize]byte, bool) {
	if !p.hasPendingNotify {
		return [MessageSize]byte{}, false
	}
	p.hasPendingNotify = false
	return p.pendingNotify, true
}

// HasPendingNotify reports whether a notification is waiting in the slot.
func (p *PCB) HasPendingNotify() bool {
	return p.hasPendingNotify
}

// FindBlockedSender scans the task table for a task blocked sending to (or
// sendrec-ing with) receiver, matching the given source filter (AnyPID
// matches anything). Ties among multiple matches break by table-scan
// order, i.e. the lowest slot index.
func FindBlockedSender(receiver int32, from int32) *PCB {
	for i := range tasks {
		t := &tasks[i]
		if !t.Active || t.State != StateBlocked {
			continue
		}
		if t.BlockReason != BlockSend && t.BlockReason != BlockSendRec {
			continue
		}
		if t.PeerPID != receiver {
			continue
		}
		if from != AnyPID && t.PID != from {
			continue
		}
		return t
	}
	return nil
}

// Current returns the PCB for the task presently selected as running.
func Current() *PCB {
	return &tasks[currentIdx]
}

// Each calls fn once for every active PCB, in task-table slot order.
func Each(fn func(*PCB)) {
	for i := range tasks {
		if tasks[i].Active {
			fn(&tasks[i])
		}
	}
}

// ByPID returns the active PCB with the given pid, or nil.
func ByPID(pid int32) *PCB {
	for i := range tasks {
		if tasks[i].Active && tasks[i].PID == pid {
			return &tasks[i]
		}
	}
	return nil
}

// Lock disables preemption; calls nest via a counter.
func Lock() { lockCount++ }

// Unlock re-enables preemption once every matching Lock has been undone.
func Unlock() {
	if lockCount > 0 {
		lockCount--
	}
}

// Preemptible reports whether the scheduler lock is free.
func Preemptible() bool { return lockCount == 0 }

// Init installs the idle task as PID 0: it never terminates, owns no
// address space (runs in the kernel's own), and always carries I/O
// privilege.
func Init(tickRateHz uint32) {
	tickRate = tickRateHz
	tasks[0] = PCB{
		PID:            0,
		Name:           "idle",
		Active:         true,
		State:          StateRunning,
		Priority:       255,
		Quantum:        1,
		TicksRemaining: 1,
		HasIOPrivilege: true,
	}
	currentIdx = 0
	nextPID = 1
}

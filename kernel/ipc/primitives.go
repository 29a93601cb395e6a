package ipc

import (
	"github.com/lightap/Microkernel-OS-sub001/kernel"
	"github.com/lightap/Microkernel-OS-sub001/kernel/task"
)

// AnyPID is the wildcard "from any sender" filter for Receive.
const AnyPID = task.AnyPID

var (
	// ErrBadArgs is returned for malformed arguments (e.g. a nil destination).
	ErrBadArgs = &kernel.Error{Module: "ipc", Message: "bad arguments"}
	// ErrNoSuchProcess is returned when the named peer does not exist or
	// has already terminated.
	ErrNoSuchProcess = &kernel.Error{Module: "ipc", Message: "no such process"}
	// ErrInvalidReplyState is returned by Reply when the target is not
	// currently blocked awaiting one.
	ErrInvalidReplyState = &kernel.Error{Module: "ipc", Message: "target is not awaiting a reply"}
)

// Send delivers m to d. If d is already in receive and willing to accept
// from the caller, delivery is immediate and Send returns right away.
// Otherwise the caller blocks until some later Receive or Reply picks up
// the message, eagerly copied here into the caller's kernel-resident
// scratch area so the copy never depends on the caller's own user memory
// staying mapped while it is blocked.
func Send(dPID int32, m *Message) *kernel.Error {
	c := task.Current()
	m.Sender = c.PID

	d := task.ByPID(dPID)
	if d == nil {
		return ErrNoSuchProcess
	}

	if d.State == task.StateBlocked && d.BlockReason == task.BlockReceive &&
		(d.PeerPID == task.AnyPID || d.PeerPID == c.PID) {
		d.ScratchMsg = encode(*m)
		task.Wake(d.PID)
		return nil
	}

	c.ScratchMsg = encode(*m)
	task.Block(task.BlockSend, dPID)
	return nil
}

// Receive waits for a message addressed to the caller from the given
// source (AnyPID for any source), or consumes a pending notification if
// one is queued.
func Receive(from int32, m *Message) *kernel.Error {
	c := task.Current()

	if raw, ok := c.TakePendingNotify(); ok {
		*m = decode(raw)
		return nil
	}

	if peer := task.FindBlockedSender(c.PID, from); peer != nil {
		*m = decode(peer.ScratchMsg)
		m.Sender = peer.PID
		if peer.BlockReason == task.BlockSend {
			task.Wake(peer.PID)
		}
		// A sendrec peer stays blocked/sendrec, awaiting Reply.
		return nil
	}

	c.PeerPID = from
	task.Block(task.BlockReceive, from)
	*m = decode(c.ScratchMsg)
	return nil
}

// SendRec sends m to d and blocks until d replies into the same buffer.
func SendRec(dPID int32, m *Message) *kernel.Error {
	c := task.Current()
	m.Sender = c.PID

	d := task.ByPID(dPID)
	if d == nil {
		return ErrNoSuchProcess
	}

	if d.State == task.StateBlocked && d.BlockReason == task.BlockReceive &&
		(d.PeerPID == task.AnyPID || d.PeerPID == c.PID) {
		d.ScratchMsg = encode(*m)
		task.Wake(d.PID)
	} else {
		c.ScratchMsg = encode(*m)
	}

	task.Block(task.BlockSendRec, dPID)
	*m = decode(c.ScratchMsg)
	return nil
}

// Reply delivers m as a reply to d, which must be blocked in sendrec
// awaiting one.
func Reply(dPID int32, m *Message) *kernel.Error {
	c := task.Current()
	d := task.ByPID(dPID)
	if d == nil {
		return ErrNoSuchProcess
	}
	if d.State != task.StateBlocked || d.BlockReason != task.BlockSendRec {
		return ErrInvalidReplyState
	}

	m.Sender = c.PID
	d.ScratchMsg = encode(*m)
	task.Wake(d.PID)
	return nil
}

// Notify delivers a kernel-originated, non-blocking notification to d. If d
// is currently in receive it is delivered immediately; otherwise it
// coalesces into d's single pending-notification slot.
func Notify(dPID int32, m *Message) *kernel.Error {
	m.Sender = 0

	d := task.ByPID(dPID)
	if d == nil {
		return ErrNoSuchProcess
	}

	if d.State == task.StateBlocked && d.BlockReason == task.BlockReceive {
		d.ScratchMsg = encode(*m)
		task.Wake(d.PID)
		return nil
	}

	d.SetPendingNotify(encode(*m))
	return nil
}

// Package ipc implements synchronous message passing (send, receive,
// sendrec, reply, notify) and the process-wide service name registry.
package ipc

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel/task"
)

// Size is the fixed wire size of a Message: small enough to fit in a
// single cache line, so the kernel copies it without any heap allocation.
const Size = task.MessageSize

// Type tags the payload union held by a Message.
type Type uint8

const (
	TypeIO Type = iota
	TypeIRQNotify
	TypeReply
	TypeServiceRegister
	TypeConsoleIO
)

// Message is the fixed-size value passed between tasks. Sender is written
// by the kernel on delivery and is never trusted from user space.
type Message struct {
	Sender  int32
	Kind    Type
	_       [3]byte
	Payload [56]byte
}

// IOPayload is the generic I/O request shape: a path, an offset, a size and
// a buffer virtual address in the caller's own address space.
type IOPayload struct {
	Path       [40]byte
	Offset     uint32
	Size       uint32
	BufferAddr uint32
}

// IRQNotifyPayload carries the line number and a tick timestamp for an IRQ
// notification delivered to the owning process.
type IRQNotifyPayload struct {
	IRQNum    uint32
	Timestamp uint64
}

// ReplyPayload carries a status code, a single value and an opaque blob
// back to a sendrec caller.
type ReplyPayload struct {
	Status uint32
	Value  uint32
	Size   uint32
	Opaque [44]byte
}

// ServiceRegisterPayload names the service a process is registering under.
type ServiceRegisterPayload struct {
	Name [48]byte
	PID  int32
}

// ConsoleIOPayload carries raw console bytes plus a foreground color.
type ConsoleIOPayload struct {
	Length uint32
	Color  uint8
	_      [3]byte
	Bytes  [48]byte
}

func (m *Message) SetIO(p IOPayload)                     { *(*IOPayload)(unsafe.Pointer(&m.Payload[0])) = p }
func (m *Message) IO() IOPayload                         { return *(*IOPayload)(unsafe.Pointer(&m.Payload[0])) }
func (m *Message) SetIRQNotify(p IRQNotifyPayload)        { *(*IRQNotifyPayload)(unsafe.Pointer(&m.Payload[0])) = p }
func (m *Message) IRQNotify() IRQNotifyPayload            { return *(*IRQNotifyPayload)(unsafe.Pointer(&m.Payload[0])) }
func (m *Message) SetReply(p ReplyPayload)                { *(*ReplyPayload)(unsafe.Pointer(&m.Payload[0])) = p }
func (m *Message) Reply() ReplyPayload                    { return *(*ReplyPayload)(unsafe.Pointer(&m.Payload[0])) }
func (m *Message) SetServiceRegister(p ServiceRegisterPayload) {
	*(*ServiceRegisterPayload)(unsafe.Pointer(&m.Payload[0])) = p
}
func (m *Message) ServiceRegister() ServiceRegisterPayload {
	return *(*ServiceRegisterPayload)(unsafe.Pointer(&m.Payload[0]))
}
func (m *Message) SetConsoleIO(p ConsoleIOPayload) { *(*ConsoleIOPayload)(unsafe.Pointer(&m.Payload[0])) = p }
func (m *Message) ConsoleIO() ConsoleIOPayload      { return *(*ConsoleIOPayload)(unsafe.Pointer(&m.Payload[0])) }

func encode(m Message) [Size]byte {
	return *(*[Size]byte)(unsafe.Pointer(&m))
}

func decode(raw [Size]byte) Message {
	return *(*Message)(unsafe.Pointer(&raw))
}

// Encode serializes m to its fixed-size wire form, for callers (the
// syscall dispatcher) that copy a Message across the user/kernel boundary
// as a flat byte buffer.
func Encode(m Message) [Size]byte { return encode(m) }

// Decode parses raw as a Message. raw must be exactly Size bytes; shorter
// input is zero-extended.
func Decode(raw []byte) Message {
	var fixed [Size]byte
	copy(fixed[:], raw)
	return decode(fixed)
}

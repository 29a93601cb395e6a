// Package wire mirrors the fixed-size Message kernel/ipc defines, decoding
// the console-I/O payload shape off the serial wire without importing
// anything under kernel/...
package wire

import "unsafe"

// Size is the fixed wire size of a kernel/ipc.Message.
const Size = 64

// Type mirrors kernel/ipc.Type.
type Type uint8

// TypeConsoleIO is the tag kernel/ipc.Message.Kind carries for console
// output, matching kernel/ipc.TypeConsoleIO's position in that iota.
const TypeConsoleIO Type = 4

// Message mirrors kernel/ipc.Message's layout.
type Message struct {
	Sender  int32
	Kind    Type
	_       [3]byte
	Payload [56]byte
}

// ConsoleIOPayload mirrors kernel/ipc.ConsoleIOPayload.
type ConsoleIOPayload struct {
	Length uint32
	Color  uint8
	_      [3]byte
	Bytes  [48]byte
}

// DecodeMessage reinterprets raw as a Message. raw must be exactly Size
// bytes; shorter input is zero-extended, matching kernel/ipc.Decode.
func DecodeMessage(raw []byte) Message {
	var fixed [Size]byte
	copy(fixed[:], raw)
	return *(*Message)(unsafe.Pointer(&fixed[0]))
}

// ConsoleIO extracts the ConsoleIOPayload out of m's payload union. Callers
// must check m.Kind == TypeConsoleIO first.
func ConsoleIO(m Message) ConsoleIOPayload {
	return *(*ConsoleIOPayload)(unsafe.Pointer(&m.Payload[0]))
}

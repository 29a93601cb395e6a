package ipc

import "github.com/lightap/Microkernel-OS-sub001/kernel"

// MaxServices bounds the registry to a small, fixed capacity.
const MaxServices = 32

type serviceEntry struct {
	name   [48]byte
	pid    int32
	active bool
}

var registry [MaxServices]serviceEntry

// ErrRegistryFull is returned by Register when every slot is occupied and
// name does not already have an active entry to replace.
var ErrRegistryFull = &kernel.Error{Module: "ipc", Message: "service registry is full"}

func nameBytes(name string) [48]byte {
	var b [48]byte
	copy(b[:], name)
	return b
}

func namesEqual(a [48]byte, name string) bool {
	return a == nameBytes(name)
}

// Register installs pid under name, replacing any existing active
// registration for that name (the newer provider wins).
func Register(name string, pid int32) *kernel.Error {
	nb := nameBytes(name)

	for i := range registry {
		if registry[i].active && registry[i].name == nb {
			registry[i].pid = pid
			return nil
		}
	}
	for i := range registry {
		if !registry[i].active {
			registry[i] = serviceEntry{name: nb, pid: pid, active: true}
			return nil
		}
	}
	return ErrRegistryFull
}

// Lookup returns the PID registered under name, or 0 if none.
func Lookup(name string) int32 {
	nb := nameBytes(name)
	for i := range registry {
		if registry[i].active && registry[i].name == nb {
			return registry[i].pid
		}
	}
	return 0
}

// ScrubPID deactivates every registry entry owned by pid. Called on task
// exit/kill so a dead process's name cannot shadow a later registration
// attempt forever — the supplemented decision resolving the spec's open
// question on registry cleanup.
func ScrubPID(pid int32) {
	for i := range registry {
		if registry[i].active && registry[i].pid == pid {
			registry[i].active = false
		}
	}
}

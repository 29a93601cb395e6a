// Package kernel contains the types shared by every other package in the
// freestanding half of the tree: the kernel-mode error type and the raw
// memory helpers that substitute for the parts of the standard library that
// assume a heap allocator or an OS underneath them.
package kernel

// Error describes a kernel error. All kernel errors are defined as package
// level variables that are pointers to Error. This requirement stems from
// the fact that the Go allocator is not available until kernel/goruntime has
// finished bootstrapping, so errors.New cannot be used by code that may run
// before that point.
type Error struct {
	// Module is the package where the error originated.
	Module string

	// Message describes what went wrong.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Module + ": " + e.Message
}

package syscall

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel"
)

func bytesAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// maxCopySize bounds every user-to-kernel copy so a bad or hostile length
// argument cannot make the dispatcher scan an unreasonable range.
const maxCopySize = 4096

// copyFromUserFn is swappable in tests. In production it is a flat
// Memcopy: the caller's CR3 is already loaded (a syscall does not switch
// address spaces to enter the kernel), so addr is already valid to
// dereference directly into a kernel-owned scratch buffer.
var copyFromUserFn = func(addr uintptr, size uintptr, dst []byte) {
	kernel.Memcopy(addr, uintptr(bytesAddr(dst)), size)
}

var copyToUserFn = func(src []byte, addr uintptr, size uintptr) {
	kernel.Memcopy(uintptr(bytesAddr(src)), addr, size)
}

// copyFromUser validates size and copies size bytes starting at the user
// virtual address addr into a freshly-sized kernel scratch slice.
func copyFromUser(addr uintptr, size uint32) ([]byte, *kernel.Error) {
	if size == 0 || size > maxCopySize {
		return nil, errBadArg
	}
	buf := make([]byte, size)
	copyFromUserFn(addr, uintptr(size), buf)
	return buf, nil
}

func copyToUser(buf []byte, addr uintptr) *kernel.Error {
	if len(buf) == 0 || len(buf) > maxCopySize {
		return errBadArg
	}
	copyToUserFn(buf, addr, uintptr(len(buf)))
	return nil
}

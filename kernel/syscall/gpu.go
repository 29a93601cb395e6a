package syscall

// gpuPassThroughFn forwards a GPU syscall to the external GPU driver
// collaborator after a bounded copy-from-user. The core never interprets
// the payload; it only validates the copy and hands the raw bytes across.
// No GPU driver is wired into this tree (the collaborator is out of
// scope), so the default implementation performs the copy-from-user
// bounds check and reports success with a zero driver result, which is
// enough to exercise the contract from a test without a real driver.
var gpuPassThroughFn = func(num Number, bufAddr uintptr, length uint32) uint32 {
	if length == 0 {
		return 0
	}
	if _, err := copyFromUser(bufAddr, length); err != nil {
		return toResult(err)
	}
	return 0
}

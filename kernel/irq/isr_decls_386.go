package irq

// isrStubN are the per-vector entry points generated in isr_stubs_386.s. Each
// pushes a dummy error code (for vectors with no hardware-pushed code),
// pushes its own vector number, and jumps to the shared save/dispatch/
// restore path.
func isrStub0()
func isrStub1()
func isrStub2()
func isrStub3()
func isrStub4()
func isrStub5()
func isrStub6()
func isrStub7()
func isrStub8()
func isrStub9()
func isrStub10()
func isrStub11()
func isrStub12()
func isrStub13()
func isrStub14()
func isrStub15()
func isrStub16()
func isrStub17()
func isrStub18()
func isrStub19()
func isrStub20()
func isrStub21()
func isrStub22()
func isrStub23()
func isrStub24()
func isrStub25()
func isrStub26()
func isrStub27()
func isrStub28()
func isrStub29()
func isrStub30()
func isrStub31()
func isrStub32()
func isrStub33()
func isrStub34()
func isrStub35()
func isrStub36()
func isrStub37()
func isrStub38()
func isrStub39()
func isrStub40()
func isrStub41()
func isrStub42()
func isrStub43()
func isrStub44()
func isrStub45()
func isrStub46()
func isrStub47()

// isrStubSyscall is the entry point for the syscall vector (0x80),
// installed with DPL 3 so ring-3 code can invoke INT 0x80.
func isrStubSyscall()


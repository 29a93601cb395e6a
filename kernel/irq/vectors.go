package irq

// CPU exception vector numbers (0-31), named for the handlers that care
// about them.
const (
	DivideByZeroVector   = 0
	DebugVector          = 1
	NMIVector            = 2
	BreakpointVector     = 3
	OverflowVector       = 4
	BoundRangeVector     = 5
	InvalidOpcodeVector  = 6
	DeviceNAVector       = 7
	DoubleFaultVector    = 8
	InvalidTSSVector     = 10
	SegmentNPVector      = 11
	StackFaultVector     = 12
	GPFVector            = 13
	PageFaultVector      = 14
	FPUVector            = 16
	AlignmentVector      = 17
	MachineCheckVector   = 18
	SIMDFPVector         = 19
)

// Timer IRQ line number (PIT, IRQ0) — the scheduler installs its tick
// handler here.
const TimerIRQLine = 0

package task

import (
	"unsafe"

	"github.com/lightap/Microkernel-OS-sub001/kernel/cpu"
	"github.com/lightap/Microkernel-OS-sub001/kernel/irq"
)

var (
	haltFn   = cpu.Halt
	enableIRQFn = cpu.EnableInterrupts

	ticksSinceBoot uint64
)

// selectNext implements the priority-aware round-robin policy: starting one
// slot past the current task, scan the whole table once, skipping the
// current task and the idle slot, and prefer ready/running tasks. Among candidates pick the
// numerically lowest priority; ties break by scan order (the first one
// found, since later candidates only replace the incumbent on a strictly
// lower priority). Sleeping tasks whose wake-tick has passed are promoted
// to ready first. If nothing else is runnable, fall back to the current
// task if it is still runnable, else the idle task (PID 0, slot 0).
func selectNext() int {
	for i := range tasks {
		if tasks[i].Active && tasks[i].State == StateSleeping && tasks[i].WakeTick <= ticksSinceBoot {
			tasks[i].State = StateReady
		}
	}

	best := -1
	var bestPriority uint8
	n := len(tasks)
	for step := 1; step <= n; step++ {
		idx := (currentIdx + step) % n
		if idx == currentIdx || idx == 0 {
			continue
		}
		t := &tasks[idx]
		if !t.Active || (t.State != StateReady && t.State != StateRunning) {
			continue
		}
		if best == -1 || t.Priority < bestPriority {
			best, bestPriority = idx, t.Priority
		}
	}
	if best != -1 {
		return best
	}

	cur := &tasks[currentIdx]
	if cur.Active && (cur.State == StateReady || cur.State == StateRunning) {
		return currentIdx
	}
	return 0
}

// doSwitch is the timer tick's reschedule path. It saves the interrupted
// task's frame pointer, selects the next task to run, and either returns 0
// (continue on the current stack — the selection did not change) or the
// new task's saved stack pointer, which the IRQ stub swaps ESP to before
// its IRET.
func doSwitch(regs *irq.Registers) uintptr {
	cur := &tasks[currentIdx]
	cur.StackPointer = uintptr(unsafe.Pointer(regs))
	if cur.State == StateRunning {
		cur.State = StateReady
	}

	next := selectNext()
	nt := &tasks[next]
	samePick := next == currentIdx
	nt.State = StateRunning
	nt.SwitchCount++
	currentIdx = next

	if samePick {
		return 0
	}

	if nt.HasAddressSpace {
		setKernelStackFn(nt.KernelStackBase + nt.KernelStackSize)
		switchFn(nt.AddressSpace)
	}
	return nt.StackPointer
}

// TimerTick is installed as the timer IRQ handler. It accounts the current
// task's time slice and, on sleep/block/termination or quantum exhaustion,
// asks the scheduler to pick a new task — but only when preemption is not
// currently locked.
func TimerTick(regs *irq.Registers) uintptr {
	ticksSinceBoot++
	cur := &tasks[currentIdx]
	cur.TickCount++

	needSwitch := false
	switch cur.State {
	case StateSleeping, StateBlocked, StateTerminated:
		needSwitch = true
	default:
		if cur.TicksRemaining > 0 {
			cur.TicksRemaining--
		}
		needSwitch = cur.TicksRemaining == 0
	}

	if !needSwitch || !Preemptible() {
		return 0
	}
	return doSwitch(regs)
}

// Yield marks the current task ready for immediate reschedule and spins on
// halt with interrupts enabled. The actual switch happens transparently
// when the next timer IRQ nests on top of this same kernel stack: doSwitch
// rewrites this task's saved frame, picks another task, and the IRQ stub
// swaps to its stack. Control returns to the statement after Halt() only
// once this exact task has been chosen to run again, at which point its
// state is already StateRunning.
//
// Exit calls Yield on a PCB it has already torn down and marked
// StateTerminated/inactive; Yield must not overwrite that back to
// StateReady, since an inactive slot is never selected again regardless of
// State, and leaving it reading StateReady would misreport a dead task.
func Yield() {
	self := Current()
	if !self.Active {
		for {
			enableIRQFn()
			haltFn()
		}
	}
	self.State = StateReady
	self.TicksRemaining = 0
	for self.State != StateRunning {
		enableIRQFn()
		haltFn()
	}
}

// Sleep blocks the current task for ms milliseconds converted to timer
// ticks. The conversion rounds down, so a sleep shorter than one tick ends
// at the next tick.
func Sleep(ms uint32) {
	self := Current()
	self.WakeTick = ticksSinceBoot + uint64(ms)*uint64(tickRate)/1000
	self.State = StateSleeping
	self.TicksRemaining = 0
	for self.State != StateRunning {
		enableIRQFn()
		haltFn()
	}
}

// Block marks the current task blocked for the given IPC reason and yields
// until some other task wakes it via Wake.
func Block(reason BlockReason, peer int32) {
	self := Current()
	self.BlockReason = reason
	self.PeerPID = peer
	self.State = StateBlocked
	self.TicksRemaining = 0
	for self.State != StateRunning {
		enableIRQFn()
		haltFn()
	}
}

// Wake promotes a blocked task back to ready, clearing its block reason.
func Wake(pid int32) {
	if t := ByPID(pid); t != nil && t.State == StateBlocked {
		t.BlockReason = BlockNone
		t.State = StateReady
	}
}

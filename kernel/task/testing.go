package task

// ResetForTesting restores the task table to its just-booted state: only the
// idle task present, no locks held, PID counter restarted. Exported for use
// by other packages' tests (e.g. ipc) that need a clean task table without
// reaching into task's unexported state directly.
func ResetForTesting() {
	tasks = [MaxTasks]PCB{}
	currentIdx = 0
	lockCount = 0
	nextPID = 1
	ticksSinceBoot = 0
	Init(tickRate)
}

// SetCurrentForTesting points Current() at the active task with the given
// pid, without going through the scheduler. A no-op if no such task exists.
func SetCurrentForTesting(pid int32) {
	for i := range tasks {
		if tasks[i].Active && tasks[i].PID == pid {
			currentIdx = i
			return
		}
	}
}

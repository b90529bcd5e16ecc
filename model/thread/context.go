package thread

// Affinity declares which CPU a thread prefers to run on.
type Affinity int

// NoAffinity resolves to the CPU executing the enqueue call.
const NoAffinity Affinity = -1

// IsPinned reports whether the affinity names a concrete CPU.
func (a Affinity) IsPinned() bool {
	return a != NoAffinity
}

// MinPriority is the lowest scheduling priority; idle threads always carry it.
const MinPriority = 0

// SchedContext holds the per-thread fields the scheduling core is allowed to
// mutate. A thread without a SchedContext is uninitialised and rejected by
// every operation.
//
// Ownership: State and CPU are written only under the lock of the ready queue
// the thread belongs (or is being added) to; Budget is written only by the
// CPU the thread is current on.
type SchedContext struct {
	State    RunState `json:"state"`
	CPU      int      `json:"cpu"`
	Affinity Affinity `json:"affinity"`
	Priority int      `json:"priority"`
	Budget   uint32   `json:"budget"`
}

// NewSchedContext creates a scheduling context in the initial state with the
// given affinity and priority.
func NewSchedContext(affinity Affinity, priority int) *SchedContext {
	return &SchedContext{
		State:    StateInit,
		CPU:      -1,
		Affinity: affinity,
		Priority: priority,
	}
}

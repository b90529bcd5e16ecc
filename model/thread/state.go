package thread

// RunState represents the current scheduling State of a thread
type RunState string

const (
	// StateInit marks a freshly created thread that has never been enqueued.
	StateInit RunState = "init"
	// StateReady means the thread sits in exactly one CPU's ready queue and
	// is eligible for selection.
	StateReady RunState = "ready"
	// StateInter is the transitional state between being dequeued and being
	// switched to. A thread in this state belongs to no queue.
	StateInter RunState = "inter"
	// StateRunning means the thread is the current thread of its home CPU.
	StateRunning RunState = "running"
	// StateWaiting and StateExited are owned by collaborators (blocking and
	// teardown); the scheduling core never produces them but rejects threads
	// carrying them where a precondition requires otherwise.
	StateWaiting RunState = "waiting"
	StateExited  RunState = "exited"
)

// IsReady reports whether the thread is queued and selectable.
func (s RunState) IsReady() bool {
	return s == StateReady
}

// IsRunnable reports whether the scheduling core may act on the state at all.
func (s RunState) IsRunnable() bool {
	switch s {
	case StateInit, StateReady, StateInter, StateRunning:
		return true
	}
	return false
}

package thread

// Kind tags the flavour of a thread
type Kind string

const (
	// KindUser is an ordinary user-level thread.
	KindUser Kind = "user"
	// KindKernel is a kernel-level thread without a user address space.
	KindKernel Kind = "kernel"
	// KindIdle is the per-CPU fallback thread. Idle threads never enter a
	// ready queue; enqueue is a silent no-op and dequeue is rejected.
	KindIdle Kind = "idle"
)

// IsIdle reports whether the kind marks a per-CPU idle thread.
func (k Kind) IsIdle() bool {
	return k == KindIdle
}

// Package readyqueue implements the per-CPU ordered store of runnable thread
// handles. It is a leaf data structure: insertion order is selection order
// and no scheduling rules live here; the policy layer owns the run-state
// machine and the per-queue lock that guards both the store and the
// scheduling fields of its members.
package readyqueue

import (
	"github.com/osforge/schedcore/model/thread"
)

// Queue is one CPU's ready queue: a FIFO of non-owning thread handles. The
// queue records membership only, it never owns a thread.
//
// Queue is not synchronised. Each queue is guarded by its CPU's scheduler
// lock, which stands in for the interrupt-masked critical sections of a
// kernel; remote enqueues take the target CPU's lock.
type Queue struct {
	cpu     int
	members []*thread.Thread
}

// New creates an empty ready queue owned by the given CPU.
func New(cpu int) *Queue {
	return &Queue{cpu: cpu}
}

// CPU returns the identifier of the owning CPU.
func (q *Queue) CPU() int {
	return q.cpu
}

// Push appends a thread handle at the tail.
func (q *Queue) Push(t *thread.Thread) {
	q.members = append(q.members, t)
}

// Head returns the thread at the front without removing it, or nil when the
// queue is empty.
func (q *Queue) Head() *thread.Thread {
	if len(q.members) == 0 {
		return nil
	}
	return q.members[0]
}

// Remove deletes the first occurrence of t and reports whether it was a
// member.
func (q *Queue) Remove(t *thread.Thread) bool {
	for i, member := range q.members {
		if member == t {
			q.members = append(q.members[:i], q.members[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether t is currently a member.
func (q *Queue) Contains(t *thread.Thread) bool {
	for _, member := range q.members {
		if member == t {
			return true
		}
	}
	return false
}

// Len returns the current number of members.
func (q *Queue) Len() int {
	return len(q.members)
}

// Empty reports whether the queue has no members.
func (q *Queue) Empty() bool {
	return len(q.members) == 0
}

// Snapshot returns a copy of the membership in queue order, for diagnostics
// and state dumps.
func (q *Queue) Snapshot() []*thread.Thread {
	out := make([]*thread.Thread, len(q.members))
	copy(out, q.members)
	return out
}

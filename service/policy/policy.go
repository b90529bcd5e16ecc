package policy

import (
	"context"

	"github.com/osforge/schedcore/model/thread"
)

// Policy is the fixed operations surface every scheduling policy exposes to
// the kernel's generic dispatcher. Only the round-robin policy ships today;
// the interface keeps the dispatch table explicit so alternatives can plug
// in without touching callers.
//
// Every operation runs on behalf of the CPU recorded in ctx (see
// runtime/smp.WithCPU). Operations are short, bounded and non-blocking; ctx
// carries identity, not cancellation.
type Policy interface {
	// Init constructs the per-CPU ready queues and idle threads. Called once
	// before any scheduling occurs.
	Init(ctx context.Context) error

	// Enqueue makes t eligible for selection on its affinity CPU, or on the
	// executing CPU when the affinity is unconstrained. May be called on
	// behalf of a different CPU (cross-CPU wake-up).
	Enqueue(ctx context.Context, t *thread.Thread) error

	// Dequeue removes t from the executing CPU's ready queue. A CPU may only
	// dequeue from its own queue.
	Dequeue(ctx context.Context, t *thread.Thread) error

	// ChooseNext picks the next thread for the executing CPU. It never
	// fails: with an empty queue it degrades to the CPU's idle thread.
	ChooseNext(ctx context.Context) *thread.Thread

	// Schedule is the top-level reschedule: park or re-queue the current
	// thread, select a successor, reset its budget and switch to it.
	Schedule(ctx context.Context) error

	// OnTimerIRQ is the periodic tick handler: charge the current thread one
	// budget unit, or reschedule once the budget is exhausted.
	OnTimerIRQ(ctx context.Context)
}

package rr

import (
	"fmt"

	"github.com/osforge/schedcore/internal/fault"
	"github.com/osforge/schedcore/model/thread"
)

// newIdleThread builds the perpetually-available fallback thread for one
// CPU: kind idle, minimum priority, pinned to its CPU, no user address
// space. Idle threads never enter a ready queue; selection hands them out
// directly when a queue runs dry.
func (p *Policy) newIdleThread(cpu int) *thread.Thread {
	t := thread.New(fmt.Sprintf("idle-%d", cpu), thread.KindIdle, thread.Affinity(cpu), thread.MinPriority)
	t.Ctx.CPU = cpu
	t.VMSpace = nil

	// Architecture code fills in the execution context. Without an idle
	// fallback the scheduler cannot run, so boot stops here on failure.
	if err := p.arch.InitIdleContext(cpu, t); err != nil {
		fault.Abort("idle context init failed for cpu %d: %v", cpu, err)
	}
	return t
}

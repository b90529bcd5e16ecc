// Package arch abstracts the architecture-specific pieces the scheduling
// core depends on: constructing the execution context of an idle thread and
// the idle routine it runs. Real ports would back this with register frames
// and a wfi/hlt loop; the emulated default yields the processor.
package arch

import (
	"runtime"

	"github.com/osforge/schedcore/model/thread"
)

// Arch is the architecture collaborator consumed at scheduler boot.
type Arch interface {
	// InitIdleContext fills in the execution context of a per-CPU idle
	// thread. An error here makes boot impossible: the scheduler cannot run
	// without an idle fallback.
	InitIdleContext(cpu int, t *thread.Thread) error
}

// Emulated is the default in-process architecture: the idle routine simply
// yields the underlying processor and waits for the next tick.
type Emulated struct{}

// NewEmulated returns the emulated architecture.
func NewEmulated() *Emulated {
	return &Emulated{}
}

// InitIdleContext installs the emulated idle routine as the thread's entry.
func (e *Emulated) InitIdleContext(cpu int, t *thread.Thread) error {
	t.Entry = IdleRoutine
	return nil
}

// IdleRoutine is one iteration of the idle loop: give the processor away and
// come back on the next timer tick.
func IdleRoutine() {
	runtime.Gosched()
}

var _ Arch = (*Emulated)(nil)

// Package smp models the symmetric-multiprocessing machinery the scheduling
// core runs on: a fixed set of CPUs established at boot, one current-thread
// slot per CPU, and the identity of "the CPU executing this code" carried in
// context.Context.
package smp

import (
	"context"
	"fmt"
	"sync"

	"github.com/osforge/schedcore/internal/klog"
	"github.com/osforge/schedcore/model/thread"
	"go.uber.org/zap"
)

type cpuKeyType struct{}

var cpuKey = cpuKeyType{}

// WithCPU returns a context bound to the given executing CPU. The machine
// emulation installs it once per CPU goroutine; a kernel would read a
// per-core register instead.
func WithCPU(ctx context.Context, cpu int) context.Context {
	return context.WithValue(ctx, cpuKey, cpu)
}

// CPUID returns the executing CPU recorded in ctx.
func CPUID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(cpuKey).(int)
	return id, ok
}

// SwitchHook receives control after a thread has been recorded as current,
// so that register/context transfer machinery (out of scope here) can
// restore its execution context.
type SwitchHook func(cpu int, prev, next *thread.Thread)

// Platform is the CPU registry. It is constructed once at boot and never
// grows or shrinks afterwards.
type Platform struct {
	cpus    int
	current []slot
	hook    SwitchHook
	log     *zap.Logger
}

// slot holds one CPU's current thread. The mutex stands in for the local
// interrupt masking that protects the slot in a kernel; cross-CPU readers
// (diagnostics, dumps) take it too.
type slot struct {
	mu sync.Mutex
	t  *thread.Thread
}

// Option customises a Platform.
type Option func(p *Platform)

// WithSwitchHook installs the context-transfer collaborator.
func WithSwitchHook(hook SwitchHook) Option {
	return func(p *Platform) { p.hook = hook }
}

// WithLogger sets the base logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Platform) { p.log = klog.New(l, "smp") }
}

// New creates a platform with the given CPU count.
func New(cpus int, options ...Option) (*Platform, error) {
	if cpus <= 0 {
		return nil, fmt.Errorf("platform requires at least one cpu, got %d", cpus)
	}
	p := &Platform{
		cpus:    cpus,
		current: make([]slot, cpus),
		log:     zap.NewNop(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// NumCPU returns the number of CPUs on the platform.
func (p *Platform) NumCPU() int {
	return p.cpus
}

// ValidCPU reports whether id names a CPU of this platform.
func (p *Platform) ValidCPU(id int) bool {
	return id >= 0 && id < p.cpus
}

// Current returns the thread currently recorded for the given CPU, or nil.
func (p *Platform) Current(cpu int) *thread.Thread {
	s := &p.current[cpu]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

// ClearCurrent empties a CPU's current-thread slot. Used at boot and by
// collaborators that park the current thread (block, exit).
func (p *Platform) ClearCurrent(cpu int) {
	s := &p.current[cpu]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t = nil
}

// SwitchTo records next as the current thread of the executing CPU, marks it
// running, and hands off to the switch hook for context restoration. It is
// the boundary of the scheduling core's responsibility: everything past the
// hook belongs to architecture code.
func (p *Platform) SwitchTo(ctx context.Context, next *thread.Thread) {
	cpu, ok := CPUID(ctx)
	if !ok {
		// A switch without an executing CPU is a harness programming error,
		// surfaced loudly rather than guessed around.
		panic("smp: SwitchTo called without executing CPU in context")
	}
	s := &p.current[cpu]
	s.mu.Lock()
	prev := s.t
	next.Ctx.State = thread.StateRunning
	next.Ctx.CPU = cpu
	s.t = next
	s.mu.Unlock()

	p.log.Debug("switch",
		zap.Int("cpu", cpu),
		zap.String("next", next.Name),
		zap.String("kind", string(next.Kind)))

	if p.hook != nil {
		p.hook(cpu, prev, next)
	}
}

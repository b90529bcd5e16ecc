package rr

import (
	"context"
	"fmt"
	"sync"

	"github.com/osforge/schedcore/internal/fault"
	"github.com/osforge/schedcore/model/thread"
	"github.com/osforge/schedcore/runtime/arch"
	"github.com/osforge/schedcore/runtime/smp"
	"github.com/osforge/schedcore/service/policy"
	"github.com/osforge/schedcore/service/readyqueue"
	"github.com/osforge/schedcore/tracing"
	"go.uber.org/zap"
)

// Config represents round-robin policy configuration
type Config struct {
	// DefaultBudget is the time-slice quantum, in timer ticks, granted to a
	// thread each time it becomes current.
	DefaultBudget uint32 `json:"defaultBudget" yaml:"defaultBudget"`
}

// DefaultConfig returns the default round-robin configuration
func DefaultConfig() Config {
	return Config{
		DefaultBudget: 5,
	}
}

// Policy implements plain round-robin scheduling: one FIFO ready queue per
// CPU, strict enqueue-order selection, a per-CPU idle fallback and
// budget-based preemption on the timer path.
//
// One logical scheduler instance runs per CPU, truly in parallel. Each CPU's
// queue and the scheduling fields of its members are guarded by that CPU's
// lock; the owning CPU takes its own lock for every mutation (the analogue
// of masking local interrupts) and a remote CPU takes the target's lock for
// a cross-CPU wake-up enqueue. Nothing else is shared across CPUs.
type Policy struct {
	config Config
	plat   *smp.Platform
	arch   arch.Arch
	log    *zap.Logger

	// locks[i] guards queues[i] and the State/CPU fields of its members.
	locks  []sync.Mutex
	queues []*readyqueue.Queue
	idle   []*thread.Thread
}

// New creates a round-robin policy for the given platform.
func New(plat *smp.Platform, options ...Option) (*Policy, error) {
	if plat == nil {
		return nil, fmt.Errorf("platform is required")
	}
	p := &Policy{
		config: DefaultConfig(),
		plat:   plat,
		arch:   arch.NewEmulated(),
		log:    zap.NewNop(),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.config.DefaultBudget == 0 {
		p.config.DefaultBudget = DefaultConfig().DefaultBudget
	}
	return p, nil
}

// Init constructs the per-CPU ready queues and idle threads. It must run
// once before any scheduling occurs; boot cannot proceed without the idle
// fallback, so a failing idle-context constructor aborts.
func (p *Policy) Init(ctx context.Context) error {
	n := p.plat.NumCPU()
	p.locks = make([]sync.Mutex, n)
	p.queues = make([]*readyqueue.Queue, n)
	p.idle = make([]*thread.Thread, n)

	for i := 0; i < n; i++ {
		p.plat.ClearCurrent(i)
		p.queues[i] = readyqueue.New(i)
	}
	for i := 0; i < n; i++ {
		p.idle[i] = p.newIdleThread(i)
	}

	p.log.Info("scheduler initialized", zap.Int("cpus", n), zap.Int("idleThreads", n))
	return nil
}

// Enqueue puts t at the tail of the ready queue of its affinity CPU, or of
// the executing CPU when the affinity is unconstrained. Enqueueing an idle
// thread is a silent no-op. The queue being mutated may belong to a
// different CPU than the caller (cross-CPU wake-up), which is why the
// target's lock is taken.
func (p *Policy) Enqueue(ctx context.Context, t *thread.Thread) error {
	if !t.Valid() {
		return policy.ErrInvalidThread
	}
	if t.Ctx.State.IsReady() {
		return policy.ErrAlreadyReady
	}
	if t.Kind.IsIdle() {
		return nil
	}

	target := 0
	if affinity := t.Ctx.Affinity; affinity.IsPinned() {
		if !p.plat.ValidCPU(int(affinity)) {
			return policy.ErrInvalidAffinity
		}
		target = int(affinity)
	} else {
		cpu, ok := smp.CPUID(ctx)
		if !ok || !p.plat.ValidCPU(cpu) {
			return policy.ErrNoCPU
		}
		target = cpu
	}

	p.locks[target].Lock()
	defer p.locks[target].Unlock()
	// Re-check under the target's lock: a racing enqueue may have won.
	if t.Ctx.State.IsReady() {
		return policy.ErrAlreadyReady
	}
	t.Ctx.State = thread.StateReady
	t.Ctx.CPU = target
	p.queues[target].Push(t)

	p.log.Debug("enqueue", zap.String("thread", t.Name), zap.Int("cpu", target))
	return nil
}

// Dequeue removes t from the executing CPU's ready queue and marks it
// transitional. A CPU never dequeues from a queue it does not own; that
// asymmetry is the concurrency-safety boundary of the whole core.
func (p *Policy) Dequeue(ctx context.Context, t *thread.Thread) error {
	if !t.Valid() {
		return policy.ErrInvalidThread
	}
	if t.Kind.IsIdle() {
		return policy.ErrIdleThread
	}
	cpu, ok := smp.CPUID(ctx)
	if !ok || !p.plat.ValidCPU(cpu) {
		return policy.ErrNoCPU
	}

	p.locks[cpu].Lock()
	defer p.locks[cpu].Unlock()
	return p.dequeueLocked(cpu, t)
}

// dequeueLocked removes t from cpu's queue. Caller holds locks[cpu].
func (p *Policy) dequeueLocked(cpu int, t *thread.Thread) error {
	if t.Ctx.CPU != cpu {
		return policy.ErrWrongCPU
	}
	if !t.Ctx.State.IsReady() {
		return policy.ErrNotReady
	}
	// A ready thread homed here must be a member; anything else means the
	// queue or the state field is corrupt.
	fault.On(!p.queues[cpu].Remove(t), "ready thread missing from cpu %d queue: %s", cpu, t)
	t.Ctx.State = thread.StateInter
	return nil
}

// ChooseNext picks the next thread to run on the executing CPU: the queue
// head in strict FIFO order, or the CPU's idle thread when the queue is
// empty. It never fails.
func (p *Policy) ChooseNext(ctx context.Context) *thread.Thread {
	cpu, ok := smp.CPUID(ctx)
	fault.On(!ok || !p.plat.ValidCPU(cpu), "thread selection without a valid executing cpu")

	p.locks[cpu].Lock()
	defer p.locks[cpu].Unlock()

	head := p.queues[cpu].Head()
	if head == nil {
		idle := p.idle[cpu]
		idle.Ctx.State = thread.StateInter
		return idle
	}

	if head.Ctx == nil || head.Ctx.CPU != cpu || !head.Ctx.State.IsReady() {
		fault.Abort("corrupt ready queue head on cpu %d: %s", cpu, head)
	}
	fault.On(p.dequeueLocked(cpu, head) != nil, "dequeue of validated head failed on cpu %d: %s", cpu, head)
	return head
}

// Schedule is the top-level reschedule, invoked on a voluntary yield and
// from the timer path once a time slice is exhausted.
//
// A current thread with remaining budget turns the call into a pure budget
// refill with no switch. The branch is unreachable from the timer path,
// which only reschedules at zero budget, but stays reachable through direct
// voluntary calls and is kept deliberately.
func (p *Policy) Schedule(ctx context.Context) (err error) {
	cpu, ok := smp.CPUID(ctx)
	if !ok || !p.plat.ValidCPU(cpu) {
		return policy.ErrNoCPU
	}
	ctx, span := tracing.StartSpan(ctx, "rr.Schedule", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	cur := p.plat.Current(cpu)
	if cur != nil && cur.Ctx != nil && cur.Ctx.Budget != 0 {
		cur.Ctx.Budget = p.config.DefaultBudget
		return nil
	}

	if cur != nil {
		cur.Ctx.Budget = p.config.DefaultBudget
		// Re-queue at the tail of this CPU's queue. The current thread is in
		// a consistent non-ready state, so a rejection here can only mean
		// corrupted shared state.
		if enqueueErr := p.Enqueue(ctx, cur); enqueueErr != nil {
			fault.Abort("re-enqueue of current thread failed on cpu %d: %v: %s", cpu, enqueueErr, cur)
		}
	}

	next := p.ChooseNext(ctx)
	next.Ctx.Budget = p.config.DefaultBudget
	p.plat.SwitchTo(ctx, next)
	return nil
}

// OnTimerIRQ handles one periodic timer tick on the receiving CPU: charge
// the current thread one budget unit, or reschedule once the budget is gone.
func (p *Policy) OnTimerIRQ(ctx context.Context) {
	cpu, ok := smp.CPUID(ctx)
	fault.On(!ok || !p.plat.ValidCPU(cpu), "timer tick without a valid executing cpu")

	cur := p.plat.Current(cpu)
	if cur != nil && cur.Ctx != nil && cur.Ctx.Budget != 0 {
		cur.Ctx.Budget--
		return
	}

	fault.On(p.Schedule(ctx) != nil, "reschedule from timer path failed on cpu %d", cpu)
}

// IdleThread returns the idle thread bound to the given CPU.
func (p *Policy) IdleThread(cpu int) *thread.Thread {
	return p.idle[cpu]
}

// QueueLen returns the number of threads queued on the given CPU.
func (p *Policy) QueueLen(cpu int) int {
	p.locks[cpu].Lock()
	defer p.locks[cpu].Unlock()
	return p.queues[cpu].Len()
}

// QueueSnapshot returns the membership of a CPU's queue in selection order,
// for diagnostics and state dumps.
func (p *Policy) QueueSnapshot(cpu int) []*thread.Thread {
	p.locks[cpu].Lock()
	defer p.locks[cpu].Unlock()
	return p.queues[cpu].Snapshot()
}

// Queued reports whether t is currently a member of the given CPU's queue.
func (p *Policy) Queued(cpu int, t *thread.Thread) bool {
	p.locks[cpu].Lock()
	defer p.locks[cpu].Unlock()
	return p.queues[cpu].Contains(t)
}

// DefaultBudget returns the configured time-slice quantum.
func (p *Policy) DefaultBudget() uint32 {
	return p.config.DefaultBudget
}

// ensure Policy implements the policy operations surface
var _ policy.Policy = (*Policy)(nil)

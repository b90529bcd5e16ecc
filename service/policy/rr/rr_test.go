package rr

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/osforge/schedcore/internal/fault"
	"github.com/osforge/schedcore/model/thread"
	"github.com/osforge/schedcore/runtime/smp"
	"github.com/osforge/schedcore/service/policy"
	"github.com/stretchr/testify/assert"
)

func newTestPolicy(t *testing.T, cpus int) (*Policy, *smp.Platform) {
	plat, err := smp.New(cpus)
	assert.NoError(t, err)
	p, err := New(plat)
	assert.NoError(t, err)
	assert.NoError(t, p.Init(context.Background()))
	return p, plat
}

func onCPU(cpu int) context.Context {
	return smp.WithCPU(context.Background(), cpu)
}

func newWorker(name string, affinity thread.Affinity) *thread.Thread {
	return thread.New(name, thread.KindUser, affinity, 10)
}

func TestInit(t *testing.T) {
	p, plat := newTestPolicy(t, 4)

	for cpu := 0; cpu < 4; cpu++ {
		assert.Nil(t, plat.Current(cpu))
		assert.Equal(t, 0, p.QueueLen(cpu))

		idle := p.IdleThread(cpu)
		assert.True(t, idle.Valid())
		assert.Equal(t, thread.KindIdle, idle.Kind)
		assert.Equal(t, thread.MinPriority, idle.Ctx.Priority)
		assert.Equal(t, cpu, idle.Ctx.CPU)
		assert.Nil(t, idle.VMSpace)
		assert.NotNil(t, idle.Entry)
	}
}

func TestInitIdleContextFailureIsFatal(t *testing.T) {
	plat, err := smp.New(1)
	assert.NoError(t, err)
	p, err := New(plat, WithArch(failingArch{}))
	assert.NoError(t, err)

	defer func() {
		_, ok := recover().(*fault.Violation)
		assert.True(t, ok)
	}()
	_ = p.Init(context.Background())
	t.Fatal("init must not survive a failing idle-context constructor")
}

type failingArch struct{}

func (failingArch) InitIdleContext(cpu int, t *thread.Thread) error {
	return fmt.Errorf("no memory for idle context")
}

func TestEnqueue(t *testing.T) {
	p, _ := newTestPolicy(t, 2)
	ctx := onCPU(0)

	t.Run("invalid thread", func(t *testing.T) {
		assert.ErrorIs(t, p.Enqueue(ctx, nil), policy.ErrInvalidThread)
		assert.ErrorIs(t, p.Enqueue(ctx, &thread.Thread{}), policy.ErrInvalidThread)
	})

	t.Run("idle thread is a silent no-op", func(t *testing.T) {
		idle := p.IdleThread(0)
		assert.NoError(t, p.Enqueue(ctx, idle))
		assert.Equal(t, 0, p.QueueLen(0))
		assert.Equal(t, 0, p.QueueLen(1))
		assert.False(t, idle.Ctx.State.IsReady())
	})

	t.Run("no affinity resolves to calling cpu", func(t *testing.T) {
		w := newWorker("w", thread.NoAffinity)
		assert.NoError(t, p.Enqueue(onCPU(1), w))
		assert.Equal(t, thread.StateReady, w.Ctx.State)
		assert.Equal(t, 1, w.Ctx.CPU)
		assert.True(t, p.Queued(1, w))
		assert.False(t, p.Queued(0, w))
	})

	t.Run("pinned affinity targets its cpu regardless of caller", func(t *testing.T) {
		w := newWorker("pinned", thread.Affinity(0))
		assert.NoError(t, p.Enqueue(onCPU(1), w))
		assert.Equal(t, 0, w.Ctx.CPU)
		assert.True(t, p.Queued(0, w))
	})

	t.Run("out of range affinity is rejected without mutation", func(t *testing.T) {
		before0, before1 := p.QueueLen(0), p.QueueLen(1)
		w := newWorker("stray", thread.Affinity(2))
		assert.ErrorIs(t, p.Enqueue(ctx, w), policy.ErrInvalidAffinity)
		assert.Equal(t, thread.StateInit, w.Ctx.State)
		assert.Equal(t, before0, p.QueueLen(0))
		assert.Equal(t, before1, p.QueueLen(1))
	})

	t.Run("double enqueue is rejected", func(t *testing.T) {
		w := newWorker("dup", thread.NoAffinity)
		assert.NoError(t, p.Enqueue(ctx, w))
		assert.ErrorIs(t, p.Enqueue(ctx, w), policy.ErrAlreadyReady)
		assert.ErrorIs(t, p.Enqueue(onCPU(1), w), policy.ErrAlreadyReady)
	})

	t.Run("missing executing cpu", func(t *testing.T) {
		w := newWorker("lost", thread.NoAffinity)
		assert.ErrorIs(t, p.Enqueue(context.Background(), w), policy.ErrNoCPU)
	})
}

func TestDequeue(t *testing.T) {
	p, _ := newTestPolicy(t, 2)
	ctx := onCPU(0)

	t.Run("invalid thread", func(t *testing.T) {
		assert.ErrorIs(t, p.Dequeue(ctx, nil), policy.ErrInvalidThread)
	})

	t.Run("idle thread is rejected", func(t *testing.T) {
		assert.ErrorIs(t, p.Dequeue(ctx, p.IdleThread(0)), policy.ErrIdleThread)
	})

	t.Run("wrong cpu is rejected", func(t *testing.T) {
		w := newWorker("w", thread.Affinity(1))
		assert.NoError(t, p.Enqueue(ctx, w))
		assert.ErrorIs(t, p.Dequeue(ctx, w), policy.ErrWrongCPU)
		assert.True(t, p.Queued(1, w))

		assert.NoError(t, p.Dequeue(onCPU(1), w))
		assert.Equal(t, thread.StateInter, w.Ctx.State)
		assert.False(t, p.Queued(1, w))
	})

	t.Run("not ready is rejected", func(t *testing.T) {
		w := newWorker("fresh", thread.NoAffinity)
		assert.ErrorIs(t, p.Dequeue(ctx, w), policy.ErrNotReady)
	})
}

func TestQueueExclusivity(t *testing.T) {
	p, _ := newTestPolicy(t, 2)

	w := newWorker("w", thread.NoAffinity)
	assert.NoError(t, p.Enqueue(onCPU(0), w))

	// Ready implies membership in exactly the home queue.
	assert.True(t, p.Queued(0, w))
	assert.False(t, p.Queued(1, w))

	// Re-enqueue towards another CPU is rejected, so no double membership.
	assert.Error(t, p.Enqueue(onCPU(1), w))
	assert.True(t, p.Queued(0, w))
	assert.False(t, p.Queued(1, w))

	// After dequeue, membership is gone alongside the ready state.
	assert.NoError(t, p.Dequeue(onCPU(0), w))
	assert.False(t, p.Queued(0, w))
	assert.False(t, w.Ctx.State.IsReady())
}

func TestChooseNextFIFO(t *testing.T) {
	p, _ := newTestPolicy(t, 1)
	ctx := onCPU(0)

	a := newWorker("a", thread.NoAffinity)
	b := newWorker("b", thread.NoAffinity)
	assert.NoError(t, p.Enqueue(ctx, a))
	assert.NoError(t, p.Enqueue(ctx, b))

	first := p.ChooseNext(ctx)
	assert.Same(t, a, first)
	assert.Equal(t, thread.StateInter, a.Ctx.State)
	assert.False(t, p.Queued(0, a))
	assert.True(t, p.Queued(0, b))

	second := p.ChooseNext(ctx)
	assert.Same(t, b, second)
	assert.Equal(t, 0, p.QueueLen(0))
}

func TestChooseNextIdleFallback(t *testing.T) {
	p, _ := newTestPolicy(t, 2)
	ctx := onCPU(1)

	// Repeated selection on an empty queue returns the same idle thread,
	// idempotently, and never touches any queue.
	for i := 0; i < 3; i++ {
		got := p.ChooseNext(ctx)
		assert.Same(t, p.IdleThread(1), got)
		assert.Equal(t, thread.StateInter, got.Ctx.State)
		assert.Equal(t, 0, p.QueueLen(0))
		assert.Equal(t, 0, p.QueueLen(1))
	}
}

func TestChooseNextCorruptHeadIsFatal(t *testing.T) {
	p, _ := newTestPolicy(t, 2)
	ctx := onCPU(0)

	w := newWorker("w", thread.NoAffinity)
	assert.NoError(t, p.Enqueue(ctx, w))

	// Corrupt the home CPU behind the scheduler's back: the head check must
	// trap instead of selecting a thread homed elsewhere.
	w.Ctx.CPU = 1
	defer func() {
		_, ok := recover().(*fault.Violation)
		assert.True(t, ok)
	}()
	p.ChooseNext(ctx)
	t.Fatal("selection must not survive a corrupt queue head")
}

func TestSchedule(t *testing.T) {
	t.Run("no current thread selects and switches", func(t *testing.T) {
		p, plat := newTestPolicy(t, 1)
		ctx := onCPU(0)

		w := newWorker("w", thread.NoAffinity)
		assert.NoError(t, p.Enqueue(ctx, w))
		assert.NoError(t, p.Schedule(ctx))

		assert.Same(t, w, plat.Current(0))
		assert.Equal(t, thread.StateRunning, w.Ctx.State)
		assert.Equal(t, p.DefaultBudget(), w.Ctx.Budget)
		assert.Equal(t, 0, p.QueueLen(0))
	})

	t.Run("non-zero budget is a pure refill without switch", func(t *testing.T) {
		p, plat := newTestPolicy(t, 1)
		ctx := onCPU(0)

		w := newWorker("w", thread.NoAffinity)
		assert.NoError(t, p.Enqueue(ctx, w))
		assert.NoError(t, p.Schedule(ctx))
		w.Ctx.Budget = 2

		other := newWorker("other", thread.NoAffinity)
		assert.NoError(t, p.Enqueue(ctx, other))

		assert.NoError(t, p.Schedule(ctx))
		assert.Same(t, w, plat.Current(0), "refill must not switch")
		assert.Equal(t, p.DefaultBudget(), w.Ctx.Budget)
		assert.True(t, p.Queued(0, other))
	})

	t.Run("zero budget re-queues current at the tail", func(t *testing.T) {
		p, plat := newTestPolicy(t, 1)
		ctx := onCPU(0)

		x := newWorker("x", thread.NoAffinity)
		y := newWorker("y", thread.NoAffinity)
		assert.NoError(t, p.Enqueue(ctx, x))
		assert.NoError(t, p.Schedule(ctx))
		assert.Same(t, x, plat.Current(0))

		assert.NoError(t, p.Enqueue(ctx, y))
		x.Ctx.Budget = 0

		assert.NoError(t, p.Schedule(ctx))
		assert.Same(t, y, plat.Current(0))
		assert.Equal(t, p.DefaultBudget(), y.Ctx.Budget)
		// x went back to the tail with a fresh budget, ready again.
		assert.True(t, p.Queued(0, x))
		assert.Equal(t, thread.StateReady, x.Ctx.State)
		assert.Equal(t, p.DefaultBudget(), x.Ctx.Budget)
	})

	t.Run("alone with zero budget gets itself back", func(t *testing.T) {
		p, plat := newTestPolicy(t, 1)
		ctx := onCPU(0)

		x := newWorker("x", thread.NoAffinity)
		assert.NoError(t, p.Enqueue(ctx, x))
		assert.NoError(t, p.Schedule(ctx))
		x.Ctx.Budget = 0

		assert.NoError(t, p.Schedule(ctx))
		assert.Same(t, x, plat.Current(0))
		assert.Equal(t, thread.StateRunning, x.Ctx.State)
		assert.Equal(t, p.DefaultBudget(), x.Ctx.Budget)
	})

	t.Run("empty queue schedules the idle thread", func(t *testing.T) {
		p, plat := newTestPolicy(t, 1)
		ctx := onCPU(0)

		assert.NoError(t, p.Schedule(ctx))
		assert.Same(t, p.IdleThread(0), plat.Current(0))
		assert.Equal(t, thread.StateRunning, p.IdleThread(0).Ctx.State)
	})

	t.Run("missing executing cpu", func(t *testing.T) {
		p, _ := newTestPolicy(t, 1)
		assert.ErrorIs(t, p.Schedule(context.Background()), policy.ErrNoCPU)
	})
}

func TestOnTimerIRQBudgetMonotonicity(t *testing.T) {
	p, plat := newTestPolicy(t, 1)
	ctx := onCPU(0)

	w := newWorker("w", thread.NoAffinity)
	assert.NoError(t, p.Enqueue(ctx, w))
	assert.NoError(t, p.Schedule(ctx))
	budget := p.DefaultBudget()
	assert.Equal(t, budget, w.Ctx.Budget)

	// Each tick charges exactly one unit and never switches, including the
	// tick that reaches zero.
	for i := uint32(1); i <= budget; i++ {
		p.OnTimerIRQ(ctx)
		assert.Equal(t, budget-i, w.Ctx.Budget)
		assert.Same(t, w, plat.Current(0))
	}

	// The next tick finds zero budget and reschedules; with an otherwise
	// empty queue the thread continues with a fresh slice.
	p.OnTimerIRQ(ctx)
	assert.Same(t, w, plat.Current(0))
	assert.Equal(t, budget, w.Ctx.Budget)
}

func TestOnTimerIRQPreemptsToNextThread(t *testing.T) {
	p, plat := newTestPolicy(t, 1)
	ctx := onCPU(0)

	a := newWorker("a", thread.NoAffinity)
	b := newWorker("b", thread.NoAffinity)
	assert.NoError(t, p.Enqueue(ctx, a))
	assert.NoError(t, p.Enqueue(ctx, b))
	assert.NoError(t, p.Schedule(ctx))
	assert.Same(t, a, plat.Current(0))

	// Drain a's slice, then one more tick hands the CPU to b.
	for i := uint32(0); i < p.DefaultBudget(); i++ {
		p.OnTimerIRQ(ctx)
	}
	assert.Same(t, a, plat.Current(0))
	p.OnTimerIRQ(ctx)
	assert.Same(t, b, plat.Current(0))
	assert.True(t, p.Queued(0, a))
}

func TestOnTimerIRQWithoutCurrentSchedules(t *testing.T) {
	p, plat := newTestPolicy(t, 1)
	ctx := onCPU(0)

	assert.Nil(t, plat.Current(0))
	p.OnTimerIRQ(ctx)
	assert.Same(t, p.IdleThread(0), plat.Current(0))
}

func TestEndToEndTwoCPUs(t *testing.T) {
	p, plat := newTestPolicy(t, 2)
	ctx := onCPU(0)

	t1 := newWorker("t1", thread.Affinity(0))
	t2 := newWorker("t2", thread.Affinity(0))
	assert.NoError(t, p.Enqueue(ctx, t1))
	assert.NoError(t, p.Enqueue(ctx, t2))

	got := p.ChooseNext(ctx)
	assert.Same(t, t1, got)
	assert.False(t, p.Queued(0, t1))
	assert.True(t, p.Queued(0, t2))

	assert.NoError(t, p.Schedule(ctx))
	assert.Same(t, t2, plat.Current(0))
	assert.Equal(t, p.DefaultBudget(), t2.Ctx.Budget)
	assert.Equal(t, 0, p.QueueLen(0))

	// CPU1 stayed out of it entirely.
	assert.Nil(t, plat.Current(1))
	assert.Equal(t, 0, p.QueueLen(1))
}

func TestCrossCPUWakeUpRace(t *testing.T) {
	p, _ := newTestPolicy(t, 2)

	// Remote CPUs enqueue onto cpu0 while cpu0 keeps selecting; every
	// enqueued thread must be selected exactly once and queues must drain.
	const remoteThreads = 64
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ctx := onCPU(1)
		for i := 0; i < remoteThreads; i++ {
			w := newWorker(fmt.Sprintf("remote-%d", i), thread.Affinity(0))
			assert.NoError(t, p.Enqueue(ctx, w))
		}
	}()

	selected := make(map[*thread.Thread]bool)
	go func() {
		defer wg.Done()
		ctx := onCPU(0)
		for len(selected) < remoteThreads {
			got := p.ChooseNext(ctx)
			if got.Kind.IsIdle() {
				continue
			}
			assert.False(t, selected[got], "thread selected twice: %s", got)
			selected[got] = true
		}
	}()

	wg.Wait()
	assert.Equal(t, remoteThreads, len(selected))
	assert.Equal(t, 0, p.QueueLen(0))
}

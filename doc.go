// Package schedcore implements the round-robin CPU scheduling core of a
// microkernel as an embeddable Go library: per-CPU ready queues, the thread
// run-state machine, budget-based time-slice accounting and the per-CPU idle
// fallback.
//
// One scheduler instance runs per CPU, genuinely in parallel. The root
// Service assembles the platform, the round-robin policy and an optional
// machine emulation that delivers timer interrupts:
//
//	svc, _ := schedcore.New(schedcore.WithCPUs(2))
//	_ = svc.Init(ctx)
//	cpu0 := smp.WithCPU(ctx, 0)
//	_ = svc.Scheduler().Enqueue(cpu0, t)
//	_ = svc.Scheduler().Schedule(cpu0)
//
// For more details see the individual sub-packages, in particular
// service/policy/rr.
package schedcore

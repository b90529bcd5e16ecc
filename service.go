package schedcore

import (
	"context"
	"fmt"

	"github.com/osforge/schedcore/internal/fault"
	"github.com/osforge/schedcore/runtime/arch"
	"github.com/osforge/schedcore/runtime/machine"
	"github.com/osforge/schedcore/runtime/smp"
	"github.com/osforge/schedcore/service/dump"
	"github.com/osforge/schedcore/service/policy/rr"
	"go.uber.org/zap"
)

// Service is the root facade: it wires the platform, the round-robin policy,
// the machine emulation and the optional dump store together.
type Service struct {
	config     *Config
	log        *zap.Logger
	arch       arch.Arch
	switchHook smp.SwitchHook

	plat      *smp.Platform
	scheduler *rr.Policy
	machine   *machine.Machine
	dump      *dump.Service
}

// New assembles a scheduler service from the given options.
func New(options ...Option) (*Service, error) {
	s := &Service{
		config: DefaultConfig(),
		arch:   arch.NewEmulated(),
	}
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.log != nil {
		fault.SetLogger(s.log)
	}

	var err error
	if s.plat, err = smp.New(s.config.Platform.CPUs,
		smp.WithLogger(s.log),
		smp.WithSwitchHook(s.switchHook)); err != nil {
		return nil, err
	}
	if s.scheduler, err = rr.New(s.plat,
		rr.WithConfig(rr.Config{DefaultBudget: s.config.Platform.DefaultBudget}),
		rr.WithArch(s.arch),
		rr.WithLogger(s.log)); err != nil {
		return nil, err
	}
	if s.machine, err = machine.New(s.plat, s.scheduler,
		machine.WithConfig(s.config.Machine),
		machine.WithLogger(s.log)); err != nil {
		return nil, err
	}
	if s.config.Dump.URL != "" {
		if s.dump, err = dump.New(s.config.Dump.URL); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Init boots the scheduling core: per-CPU queues, cleared current slots and
// one idle thread per CPU.
func (s *Service) Init(ctx context.Context) error {
	return s.scheduler.Init(ctx)
}

// Scheduler returns the round-robin policy.
func (s *Service) Scheduler() *rr.Policy {
	return s.scheduler
}

// Platform returns the CPU registry.
func (s *Service) Platform() *smp.Platform {
	return s.plat
}

// Machine returns the timer emulation harness.
func (s *Service) Machine() *machine.Machine {
	return s.machine
}

// Start boots the core and launches the per-CPU scheduling loops.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	return s.machine.Start(ctx)
}

// Shutdown stops the per-CPU loops.
func (s *Service) Shutdown() error {
	return s.machine.Shutdown()
}

// DumpState captures a snapshot of the scheduler state and persists it,
// returning the location written to. Requires a configured dump URL.
func (s *Service) DumpState(ctx context.Context) (string, error) {
	if s.dump == nil {
		return "", fmt.Errorf("dump store is not configured")
	}
	return s.dump.Save(ctx, dump.Capture(s.plat, s.scheduler))
}

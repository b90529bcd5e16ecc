// Package machine emulates the hardware the scheduling core sits on: one
// goroutine per CPU, each delivering periodic timer interrupts to the policy
// and executing whatever thread is current on that CPU. It exists so the
// per-core-parallel scheduling model is exercisable in-process, in tests and
// examples, exactly as it would be across physical cores.
package machine

import (
	"context"
	"fmt"
	"time"

	"github.com/osforge/schedcore/internal/klog"
	"github.com/osforge/schedcore/runtime/smp"
	"github.com/osforge/schedcore/service/policy"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Config represents machine emulation configuration
type Config struct {
	// TickInterval is the period of the emulated timer interrupt.
	TickInterval time.Duration `json:"tickInterval" yaml:"tickInterval"`
}

// DefaultConfig returns the default machine configuration
func DefaultConfig() Config {
	return Config{
		TickInterval: 10 * time.Millisecond,
	}
}

// UnmarshalYAML accepts human-friendly durations such as "20ms" for
// tickInterval.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		TickInterval string `yaml:"tickInterval"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.TickInterval == "" {
		return nil
	}
	interval, err := time.ParseDuration(raw.TickInterval)
	if err != nil {
		return fmt.Errorf("invalid tickInterval %q: %w", raw.TickInterval, err)
	}
	c.TickInterval = interval
	return nil
}

// Machine drives one scheduling loop per CPU.
type Machine struct {
	plat   *smp.Platform
	policy policy.Policy
	config Config
	log    *zap.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// Option customises a Machine.
type Option func(m *Machine)

// WithConfig sets the machine configuration.
func WithConfig(config Config) Option {
	return func(m *Machine) { m.config = config }
}

// WithLogger sets the base logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.log = klog.New(l, "machine") }
}

// New creates a machine for the given platform and policy.
func New(plat *smp.Platform, pol policy.Policy, options ...Option) (*Machine, error) {
	if plat == nil {
		return nil, fmt.Errorf("platform is required")
	}
	if pol == nil {
		return nil, fmt.Errorf("scheduling policy is required")
	}
	m := &Machine{
		plat:   plat,
		policy: pol,
		config: DefaultConfig(),
		log:    zap.NewNop(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.config.TickInterval <= 0 {
		m.config.TickInterval = DefaultConfig().TickInterval
	}
	return m, nil
}

// Start launches one scheduling loop per CPU and returns immediately. The
// loops run until ctx is cancelled or Shutdown is called.
func (m *Machine) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	m.group = group

	for cpu := 0; cpu < m.plat.NumCPU(); cpu++ {
		cpu := cpu
		group.Go(func() error {
			return m.run(gctx, cpu)
		})
	}
	m.log.Info("machine started",
		zap.Int("cpus", m.plat.NumCPU()),
		zap.Duration("tickInterval", m.config.TickInterval))
	return nil
}

// run is one CPU's loop: deliver a timer tick, then execute a slice of the
// current thread.
func (m *Machine) run(ctx context.Context, cpu int) error {
	cctx := smp.WithCPU(ctx, cpu)
	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.policy.OnTimerIRQ(cctx)
			if cur := m.plat.Current(cpu); cur != nil && cur.Entry != nil {
				cur.Entry()
			}
		}
	}
}

// Tick delivers a single timer interrupt to the given CPU. Used for
// deterministic stepping in tests.
func (m *Machine) Tick(ctx context.Context, cpu int) {
	m.policy.OnTimerIRQ(smp.WithCPU(ctx, cpu))
}

// Shutdown stops all CPU loops and waits for them to drain.
func (m *Machine) Shutdown() error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()
	return m.group.Wait()
}

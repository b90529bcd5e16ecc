package schedcore

import (
	"github.com/osforge/schedcore/runtime/arch"
	"github.com/osforge/schedcore/runtime/smp"
	"go.uber.org/zap"
)

// Option customises the scheduler service
type Option func(s *Service)

// WithConfig sets the whole configuration
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithCPUs overrides the platform CPU count
func WithCPUs(cpus int) Option {
	return func(s *Service) { s.config.Platform.CPUs = cpus }
}

// WithDefaultBudget overrides the time-slice quantum
func WithDefaultBudget(budget uint32) Option {
	return func(s *Service) { s.config.Platform.DefaultBudget = budget }
}

// WithArch sets the architecture collaborator
func WithArch(a arch.Arch) Option {
	return func(s *Service) { s.arch = a }
}

// WithSwitchHook installs the register/context transfer collaborator invoked
// after a thread becomes current
func WithSwitchHook(hook smp.SwitchHook) Option {
	return func(s *Service) { s.switchHook = hook }
}

// WithLogger sets the base logger shared by all components
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

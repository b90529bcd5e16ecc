package rr

import (
	"github.com/osforge/schedcore/internal/klog"
	"github.com/osforge/schedcore/runtime/arch"
	"go.uber.org/zap"
)

// Option customises the round-robin policy
type Option func(p *Policy)

// WithConfig sets the policy configuration
func WithConfig(config Config) Option {
	return func(p *Policy) { p.config = config }
}

// WithArch sets the architecture collaborator used to build idle contexts
func WithArch(a arch.Arch) Option {
	return func(p *Policy) {
		if a != nil {
			p.arch = a
		}
	}
}

// WithLogger sets the base logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Policy) { p.log = klog.New(l, "sched.rr") }
}

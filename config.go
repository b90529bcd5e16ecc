package schedcore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/osforge/schedcore/runtime/machine"
	"github.com/osforge/schedcore/service/policy/rr"
)

// Config is a serialisable representation of the scheduler configuration. It
// can be populated from YAML or JSON; the zero value is useful since nested
// fields inherit their package defaults.
type Config struct {
	Platform PlatformConfig `json:"platform" yaml:"platform"`
	Machine  machine.Config `json:"machine" yaml:"machine"`
	Dump     DumpConfig     `json:"dump,omitempty" yaml:"dump,omitempty"`
}

// PlatformConfig describes the machine the scheduler boots on.
type PlatformConfig struct {
	// CPUs is the number of cores, each running its own scheduler instance.
	CPUs int `json:"cpus" yaml:"cpus"`
	// DefaultBudget is the time-slice quantum in timer ticks.
	DefaultBudget uint32 `json:"defaultBudget" yaml:"defaultBudget"`
}

// DumpConfig configures the optional state-snapshot store.
type DumpConfig struct {
	// URL is the base location snapshots are written under; empty disables
	// the dump service.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// DefaultConfig returns a Config populated with package defaults.
func DefaultConfig() *Config {
	return &Config{
		Platform: PlatformConfig{
			CPUs:          runtime.NumCPU(),
			DefaultBudget: rr.DefaultConfig().DefaultBudget,
		},
		Machine: machine.DefaultConfig(),
	}
}

// Validate returns an error describing invalid settings, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Platform.CPUs <= 0 {
		return fmt.Errorf("platform.cpus must be > 0")
	}
	if c.Platform.DefaultBudget == 0 {
		return fmt.Errorf("platform.defaultBudget must be > 0")
	}
	if c.Machine.TickInterval < 0 {
		return fmt.Errorf("machine.tickInterval must not be negative")
	}
	return nil
}

// LoadConfig reads a YAML configuration from the given URL (file path,
// mem://, s3:// and anything else the afs storage abstraction resolves).
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

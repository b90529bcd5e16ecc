package schedcore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	var nilConfig *Config
	assert.NoError(t, nilConfig.Validate())

	config := DefaultConfig()
	config.Platform.CPUs = 0
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Platform.DefaultBudget = 0
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Machine.TickInterval = -time.Millisecond
	assert.Error(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()

	location := filepath.Join(t.TempDir(), "sched.yaml")
	data := []byte(`
platform:
  cpus: 2
  defaultBudget: 7
machine:
  tickInterval: 20ms
dump:
  url: /tmp/sched-dumps
`)
	assert.NoError(t, os.WriteFile(location, data, 0o644))

	config, err := LoadConfig(ctx, location)
	assert.NoError(t, err)
	assert.Equal(t, 2, config.Platform.CPUs)
	assert.Equal(t, uint32(7), config.Platform.DefaultBudget)
	assert.Equal(t, 20*time.Millisecond, config.Machine.TickInterval)
	assert.Equal(t, "/tmp/sched-dumps", config.Dump.URL)
}

func TestLoadConfigInvalid(t *testing.T) {
	ctx := context.Background()

	_, err := LoadConfig(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	location := filepath.Join(t.TempDir(), "bad.yaml")
	assert.NoError(t, os.WriteFile(location, []byte("platform:\n  cpus: 0\n"), 0o644))
	_, err = LoadConfig(ctx, location)
	assert.Error(t, err)
}

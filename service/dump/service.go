// Package dump captures post-mortem snapshots of scheduler state. Kernels
// print their run queues when things go wrong; here the equivalent is a JSON
// snapshot persisted through the afs storage abstraction so tests, examples
// and embedding applications can capture and inspect it.
package dump

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/osforge/schedcore/internal/clock"
	"github.com/osforge/schedcore/model/thread"
	"github.com/osforge/schedcore/runtime/smp"
)

// PolicyState is the narrow view of a scheduling policy a dump needs.
type PolicyState interface {
	QueueSnapshot(cpu int) []*thread.Thread
	IdleThread(cpu int) *thread.Thread
}

// CPUState is one CPU's scheduler state at capture time.
type CPUState struct {
	CPU     int              `json:"cpu"`
	Current *thread.Thread   `json:"current,omitempty"`
	Idle    *thread.Thread   `json:"idle"`
	Queue   []*thread.Thread `json:"queue"`
}

// Snapshot is a point-in-time view of the whole platform.
type Snapshot struct {
	TakenAt time.Time  `json:"takenAt"`
	CPUs    []CPUState `json:"cpus"`
}

// Capture walks every CPU and records its current thread, idle thread and
// queue membership. Each CPU is captured atomically, the platform as a whole
// is not; that matches what a kernel debugger sees on a live system.
func Capture(plat *smp.Platform, state PolicyState) *Snapshot {
	snap := &Snapshot{TakenAt: clock.Now()}
	for cpu := 0; cpu < plat.NumCPU(); cpu++ {
		snap.CPUs = append(snap.CPUs, CPUState{
			CPU:     cpu,
			Current: plat.Current(cpu),
			Idle:    state.IdleThread(cpu),
			Queue:   state.QueueSnapshot(cpu),
		})
	}
	return snap
}

// Service persists snapshots under a base location.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.Mutex
}

// New creates a snapshot store rooted at basePath.
func New(basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fs := afs.New()

	ctx := context.Background()
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create dump directory: %w", err)
		}
	}
	basePath = url.Normalize(basePath, file.Scheme)

	return &Service{basePath: basePath, fs: fs}, nil
}

// Save persists a snapshot and returns the URL it was written to.
func (s *Service) Save(ctx context.Context, snap *Snapshot) (string, error) {
	if snap == nil {
		return "", fmt.Errorf("cannot save nil snapshot")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	filePath := s.snapshotPath(snap.TakenAt)
	if err := s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to save snapshot to %s: %w", filePath, err)
	}
	return filePath, nil
}

// Load reads a previously saved snapshot from the given URL.
func (s *Service) Load(ctx context.Context, location string) (*Snapshot, error) {
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (s *Service) snapshotPath(takenAt time.Time) string {
	return path.Join(s.basePath, fmt.Sprintf("sched-%d.json", takenAt.UnixNano()))
}

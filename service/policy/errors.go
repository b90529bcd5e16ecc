package policy

import "errors"

// Ordinary rejected operations. These report caller misuse, leave scheduler
// state untouched, and are safe to surface to user space as error codes. The
// fatal consistency path lives in internal/fault and is deliberately
// separate.
var (
	// ErrInvalidThread rejects a nil or uninitialised thread reference.
	ErrInvalidThread = errors.New("invalid thread reference")
	// ErrAlreadyReady rejects enqueueing a thread that is already queued.
	ErrAlreadyReady = errors.New("thread is already ready")
	// ErrNotReady rejects dequeueing a thread that is not queued.
	ErrNotReady = errors.New("thread is not ready")
	// ErrInvalidAffinity rejects an affinity outside the platform's CPUs.
	ErrInvalidAffinity = errors.New("affinity names no valid cpu")
	// ErrIdleThread rejects dequeueing an idle thread; idle threads are
	// never queue members.
	ErrIdleThread = errors.New("idle threads are not queue members")
	// ErrWrongCPU rejects dequeueing a thread homed on another CPU.
	ErrWrongCPU = errors.New("thread belongs to another cpu's queue")
	// ErrNoCPU rejects an operation whose context carries no executing CPU.
	ErrNoCPU = errors.New("no executing cpu in context")
)

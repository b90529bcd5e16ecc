// Package klog provides the structured kernel log used across the scheduling
// core. Components receive named child loggers; the default is a nop logger
// so embedding applications opt in to output explicitly.
package klog

import (
	"go.uber.org/zap"
)

// New returns a named component logger derived from base. A nil base yields
// a nop logger, which keeps hot paths silent by default.
func New(base *zap.Logger, component string) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(component)
}

// Development builds a human-readable logger for examples and debugging.
func Development() *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

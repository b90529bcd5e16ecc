// Package fault implements the fatal-invariant-violation path of the
// scheduling core. A violation means shared scheduler state is already
// corrupt, so the only safe action is to stop immediately with diagnostics;
// it is deliberately a distinct signalling channel from ordinary error
// returns, which callers may handle and recover from.
package fault

import (
	"fmt"

	"go.uber.org/zap"
)

// Violation carries the diagnostic message of a failed consistency check.
// It implements error so tests can match the panic value.
type Violation struct {
	Msg string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("scheduler invariant violated: %s", v.Msg)
}

// logger receives violation diagnostics before the abort. Nop by default.
var logger = zap.NewNop()

// SetLogger installs the logger used for violation diagnostics.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// Abort records diagnostics and halts by panicking with a *Violation. It
// never returns.
func Abort(format string, args ...interface{}) {
	v := &Violation{Msg: fmt.Sprintf(format, args...)}
	logger.Error("fatal consistency violation", zap.String("detail", v.Msg))
	panic(v)
}

// On aborts when cond is true. Mirrors the kernel style of asserting that a
// supposedly impossible condition did not occur.
func On(cond bool, format string, args ...interface{}) {
	if cond {
		Abort(format, args...)
	}
}

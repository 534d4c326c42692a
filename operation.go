package grainmesh

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Operation carries the collaborators of a single mesh operation call:
// cooperative cancellation, a progress sink and a logger.
// The zero value and a nil *Operation are both usable.
type Operation struct {
	// Context is polled between outer iterations. Nil means never cancelled.
	Context context.Context
	// Progress receives coarse grained progress in percent with a human
	// readable status message. May be nil.
	Progress func(percent int, msg string)
	// Logger receives structured log output. Nil disables logging.
	Logger *zap.Logger
}

// Err returns a non-nil error if the operation has been cancelled.
func (op *Operation) Err() error {
	if op == nil || op.Context == nil {
		return nil
	}
	return op.Context.Err()
}

// Log returns the operation's logger, never nil.
func (op *Operation) Log() *zap.Logger {
	if op == nil || op.Logger == nil {
		return zap.NewNop()
	}
	return op.Logger
}

// Report sends a progress update to the progress sink, if any.
func (op *Operation) Report(percent int, format string, args ...any) {
	if op == nil || op.Progress == nil {
		return
	}
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	op.Progress(percent, fmt.Sprintf(format, args...))
}

// Cancelled wraps the cancellation cause with the name of the interrupted stage.
func (op *Operation) Cancelled(stage string) error {
	err := op.Err()
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s interrupted: %w", stage, err)
}

package engine

import (
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/logreplay/internal/event"
)

var (
	// ErrNoBuild is returned when no build is configured for a parse's class and spec.
	ErrNoBuild = errors.New("no build configured")
	// ErrQueueFull is returned when the parse queue has no free slot.
	ErrQueueFull = errors.New("parse queue full")
	// ErrTimeout is returned when a synchronous parse exceeds its deadline.
	ErrTimeout = errors.New("parse timed out")
)

// ConfigError reports a build that cannot be set up: an unknown or missing
// module type, a duplicate id, a dependency problem, a failing constructor or
// an invalid handler table. No event is dispatched when it is returned.
type ConfigError struct {
	Module string // empty when the error concerns the whole build
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Module == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config: module %s: %v", e.Module, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ModuleFault is the first failure of one module during a parse. Later
// failures of the same module only increment Count.
type ModuleFault struct {
	Module     string
	EventIndex int // -1 when the module failed in Finalize
	EventType  event.Type
	Timestamp  int64
	Err        error
	Count      int
}

func (f *ModuleFault) Error() string {
	var msg string
	if f.EventIndex < 0 {
		msg = fmt.Sprintf("module %s: finalize: %v", f.Module, f.Err)
	} else {
		msg = fmt.Sprintf("module %s: event %d (%s at %d): %v", f.Module, f.EventIndex, f.EventType, f.Timestamp, f.Err)
	}
	if f.Count > 1 {
		msg += fmt.Sprintf(" (%d more)", f.Count-1)
	}
	return msg
}

func (f *ModuleFault) Unwrap() error { return f.Err }

// PanicError wraps a value recovered from a module.
type PanicError struct {
	Value interface{}
}

func (p *PanicError) Error() string { return fmt.Sprintf("panic: %v", p.Value) }

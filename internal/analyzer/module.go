// Package analyzer defines the contract between the replay engine and the
// analysis modules it drives.
package analyzer

import (
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

// Module is one unit of analysis, constructed once per parse.
type Module interface {
	// Active is fixed at construction. Inactive modules receive no events
	// and are left out of the report.
	Active() bool
	// Handlers returns the module's dispatch table.
	Handlers() *Handlers
	// Finalize is called once after the last dispatched event.
	Finalize() Result
}

// Base carries the state every module shares. Embed it and initialise with NewBase.
type Base struct {
	active   bool
	handlers Handlers
}

// NewBase returns a Base with the given activity.
func NewBase(active bool) Base {
	return Base{active: active}
}

func (b *Base) Active() bool { return b.active }

func (b *Base) Handlers() *Handlers { return &b.handlers }

// Binding is one (filter key, handler) registration.
type Binding struct {
	Key    filter.Key
	Handle func(event.Event) error
}

// Handlers is a module's ordered dispatch table.
type Handlers struct {
	bindings []Binding
	keys     map[filter.Key]struct{}
	errs     []error
}

// Bindings returns the registrations in the order they were made.
func (h *Handlers) Bindings() []Binding {
	return append([]Binding(nil), h.bindings...)
}

// Len returns the number of registrations.
func (h *Handlers) Len() int { return len(h.bindings) }

// Err reports every invalid registration, or nil.
func (h *Handlers) Err() error { return errors.Join(h.errs...) }

// On registers fn for events matching b. E must be the variant the key's event
// type decodes to; a mismatch, an invalid builder or a repeated key is recorded
// and surfaced through Handlers.Err before replay starts.
func On[E event.Event](h *Handlers, b *filter.Builder, fn func(E) error) {
	if err := b.Err(); err != nil {
		h.errs = append(h.errs, err)
		return
	}
	k := b.Key()
	zero, err := event.New(k.Type)
	if err != nil {
		h.errs = append(h.errs, err)
		return
	}
	if _, ok := zero.(E); !ok {
		var want E
		h.errs = append(h.errs, fmt.Errorf("handler for %s takes %T, events are %T", k, want, zero))
		return
	}
	if h.keys == nil {
		h.keys = make(map[filter.Key]struct{})
	}
	if _, dup := h.keys[k]; dup {
		h.errs = append(h.errs, fmt.Errorf("handler for %s registered twice", k))
		return
	}
	h.keys[k] = struct{}{}
	h.bindings = append(h.bindings, Binding{
		Key: k,
		Handle: func(ev event.Event) error {
			e, ok := ev.(E)
			if !ok {
				return fmt.Errorf("handler for %s got %T", k, ev)
			}
			return fn(e)
		},
	})
}

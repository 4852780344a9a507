// Package rule implements modules defined entirely in configuration.
package rule

import (
	"fmt"
	"math"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/condition"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

// CounterType is the registry key of Counter.
const CounterType = "counter"

// Counter counts matching events and optionally sums one numeric field.
//
//	- id: pet_cleave
//	  type: counter
//	  params:
//	    event: damage
//	    by: pet
//	    to: enemy
//	    where: ability == 118459
//	    sum: effective
//	    label: Pet cleave damage
type Counter struct {
	analyzer.Base
	label string
	sum   string
	where *condition.Condition

	count int
	total float64
}

var sumFields = map[string]bool{"none": true, "amount": true, "effective": true, "stack": true}

// NewCounter validates params. Every param error is a configuration error.
func NewCounter(env *analyzer.Env) (*Counter, error) {
	typ, err := env.String("event", "")
	if err != nil {
		return nil, err
	}
	if typ == "" {
		return nil, fmt.Errorf("%s: param %q is required", env.ID, "event")
	}
	b := filter.On(event.Type(typ))
	for _, side := range []string{"by", "to"} {
		raw, err := env.String(side, "")
		if err != nil {
			return nil, err
		}
		sel, err := filter.ParseSelector(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: param %q: %w", env.ID, side, err)
		}
		if side == "by" {
			b.By(sel)
		} else {
			b.To(sel)
		}
	}
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", env.ID, err)
	}

	known := knownFields(event.Type(typ))
	m := &Counter{Base: analyzer.NewBase(true)}
	if m.label, err = env.String("label", env.ID); err != nil {
		return nil, err
	}
	if m.sum, err = env.String("sum", "none"); err != nil {
		return nil, err
	}
	if !sumFields[m.sum] {
		return nil, fmt.Errorf("%s: param %q must be one of amount, effective, stack, none; got %q", env.ID, "sum", m.sum)
	}
	if m.sum != "none" && !known(m.sum) {
		return nil, fmt.Errorf("%s: %s events have no %q to sum", env.ID, typ, m.sum)
	}
	where, err := env.String("where", "")
	if err != nil {
		return nil, err
	}
	if where != "" {
		if m.where, err = condition.Compile(where, known); err != nil {
			return nil, fmt.Errorf("%s: %w", env.ID, err)
		}
	}

	analyzer.On(m.Handlers(), b, m.handle)
	return m, nil
}

func (m *Counter) handle(ev event.Event) error {
	if m.where != nil {
		ok, err := m.where.Eval(resolver(ev))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	m.count++
	if m.sum == "none" {
		return nil
	}
	v, _ := field(ev, m.sum)
	f, ok := number(v)
	if !ok {
		return fmt.Errorf("sum: field %q is %T", m.sum, v)
	}
	m.total += f
	return nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func (m *Counter) Count() int     { return m.count }
func (m *Counter) Total() float64 { return m.total }

func (m *Counter) Finalize() analyzer.Result {
	if m.count == 0 {
		return analyzer.None()
	}
	values := []analyzer.Value{analyzer.N("count", float64(m.count))}
	if m.sum != "none" {
		values = append(values,
			analyzer.N("total", m.total),
			analyzer.Value{Name: "average", Value: math.Round(m.total/float64(m.count)*100) / 100, Format: analyzer.FormatDecimal},
		)
	}
	return analyzer.Stat(m.label, values)
}

// Register adds the counter module to r.
func Register(r *analyzer.Registry) {
	r.Register(analyzer.FactoryFunc{
		Name: CounterType,
		Fn: func(env *analyzer.Env) (analyzer.Module, error) {
			m, err := NewCounter(env)
			if err != nil {
				return nil, err
			}
			return m, nil
		},
	})
}

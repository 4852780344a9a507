package core

import (
	"sort"
	"strconv"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

// AbilitiesType is the module type and conventional id of AbilityTracker.
const AbilitiesType = "abilities"

// AbilityTracker counts the player's casts per ability.
type AbilityTracker struct {
	analyzer.Base
	casts map[int][]*event.Cast
}

// NewAbilityTracker builds an always-active tracker.
func NewAbilityTracker() *AbilityTracker {
	t := &AbilityTracker{
		Base:  analyzer.NewBase(true),
		casts: make(map[int][]*event.Cast),
	}
	analyzer.On(t.Handlers(), filter.Cast().By(filter.Player), t.onCast)
	return t
}

func (t *AbilityTracker) onCast(e *event.Cast) error {
	t.casts[e.Ability.GUID] = append(t.casts[e.Ability.GUID], e)
	return nil
}

// Casts returns how many times the player cast id.
func (t *AbilityTracker) Casts(id int) int {
	return len(t.casts[id])
}

// Inefficient returns how many casts of id were annotated as inefficient.
// Annotations made by later modules are visible once they have run.
func (t *AbilityTracker) Inefficient(id int) int {
	n := 0
	for _, c := range t.casts[id] {
		if c.Meta != nil && c.Meta.Inefficient {
			n++
		}
	}
	return n
}

// Finalize lists the abilities with inefficient casts, keyed by ability id.
func (t *AbilityTracker) Finalize() analyzer.Result {
	ids := make([]int, 0, len(t.casts))
	for id := range t.casts {
		if t.Inefficient(id) > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return analyzer.None()
	}
	sort.Ints(ids)
	values := make([]analyzer.Value, 0, len(ids))
	for _, id := range ids {
		values = append(values, analyzer.N(strconv.Itoa(id), float64(t.Inefficient(id))))
	}
	return analyzer.Stat("Inefficient casts", values)
}

// Package combat holds the facts that stay fixed for one parse: the fight and
// the analyzed combatant. A Context is built once before replay and is only
// read afterwards.
package combat

import (
	"errors"
	"fmt"
	"sort"
)

// Phase is a boss phase boundary in log-relative milliseconds.
type Phase struct {
	Key   string `json:"key" yaml:"key"`
	Name  string `json:"name" yaml:"name"`
	Start int64  `json:"start" yaml:"start"`
	End   int64  `json:"end" yaml:"end"`
}

// Fight describes the encounter being analyzed.
type Fight struct {
	ID         int     `json:"id"`
	Boss       int     `json:"boss"`
	Difficulty int     `json:"difficulty"`
	StartTime  int64   `json:"start_time"`
	EndTime    int64   `json:"end_time"`
	Phases     []Phase `json:"phases,omitempty"`
}

// Combatant describes the analyzed player.
type Combatant struct {
	ID      int         `json:"id"`
	Name    string      `json:"name"`
	Class   string      `json:"class"`
	Spec    string      `json:"spec"`
	Talents []int       `json:"talents,omitempty"`
	Traits  map[int]int `json:"traits,omitempty"` // trait id → rank
	Items   []int       `json:"items,omitempty"`  // equipped effects
	Pets    []int       `json:"pets,omitempty"`
}

// Context is the read-only view every module receives.
type Context struct {
	fight     Fight
	combatant Combatant
	talents   map[int]struct{}
	items     map[int]struct{}
	pets      map[int]struct{}
}

// NewContext validates the descriptors and copies them.
func NewContext(f Fight, c Combatant) (*Context, error) {
	if f.EndTime < f.StartTime {
		return nil, fmt.Errorf("fight %d: end %d before start %d", f.ID, f.EndTime, f.StartTime)
	}
	phases := append([]Phase(nil), f.Phases...)
	sort.SliceStable(phases, func(i, j int) bool { return phases[i].Start < phases[j].Start })
	for i, p := range phases {
		if p.End < p.Start {
			return nil, fmt.Errorf("phase %s: end %d before start %d", p.Key, p.End, p.Start)
		}
		if p.Start < f.StartTime || p.End > f.EndTime {
			return nil, fmt.Errorf("phase %s: [%d,%d] outside fight [%d,%d]", p.Key, p.Start, p.End, f.StartTime, f.EndTime)
		}
		if i > 0 && p.Start < phases[i-1].End {
			return nil, fmt.Errorf("phase %s overlaps phase %s", p.Key, phases[i-1].Key)
		}
	}
	if c.ID == 0 {
		return nil, errors.New("combatant id is required")
	}
	f.Phases = phases

	ctx := &Context{
		fight:   f,
		talents: toSet(c.Talents),
		items:   toSet(c.Items),
		pets:    toSet(c.Pets),
	}
	ctx.combatant = Combatant{
		ID:      c.ID,
		Name:    c.Name,
		Class:   c.Class,
		Spec:    c.Spec,
		Talents: append([]int(nil), c.Talents...),
		Items:   append([]int(nil), c.Items...),
		Pets:    append([]int(nil), c.Pets...),
		Traits:  make(map[int]int, len(c.Traits)),
	}
	for id, rank := range c.Traits {
		ctx.combatant.Traits[id] = rank
	}
	return ctx, nil
}

func toSet(ids []int) map[int]struct{} {
	m := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// Fight returns a copy of the fight descriptor.
func (c *Context) Fight() Fight {
	f := c.fight
	f.Phases = c.Phases()
	return f
}

// Combatant returns the combatant descriptor. Callers must not modify its slices or map.
func (c *Context) Combatant() Combatant { return c.combatant }

// Start is the fight start timestamp.
func (c *Context) Start() int64 { return c.fight.StartTime }

// End is the fight end timestamp.
func (c *Context) End() int64 { return c.fight.EndTime }

// Duration is the total fight duration in milliseconds.
func (c *Context) Duration() int64 { return c.fight.EndTime - c.fight.StartTime }

func (c *Context) HasTalent(id int) bool {
	_, ok := c.talents[id]
	return ok
}

func (c *Context) HasTrait(id int) bool {
	return c.combatant.Traits[id] > 0
}

// TraitRank returns how many times the trait is selected, 0 when absent.
func (c *Context) TraitRank(id int) int {
	return c.combatant.Traits[id]
}

func (c *Context) HasItem(id int) bool {
	_, ok := c.items[id]
	return ok
}

// IsPlayer implements filter.Relations.
func (c *Context) IsPlayer(id int) bool { return id == c.combatant.ID }

// IsPet implements filter.Relations.
func (c *Context) IsPet(id int) bool {
	_, ok := c.pets[id]
	return ok
}

// Phases returns the phase boundaries sorted by start.
func (c *Context) Phases() []Phase {
	return append([]Phase(nil), c.fight.Phases...)
}

// PhaseAt returns the phase containing ts. End is exclusive.
func (c *Context) PhaseAt(ts int64) (Phase, bool) {
	i := sort.Search(len(c.fight.Phases), func(i int) bool { return c.fight.Phases[i].End > ts })
	if i < len(c.fight.Phases) && c.fight.Phases[i].Start <= ts {
		return c.fight.Phases[i], true
	}
	return Phase{}, false
}

// Package core holds tracking modules other modules read from.
package core

import (
	"sort"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/combat"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

// BuffsType is the module type and conventional id of BuffTracker.
const BuffsType = "buffs"

// Interval is a closed-open span [Start, End) a buff was up.
type Interval struct {
	Start int64
	End   int64
}

type buffState struct {
	closed []Interval
	open   bool
	since  int64
	stacks int
}

// BuffTracker records uptime and stacks of buffs on the analyzed player.
//
// Logs only cover the fight window, so a buff applied before the pull shows up
// as a refresh or remove with no apply. Both are accepted: the buff is treated
// as up since the fight started. Once a buff has been removed, a later refresh
// or stack opens a new interval at its own timestamp and a repeated remove is
// ignored.
type BuffTracker struct {
	analyzer.Base
	ctx   *combat.Context
	buffs map[int]*buffState
}

// NewBuffTracker builds an always-active tracker.
func NewBuffTracker(ctx *combat.Context) *BuffTracker {
	t := &BuffTracker{
		Base:  analyzer.NewBase(true),
		ctx:   ctx,
		buffs: make(map[int]*buffState),
	}
	h := t.Handlers()
	analyzer.On(h, filter.ApplyBuff().To(filter.Player), t.onApply)
	analyzer.On(h, filter.RefreshBuff().To(filter.Player), t.onRefresh)
	analyzer.On(h, filter.RemoveBuff().To(filter.Player), t.onRemove)
	analyzer.On(h, filter.ApplyBuffStack().To(filter.Player), t.onStack)
	analyzer.On(h, filter.RemoveBuffStack().To(filter.Player), t.onStack)
	return t
}

func (t *BuffTracker) state(id int) *buffState {
	s, ok := t.buffs[id]
	if !ok {
		s = &buffState{}
		t.buffs[id] = s
	}
	return s
}

// openAt opens an interval at ts unless one is already open.
func (s *buffState) openAt(ts int64) {
	if s.open {
		return
	}
	s.open = true
	s.since = ts
}

func (t *BuffTracker) onApply(e *event.Buff) error {
	s := t.state(e.Ability.GUID)
	s.openAt(e.Timestamp)
	if s.stacks == 0 {
		s.stacks = 1
	}
	return nil
}

func (t *BuffTracker) onRefresh(e *event.Buff) error {
	s := t.state(e.Ability.GUID)
	if !s.open {
		s.openAt(t.openTime(s, e.Timestamp))
		s.stacks = 1
	}
	return nil
}

func (t *BuffTracker) onRemove(e *event.Buff) error {
	s := t.state(e.Ability.GUID)
	if !s.open && len(s.closed) > 0 {
		return nil // already removed
	}
	s.openAt(t.ctx.Start())
	s.closed = append(s.closed, Interval{Start: s.since, End: e.Timestamp})
	s.open = false
	s.stacks = 0
	return nil
}

func (t *BuffTracker) onStack(e *event.BuffStack) error {
	s := t.state(e.Ability.GUID)
	s.openAt(t.openTime(s, e.Timestamp))
	s.stacks = e.Stack
	return nil
}

// openTime is where an interval opened by something other than an apply
// starts: the fight start for a buff never seen before, ts otherwise.
func (t *BuffTracker) openTime(s *buffState, ts int64) int64 {
	if len(s.closed) == 0 {
		return t.ctx.Start()
	}
	return ts
}

// IsUp reports whether id is currently up.
func (t *BuffTracker) IsUp(id int) bool {
	s, ok := t.buffs[id]
	return ok && s.open
}

// Stacks returns the current stack count of id.
func (t *BuffTracker) Stacks(id int) int {
	if s, ok := t.buffs[id]; ok {
		return s.stacks
	}
	return 0
}

// Uptime returns how long id was up between fight start and until.
func (t *BuffTracker) Uptime(id int, until int64) int64 {
	s, ok := t.buffs[id]
	if !ok {
		return 0
	}
	var total int64
	for _, iv := range s.closed {
		total += overlap(iv, t.ctx.Start(), until)
	}
	if s.open {
		total += overlap(Interval{Start: s.since, End: until}, t.ctx.Start(), until)
	}
	return total
}

// FullUptime returns the uptime of id over the whole fight. A buff still up
// at the end counts until the fight's end.
func (t *BuffTracker) FullUptime(id int) int64 {
	return t.Uptime(id, t.ctx.End())
}

// UptimeRatio is FullUptime divided by the fight duration.
func (t *BuffTracker) UptimeRatio(id int) float64 {
	d := t.ctx.Duration()
	if d <= 0 {
		return 0
	}
	return float64(t.FullUptime(id)) / float64(d)
}

// Intervals returns the closed intervals of id in the order they ended.
func (t *BuffTracker) Intervals(id int) []Interval {
	s, ok := t.buffs[id]
	if !ok {
		return nil
	}
	return append([]Interval(nil), s.closed...)
}

// Seen returns every buff id the tracker has observed, sorted.
func (t *BuffTracker) Seen() []int {
	out := make([]int, 0, len(t.buffs))
	for id := range t.buffs {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (t *BuffTracker) Finalize() analyzer.Result { return analyzer.None() }

func overlap(iv Interval, lo, hi int64) int64 {
	start, end := iv.Start, iv.End
	if start < lo {
		start = lo
	}
	if end > hi {
		end = hi
	}
	if end <= start {
		return 0
	}
	return end - start
}

package hunter

import (
	"fmt"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/core"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

// BeastCleaveType is the registry key of BeastCleave.
const BeastCleaveType = "beastCleave"

// beastCleaveBuffer collapses the pet buff events of several pets applied by
// one Multi-Shot.
const beastCleaveBuffer = 100

// multiShotNoCleave is the annotation put on Multi-Shot casts that did not cleave.
const multiShotNoCleave = "Multi-Shot did not cleave onto additional targets"

// BeastCleave tracks pet cleave damage, buff uptime and Multi-Shots whose
// cleave window ended without a single cleave hit. Those casts are marked
// inefficient.
type BeastCleave struct {
	analyzer.Base
	buffs *core.BuffTracker

	pending *event.Cast // latest Multi-Shot, not yet tied to a window
	window  *event.Cast // Multi-Shot that opened the current window

	damage           int64
	hits             int
	casts            int
	castsWithoutHits int
	last             int64
	seen             bool
}

// NewBeastCleave reads uptime from the buff tracker.
func NewBeastCleave(buffs *core.BuffTracker) *BeastCleave {
	m := &BeastCleave{Base: analyzer.NewBase(true), buffs: buffs}
	h := m.Handlers()
	analyzer.On(h, filter.ApplyBuff().To(filter.Pet), m.onApply)
	analyzer.On(h, filter.RefreshBuff().To(filter.Pet), m.onRefresh)
	analyzer.On(h, filter.RemoveBuff().To(filter.Pet), m.onRemove)
	analyzer.On(h, filter.Damage().By(filter.Pet), m.onDamage)
	analyzer.On(h, filter.Cast().By(filter.Player), m.onCast)
	return m
}

// debounced reports whether ts falls inside the buffer of the last pet buff event.
func (m *BeastCleave) debounced(ts int64) bool {
	return m.seen && m.last+beastCleaveBuffer > ts
}

func (m *BeastCleave) mark(ts int64) {
	m.last = ts
	m.seen = true
}

// open starts a cleave window owned by the latest Multi-Shot.
func (m *BeastCleave) open(ts int64) {
	m.hits = 0
	m.window, m.pending = m.pending, nil
	m.mark(ts)
}

// closeWindow counts a window that ended without hits.
func (m *BeastCleave) closeWindow() {
	if m.hits > 0 {
		return
	}
	m.castsWithoutHits++
	if m.window != nil {
		m.window.MarkInefficient(multiShotNoCleave)
	}
}

func (m *BeastCleave) onCast(e *event.Cast) error {
	if e.Ability.GUID == MultiShotBM {
		m.pending = e
	}
	return nil
}

func (m *BeastCleave) onApply(e *event.Buff) error {
	if e.Ability.GUID != BeastCleavePetBuff || m.debounced(e.Timestamp) {
		return nil
	}
	m.casts++
	m.open(e.Timestamp)
	return nil
}

func (m *BeastCleave) onRefresh(e *event.Buff) error {
	if e.Ability.GUID != BeastCleavePetBuff || m.debounced(e.Timestamp) {
		return nil
	}
	m.casts++
	m.closeWindow()
	m.open(e.Timestamp)
	return nil
}

func (m *BeastCleave) onRemove(e *event.Buff) error {
	if e.Ability.GUID != BeastCleavePetBuff || m.debounced(e.Timestamp) {
		return nil
	}
	m.closeWindow()
	m.window = nil
	m.mark(e.Timestamp)
	return nil
}

func (m *BeastCleave) onDamage(e *event.Damage) error {
	if e.Ability.GUID != BeastCleaveDamage {
		return nil
	}
	m.damage += e.Effective()
	m.hits++
	return nil
}

func (m *BeastCleave) Damage() int64         { return m.damage }
func (m *BeastCleave) Casts() int            { return m.casts }
func (m *BeastCleave) CastsWithoutHits() int { return m.castsWithoutHits }

// Uptime is the player buff uptime in milliseconds over the full fight.
func (m *BeastCleave) Uptime() int64 { return m.buffs.FullUptime(BeastCleaveBuff) }

// WithoutHitsThreshold flags any Multi-Shot that did not cleave.
func (m *BeastCleave) WithoutHitsThreshold() analyzer.Threshold {
	return analyzer.Threshold{
		Actual:     float64(m.castsWithoutHits),
		Comparison: analyzer.GreaterThan,
		Minor:      0,
		Average:    0,
		Major:      3,
		Style:      analyzer.FormatNumber,
	}
}

func (m *BeastCleave) suggestions() []analyzer.Suggestion {
	if m.casts == 0 {
		return nil
	}
	s, ok := m.WithoutHitsThreshold().Suggest(fmt.Sprintf(
		"Multi-Shot (%d) was cast %d time(s) without your pets cleaving onto additional targets. On single-target situations, avoid using Multi-Shot.",
		MultiShotBM, m.castsWithoutHits))
	if !ok {
		return nil
	}
	return []analyzer.Suggestion{s}
}

func (m *BeastCleave) Finalize() analyzer.Result {
	sugg := m.suggestions()
	if m.damage <= 0 {
		return analyzer.Suggest(sugg...)
	}
	return analyzer.Stat("Beast Cleave", []analyzer.Value{
		analyzer.N("damage", float64(m.damage)),
		analyzer.Pct("uptime", m.buffs.UptimeRatio(BeastCleaveBuff)),
		analyzer.N("casts", float64(m.casts)),
		analyzer.N("casts_without_hits", float64(m.castsWithoutHits)),
	}, sugg...)
}

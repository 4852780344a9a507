package hunter

import (
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/core"
	"github.com/gyaneshwarpardhi/logreplay/internal/combat"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

// ExplosiveShotType is the registry key of ExplosiveShot.
const ExplosiveShotType = "explosiveShot"

// ExplosiveShot sums talent damage and average targets hit per cast.
type ExplosiveShot struct {
	analyzer.Base
	abilities *core.AbilityTracker
	damage    int64
	hits      int
}

// NewExplosiveShot is active when the combatant has the talent. Casts come
// from the ability tracker.
func NewExplosiveShot(ctx *combat.Context, abilities *core.AbilityTracker) *ExplosiveShot {
	m := &ExplosiveShot{
		Base:      analyzer.NewBase(ctx.HasTalent(ExplosiveShotTalent)),
		abilities: abilities,
	}
	analyzer.On(m.Handlers(), filter.Damage().By(filter.Player), m.onDamage)
	return m
}

func (m *ExplosiveShot) onDamage(e *event.Damage) error {
	if e.Ability.GUID != ExplosiveShotDamage {
		return nil
	}
	m.hits++
	m.damage += e.Effective()
	return nil
}

func (m *ExplosiveShot) Damage() int64 { return m.damage }
func (m *ExplosiveShot) Hits() int     { return m.hits }
func (m *ExplosiveShot) Casts() int    { return m.abilities.Casts(ExplosiveShotTalent) }

// AverageTargetsHit is hits per cast.
func (m *ExplosiveShot) AverageTargetsHit() float64 {
	c := m.Casts()
	if c == 0 {
		return 0
	}
	return float64(m.hits) / float64(c)
}

func (m *ExplosiveShot) Finalize() analyzer.Result {
	return analyzer.Stat("Explosive Shot", []analyzer.Value{
		analyzer.N("damage", float64(m.damage)),
		analyzer.N("casts", float64(m.Casts())),
		analyzer.N("hits", float64(m.hits)),
		{Name: "average_targets_hit", Value: m.AverageTargetsHit(), Format: analyzer.FormatDecimal},
	})
}

package hunter

import (
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/combat"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

// LatentPoisonType is the registry key of LatentPoison.
const LatentPoisonType = "latentPoison"

const latentPoisonMaxStacks = 10

// LatentPoison measures how many Latent Poison stacks Raptor Strike and
// Mongoose Bite consumed out of those the player could have consumed.
// Serpent Sting ticks on a capped target count as possible stacks that were
// never applied.
type LatentPoison struct {
	analyzer.Base
	stacks      int
	maxPossible int
	utilised    int
	casts       int
}

// NewLatentPoison is active when the combatant has the trait.
func NewLatentPoison(ctx *combat.Context) *LatentPoison {
	m := &LatentPoison{Base: analyzer.NewBase(ctx.HasTrait(LatentPoisonTrait))}
	h := m.Handlers()
	analyzer.On(h, filter.ApplyDebuff().By(filter.Player), m.onApply)
	analyzer.On(h, filter.ApplyDebuffStack().By(filter.Player), m.onStack)
	analyzer.On(h, filter.RemoveDebuff().By(filter.Player), m.onRemove)
	analyzer.On(h, filter.Damage().By(filter.Player), m.onDamage)
	analyzer.On(h, filter.Cast().By(filter.Player), m.onCast)
	return m
}

func (m *LatentPoison) onApply(e *event.Buff) error {
	if e.Ability.GUID != LatentPoisonDebuff {
		return nil
	}
	m.maxPossible++
	m.stacks = 1
	return nil
}

func (m *LatentPoison) onStack(e *event.BuffStack) error {
	if e.Ability.GUID != LatentPoisonDebuff {
		return nil
	}
	m.maxPossible++
	m.stacks = e.Stack
	return nil
}

func (m *LatentPoison) onRemove(e *event.Buff) error {
	if e.Ability.GUID != LatentPoisonDebuff {
		return nil
	}
	m.stacks = 0
	return nil
}

func (m *LatentPoison) onDamage(e *event.Damage) error {
	if e.Ability.GUID != SerpentStingSV {
		return nil
	}
	if m.stacks >= latentPoisonMaxStacks {
		m.maxPossible++
	}
	return nil
}

func (m *LatentPoison) onCast(e *event.Cast) error {
	if !raptorMongooseVariants[e.Ability.GUID] {
		return nil
	}
	m.utilised += m.stacks
	m.casts++
	m.stacks = 0
	return nil
}

func (m *LatentPoison) Utilised() int    { return m.utilised }
func (m *LatentPoison) MaxPossible() int { return m.maxPossible }
func (m *LatentPoison) Wasted() int      { return m.maxPossible - m.utilised }

// AverageStacks is the stacks consumed per Raptor Strike or Mongoose Bite.
func (m *LatentPoison) AverageStacks() float64 {
	if m.casts == 0 {
		return 0
	}
	return float64(m.utilised) / float64(m.casts)
}

func (m *LatentPoison) Finalize() analyzer.Result {
	if m.maxPossible == 0 && m.casts == 0 {
		return analyzer.None()
	}
	return analyzer.Stat("Latent Poison", []analyzer.Value{
		analyzer.N("utilised", float64(m.utilised)),
		analyzer.N("max_possible", float64(m.maxPossible)),
		analyzer.N("wasted", float64(m.Wasted())),
		analyzer.N("casts", float64(m.casts)),
		{Name: "average_stacks", Value: m.AverageStacks(), Format: analyzer.FormatDecimal},
	})
}

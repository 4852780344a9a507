// Package analyzertest replays events through modules without the engine.
package analyzertest

import (
	"testing"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/combat"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
)

// Context builds a fight [start, end] for player 1 with pet 2.
func Context(t testing.TB, start, end int64, talents []int, traits map[int]int) *combat.Context {
	t.Helper()
	ctx, err := combat.NewContext(
		combat.Fight{ID: 1, StartTime: start, EndTime: end},
		combat.Combatant{ID: Player, Name: "Hunter", Class: "Hunter", Talents: talents, Traits: traits, Pets: []int{Pet}},
	)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return ctx
}

// Actor ids used by Context.
const (
	Player = 1
	Pet    = 2
	Boss   = 100
	Add    = 101
)

// Replay dispatches events to the active modules in the given order. It fails
// the test on an invalid handler table or a handler error.
func Replay(t testing.TB, ctx *combat.Context, events []event.Event, mods ...analyzer.Module) {
	t.Helper()
	for _, m := range mods {
		if err := m.Handlers().Err(); err != nil {
			t.Fatalf("handlers: %v", err)
		}
	}
	for i, ev := range events {
		for _, m := range mods {
			if !m.Active() {
				continue
			}
			for _, b := range m.Handlers().Bindings() {
				if !b.Key.Match(ev, ctx) {
					continue
				}
				if err := b.Handle(ev); err != nil {
					t.Fatalf("event %d (%s): %v", i, ev.Head().Type, err)
				}
			}
		}
	}
}

// Env returns an Env for a module under test.
func Env(ctx *combat.Context, id string, params map[string]interface{}, deps map[string]analyzer.Module) *analyzer.Env {
	return analyzer.NewEnv(id, id, ctx, params, deps)
}

func header(t event.Type, ts int64, src, dst int) event.Header {
	return event.Header{
		Type:             t,
		Timestamp:        ts,
		SourceID:         src,
		SourceIsFriendly: src == Player || src == Pet,
		TargetID:         dst,
		TargetIsFriendly: dst == Player || dst == Pet,
	}
}

// Damage builds a damage event.
func Damage(ts int64, src, dst, ability int, amount, absorbed int64) *event.Damage {
	return &event.Damage{
		Header:   header(event.TypeDamage, ts, src, dst),
		Ability:  event.Ability{GUID: ability},
		Amount:   amount,
		Absorbed: absorbed,
	}
}

// Cast builds a cast event.
func Cast(ts int64, src, dst, ability int) *event.Cast {
	return &event.Cast{Header: header(event.TypeCast, ts, src, dst), Ability: event.Ability{GUID: ability}}
}

// Buff builds an apply/refresh/remove buff or debuff event.
func Buff(t event.Type, ts int64, src, dst, ability int) *event.Buff {
	return &event.Buff{Header: header(t, ts, src, dst), Ability: event.Ability{GUID: ability}}
}

// Stack builds a stack change event.
func Stack(t event.Type, ts int64, src, dst, ability, stack int) *event.BuffStack {
	return &event.BuffStack{Header: header(t, ts, src, dst), Ability: event.Ability{GUID: ability}, Stack: stack}
}

// FightEnd builds the synthetic end marker.
func FightEnd(ts int64) *event.FightEnd {
	return &event.FightEnd{Header: header(event.TypeFightEnd, ts, 0, 0)}
}

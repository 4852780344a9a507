// Package filter builds the keys analysis modules register handlers against:
// an event type plus relation qualifiers on the source and target actors.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gyaneshwarpardhi/logreplay/internal/event"
)

// Selector is a conjunction of relation predicates on one actor.
// The zero value matches any actor.
type Selector uint8

const (
	// Player is the analyzed combatant.
	Player Selector = 1 << iota
	// Pet is any pet owned by the analyzed combatant.
	Pet
	// Friendly is any actor flagged friendly by the log.
	Friendly
	// Enemy is any actor not flagged friendly (NPCs, hostile players).
	Enemy
)

// Any matches every actor.
const Any Selector = 0

var selectorNames = []struct {
	sel  Selector
	name string
}{
	{Player, "player"},
	{Pet, "pet"},
	{Friendly, "friendly"},
	{Enemy, "enemy"},
}

// ParseSelector turns a comma separated list such as "player" or "pet,friendly" into a Selector.
func ParseSelector(s string) (Selector, error) {
	var out Selector
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || part == "any" {
			continue
		}
		found := false
		for _, sn := range selectorNames {
			if sn.name == part {
				out |= sn.sel
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown relation %q", part)
		}
	}
	return out, out.validate()
}

func (s Selector) validate() error {
	switch {
	case s&Player != 0 && s&Pet != 0:
		return errors.New("player and pet are mutually exclusive")
	case s&Friendly != 0 && s&Enemy != 0:
		return errors.New("friendly and enemy are mutually exclusive")
	case s&(Player|Pet) != 0 && s&Enemy != 0:
		return errors.New("the analyzed player and its pets are never enemies")
	}
	return nil
}

func (s Selector) String() string {
	if s == Any {
		return "any"
	}
	var parts []string
	for _, sn := range selectorNames {
		if s&sn.sel != 0 {
			parts = append(parts, sn.name)
		}
	}
	return strings.Join(parts, "+")
}

// Relations supplies the relation facts filters are evaluated against.
type Relations interface {
	IsPlayer(id int) bool
	IsPet(id int) bool
}

func (s Selector) match(id int, friendly bool, rel Relations) bool {
	if s&Player != 0 && !rel.IsPlayer(id) {
		return false
	}
	if s&Pet != 0 && !rel.IsPet(id) {
		return false
	}
	if s&Friendly != 0 && !friendly {
		return false
	}
	if s&Enemy != 0 && friendly {
		return false
	}
	return true
}

// Key is the comparable (event type, relation) pair a handler is registered under.
type Key struct {
	Type event.Type
	By   Selector
	To   Selector
}

// Match reports whether ev satisfies the key. It has no side effects.
func (k Key) Match(ev event.Event, rel Relations) bool {
	h := ev.Head()
	if h.Type != k.Type {
		return false
	}
	return k.By.match(h.SourceID, h.SourceIsFriendly, rel) &&
		k.To.match(h.TargetID, h.TargetIsFriendly, rel)
}

func (k Key) String() string {
	var parts []string
	if k.By != Any {
		parts = append(parts, "by="+k.By.String())
	}
	if k.To != Any {
		parts = append(parts, "to="+k.To.String())
	}
	if len(parts) == 0 {
		return string(k.Type)
	}
	return string(k.Type) + "[" + strings.Join(parts, ",") + "]"
}

// Builder accumulates qualifiers fluently. Qualifiers on the same side are ANDed.
type Builder struct {
	key Key
	err error
}

// On starts a filter for the given event type.
func On(t event.Type) *Builder {
	b := &Builder{key: Key{Type: t}}
	if !t.Known() {
		b.err = fmt.Errorf("%w %q", event.ErrUnknownType, t)
	}
	return b
}

// By adds a qualifier on the source actor.
func (b *Builder) By(s Selector) *Builder {
	b.key.By |= s
	if err := b.key.By.validate(); err != nil && b.err == nil {
		b.err = fmt.Errorf("filter %s: source: %w", b.key.Type, err)
	}
	return b
}

// To adds a qualifier on the target actor.
func (b *Builder) To(s Selector) *Builder {
	b.key.To |= s
	if err := b.key.To.validate(); err != nil && b.err == nil {
		b.err = fmt.Errorf("filter %s: target: %w", b.key.Type, err)
	}
	return b
}

// Key returns the built key.
func (b *Builder) Key() Key { return b.key }

// Err reports an unknown type or contradictory qualifiers.
func (b *Builder) Err() error { return b.err }

// Shorthands for every event type.

func Damage() *Builder            { return On(event.TypeDamage) }
func Heal() *Builder              { return On(event.TypeHeal) }
func HealAbsorbed() *Builder      { return On(event.TypeHealAbsorbed) }
func Absorbed() *Builder          { return On(event.TypeAbsorbed) }
func BeginCast() *Builder         { return On(event.TypeBeginCast) }
func Cast() *Builder              { return On(event.TypeCast) }
func ApplyBuff() *Builder         { return On(event.TypeApplyBuff) }
func ApplyDebuff() *Builder       { return On(event.TypeApplyDebuff) }
func ApplyBuffStack() *Builder    { return On(event.TypeApplyBuffStack) }
func ApplyDebuffStack() *Builder  { return On(event.TypeApplyDebuffStack) }
func RemoveBuffStack() *Builder   { return On(event.TypeRemoveBuffStack) }
func RemoveDebuffStack() *Builder { return On(event.TypeRemoveDebuffStack) }
func RefreshBuff() *Builder       { return On(event.TypeRefreshBuff) }
func RefreshDebuff() *Builder     { return On(event.TypeRefreshDebuff) }
func RemoveBuff() *Builder        { return On(event.TypeRemoveBuff) }
func RemoveDebuff() *Builder      { return On(event.TypeRemoveDebuff) }
func Summon() *Builder            { return On(event.TypeSummon) }
func Energize() *Builder          { return On(event.TypeEnergize) }
func Interrupt() *Builder         { return On(event.TypeInterrupt) }
func Death() *Builder             { return On(event.TypeDeath) }
func Resurrect() *Builder         { return On(event.TypeResurrect) }
func FightEnd() *Builder          { return On(event.TypeFightEnd) }
func PhaseStart() *Builder        { return On(event.TypePhaseStart) }
func PhaseEnd() *Builder          { return On(event.TypePhaseEnd) }
func PreFilterCooldown() *Builder { return On(event.TypePreFilterCooldown) }
func PreFilterBuff() *Builder     { return On(event.TypePreFilterBuff) }

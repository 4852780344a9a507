package rule

import (
	"github.com/gyaneshwarpardhi/logreplay/internal/condition"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
)

// field resolves name on ev. ok is false when the variant has no such field.
func field(ev event.Event, name string) (v interface{}, ok bool) {
	h := ev.Head()
	switch name {
	case "type":
		return string(h.Type), true
	case "timestamp":
		return h.Timestamp, true
	case "source":
		return h.SourceID, true
	case "target":
		return h.TargetID, true
	case "source_friendly":
		return h.SourceIsFriendly, true
	case "target_friendly":
		return h.TargetIsFriendly, true
	case "ability", "ability_name":
		a, ok := event.AbilityOf(ev)
		if !ok {
			return nil, false
		}
		if name == "ability" {
			return a.GUID, true
		}
		return a.Name, true
	}

	switch e := ev.(type) {
	case *event.Damage:
		switch name {
		case "amount":
			return e.Amount, true
		case "absorbed":
			return e.Absorbed, true
		case "effective":
			return e.Effective(), true
		case "overkill":
			return e.Overkill, true
		case "hit_type":
			return e.HitType, true
		}
	case *event.Heal:
		switch name {
		case "amount":
			return e.Amount, true
		case "absorbed":
			return e.Absorbed, true
		case "effective":
			return e.Effective(), true
		case "overheal":
			return e.Overheal, true
		}
	case *event.HealAbsorbed:
		return amountOrExtra(name, e.Amount, e.ExtraAbility)
	case *event.Absorbed:
		return amountOrExtra(name, e.Amount, e.ExtraAbility)
	case *event.BuffStack:
		if name == "stack" {
			return e.Stack, true
		}
	case *event.Energize:
		switch name {
		case "resource_change", "amount":
			return e.ResourceChange, true
		case "resource_type":
			return e.ResourceChangeType, true
		case "waste":
			return e.Waste, true
		}
	case *event.Interrupt:
		if name == "extra_ability" {
			return e.ExtraAbility.GUID, true
		}
	case *event.Cast:
		if name == "inefficient" {
			return e.Meta != nil && e.Meta.Inefficient, true
		}
	case *event.Phase:
		if name == "phase" {
			return e.Phase.Key, true
		}
	}
	return nil, false
}

func amountOrExtra(name string, amount int64, extra event.Ability) (interface{}, bool) {
	switch name {
	case "amount", "effective":
		return amount, true
	case "extra_ability":
		return extra.GUID, true
	}
	return nil, false
}

// knownFields reports the fields available on events of type t.
func knownFields(t event.Type) func(string) bool {
	zero, err := event.New(t)
	if err != nil {
		return func(string) bool { return false }
	}
	return func(name string) bool {
		_, ok := field(zero, name)
		return ok
	}
}

func resolver(ev event.Event) condition.Resolver {
	return condition.ResolverFunc(func(name string) (interface{}, bool) {
		return field(ev, name)
	})
}

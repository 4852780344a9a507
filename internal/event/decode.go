package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned for a discriminant outside the closed set.
	ErrUnknownType = errors.New("unknown event type")
	// ErrMissingField is returned when a field required by the variant is absent.
	ErrMissingField = errors.New("missing required field")
	// ErrNegative is returned when amount, absorbed or stack is negative.
	ErrNegative = errors.New("negative numeric field")
	// ErrUnsorted is returned when timestamps decrease within a sequence.
	ErrUnsorted = errors.New("events not sorted by timestamp")
)

// New returns the zero value of the variant for t, with its Header.Type set.
func New(t Type) (Event, error) {
	var ev Event
	switch t {
	case TypeDamage:
		ev = &Damage{}
	case TypeHeal:
		ev = &Heal{}
	case TypeHealAbsorbed:
		ev = &HealAbsorbed{}
	case TypeAbsorbed:
		ev = &Absorbed{}
	case TypeBeginCast:
		ev = &BeginCast{}
	case TypeCast:
		ev = &Cast{}
	case TypeApplyBuff, TypeApplyDebuff, TypeRefreshBuff, TypeRefreshDebuff, TypeRemoveBuff, TypeRemoveDebuff:
		ev = &Buff{}
	case TypeApplyBuffStack, TypeApplyDebuffStack, TypeRemoveBuffStack, TypeRemoveDebuffStack:
		ev = &BuffStack{}
	case TypeSummon:
		ev = &Summon{}
	case TypeEnergize:
		ev = &Energize{}
	case TypeInterrupt:
		ev = &Interrupt{}
	case TypeDeath:
		ev = &Death{}
	case TypeResurrect:
		ev = &Resurrect{}
	case TypeFightEnd:
		ev = &FightEnd{}
	case TypePhaseStart, TypePhaseEnd:
		ev = &Phase{}
	case TypePreFilterCooldown, TypePreFilterBuff:
		ev = &PreFilter{}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, t)
	}
	ev.Head().Type = t
	return ev, nil
}

// required lists the JSON keys a variant must carry besides type and timestamp.
func required(t Type) []string {
	switch t {
	case TypeDamage, TypeHeal, TypeHealAbsorbed, TypeAbsorbed:
		return []string{"ability", "amount"}
	case TypeApplyBuffStack, TypeApplyDebuffStack, TypeRemoveBuffStack, TypeRemoveDebuffStack:
		return []string{"ability", "stack"}
	case TypeEnergize:
		return []string{"ability", "resourceChange"}
	case TypeInterrupt:
		return []string{"ability", "extraAbility"}
	case TypePhaseStart, TypePhaseEnd:
		return []string{"phase"}
	case TypeDeath, TypeFightEnd:
		return nil
	default:
		return []string{"ability"}
	}
}

// Decode turns one raw log record into exactly one variant.
func Decode(raw []byte) (Event, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	var t Type
	rawType, ok := probe["type"]
	if !ok {
		return nil, fmt.Errorf("decode event: %w: type", ErrMissingField)
	}
	if err := json.Unmarshal(rawType, &t); err != nil {
		return nil, fmt.Errorf("decode event type: %w", err)
	}
	ev, err := New(t)
	if err != nil {
		return nil, err
	}
	if _, ok := probe["timestamp"]; !ok {
		return nil, fmt.Errorf("decode %s: %w: timestamp", t, ErrMissingField)
	}
	for _, field := range required(t) {
		if _, ok := probe[field]; !ok {
			return nil, fmt.Errorf("decode %s: %w: %s", t, ErrMissingField, field)
		}
	}
	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	if err := checkNonNegative(ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return ev, nil
}

func checkNonNegative(ev Event) error {
	switch e := ev.(type) {
	case *Damage:
		if e.Amount < 0 || e.Absorbed < 0 {
			return ErrNegative
		}
	case *Heal:
		if e.Amount < 0 || e.Absorbed < 0 {
			return ErrNegative
		}
	case *HealAbsorbed:
		if e.Amount < 0 {
			return ErrNegative
		}
	case *Absorbed:
		if e.Amount < 0 {
			return ErrNegative
		}
	case *BuffStack:
		if e.Stack < 0 {
			return ErrNegative
		}
	}
	return nil
}

// DecodeAll decodes a log in order and rejects sequences that go back in time.
func DecodeAll(raws []json.RawMessage) ([]Event, error) {
	out := make([]Event, 0, len(raws))
	for i, raw := range raws {
		ev, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, ev)
	}
	if err := CheckSorted(out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckSorted verifies that timestamps never decrease.
func CheckSorted(events []Event) error {
	for i := 1; i < len(events); i++ {
		prev, cur := events[i-1].Head().Timestamp, events[i].Head().Timestamp
		if cur < prev {
			return fmt.Errorf("%w: event %d at %d after %d", ErrUnsorted, i, cur, prev)
		}
	}
	return nil
}

// AbilityOf returns the ability of variants that carry one.
func AbilityOf(ev Event) (Ability, bool) {
	switch e := ev.(type) {
	case *Damage:
		return e.Ability, true
	case *Heal:
		return e.Ability, true
	case *HealAbsorbed:
		return e.Ability, true
	case *Absorbed:
		return e.Ability, true
	case *BeginCast:
		return e.Ability, true
	case *Cast:
		return e.Ability, true
	case *Buff:
		return e.Ability, true
	case *BuffStack:
		return e.Ability, true
	case *Summon:
		return e.Ability, true
	case *Energize:
		return e.Ability, true
	case *Interrupt:
		return e.Ability, true
	case *Resurrect:
		return e.Ability, true
	case *PreFilter:
		return e.Ability, true
	}
	return Ability{}, false
}

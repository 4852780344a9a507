package event

// Type is the discriminant of a combat log event.
type Type string

// Combat log event types.
const (
	TypeDamage            Type = "damage"
	TypeHeal              Type = "heal"
	TypeHealAbsorbed      Type = "healabsorbed"
	TypeAbsorbed          Type = "absorbed"
	TypeBeginCast         Type = "begincast"
	TypeCast              Type = "cast"
	TypeApplyBuff         Type = "applybuff"
	TypeApplyDebuff       Type = "applydebuff"
	TypeApplyBuffStack    Type = "applybuffstack"
	TypeApplyDebuffStack  Type = "applydebuffstack"
	TypeRemoveBuffStack   Type = "removebuffstack"
	TypeRemoveDebuffStack Type = "removedebuffstack"
	TypeRefreshBuff       Type = "refreshbuff"
	TypeRefreshDebuff     Type = "refreshdebuff"
	TypeRemoveBuff        Type = "removebuff"
	TypeRemoveDebuff      Type = "removedebuff"
	TypeSummon            Type = "summon"
	TypeEnergize          Type = "energize"
	TypeInterrupt         Type = "interrupt"
	TypeDeath             Type = "death"
	TypeResurrect         Type = "resurrect"
)

// Synthetic events fabricated by normalizers before replay.
const (
	// TypeFightEnd marks the end of the analyzed window. Replay stops after it.
	TypeFightEnd Type = "fightend"
	// TypePhaseStart marks the start of a boss phase.
	TypePhaseStart Type = "phasestart"
	// TypePhaseEnd marks the end of a boss phase.
	TypePhaseEnd Type = "phaseend"
	// TypePreFilterCooldown carries cooldown state for a time-filtered window.
	TypePreFilterCooldown Type = "filter_cooldown_info"
	// TypePreFilterBuff carries buff state for a time-filtered window.
	TypePreFilterBuff Type = "filter_buff_info"
)

// Types lists every known discriminant in declaration order.
var Types = []Type{
	TypeDamage, TypeHeal, TypeHealAbsorbed, TypeAbsorbed, TypeBeginCast, TypeCast,
	TypeApplyBuff, TypeApplyDebuff, TypeApplyBuffStack, TypeApplyDebuffStack,
	TypeRemoveBuffStack, TypeRemoveDebuffStack, TypeRefreshBuff, TypeRefreshDebuff,
	TypeRemoveBuff, TypeRemoveDebuff, TypeSummon, TypeEnergize, TypeInterrupt,
	TypeDeath, TypeResurrect,
	TypeFightEnd, TypePhaseStart, TypePhaseEnd, TypePreFilterCooldown, TypePreFilterBuff,
}

// Known reports whether t is part of the closed event set.
func (t Type) Known() bool {
	_, err := New(t)
	return err == nil
}

// Event is implemented by every variant through the embedded Header.
type Event interface {
	Head() *Header
}

// Header carries the fields shared by all variants. Actor relation flags are
// annotated upstream; the engine only reads them.
type Header struct {
	Type             Type  `json:"type"`
	Timestamp        int64 `json:"timestamp"`
	SourceID         int   `json:"sourceID"`
	SourceIsFriendly bool  `json:"sourceIsFriendly"`
	TargetID         int   `json:"targetID"`
	TargetIsFriendly bool  `json:"targetIsFriendly"`
}

// Head returns h itself so that *Variant satisfies Event.
func (h *Header) Head() *Header { return h }

// Ability identifies the spell involved in an event.
type Ability struct {
	GUID int    `json:"guid"`
	Name string `json:"name,omitempty"`
	Type int    `json:"type,omitempty"`
	Icon string `json:"abilityIcon,omitempty"`
}

// Damage is dealt or taken by the player, a pet, or one of their targets.
type Damage struct {
	Header
	Ability  Ability `json:"ability"`
	Amount   int64   `json:"amount"`
	Absorbed int64   `json:"absorbed"`
	Overkill int64   `json:"overkill,omitempty"`
	HitType  int     `json:"hitType,omitempty"`
}

// Effective is the damage including the part soaked by absorbs on the target.
func (d *Damage) Effective() int64 { return d.Amount + d.Absorbed }

// Heal is healing done or received.
type Heal struct {
	Header
	Ability  Ability `json:"ability"`
	Amount   int64   `json:"amount"`
	Absorbed int64   `json:"absorbed"`
	Overheal int64   `json:"overheal,omitempty"`
}

// Effective is the healing including the part soaked by heal absorbs.
func (h *Heal) Effective() int64 { return h.Amount + h.Absorbed }

// HealAbsorbed is emitted in addition to a heal when a debuff soaked part of it.
type HealAbsorbed struct {
	Header
	Ability      Ability `json:"ability"`
	ExtraAbility Ability `json:"extraAbility"`
	Amount       int64   `json:"amount"`
}

// Absorbed records damage soaked by a shield.
type Absorbed struct {
	Header
	Ability      Ability `json:"ability"`
	ExtraAbility Ability `json:"extraAbility"`
	Amount       int64   `json:"amount"`
}

// BeginCast starts a cast with a cast time.
type BeginCast struct {
	Header
	Ability Ability `json:"ability"`
}

// CastMeta is annotation attached by modules during replay.
type CastMeta struct {
	Inefficient bool   `json:"isInefficientCast,omitempty"`
	Reason      string `json:"inefficientCastReason,omitempty"`
}

// Cast is a successful cast.
type Cast struct {
	Header
	Ability Ability   `json:"ability"`
	Meta    *CastMeta `json:"meta,omitempty"`
}

// MarkInefficient annotates the cast for later reporting. The first reason wins.
func (c *Cast) MarkInefficient(reason string) {
	if c.Meta == nil {
		c.Meta = &CastMeta{}
	}
	if c.Meta.Inefficient {
		return
	}
	c.Meta.Inefficient = true
	c.Meta.Reason = reason
}

// Buff covers apply, refresh and remove of buffs and debuffs.
type Buff struct {
	Header
	Ability Ability `json:"ability"`
	Absorb  int64   `json:"absorb,omitempty"`
}

// BuffStack covers stack changes of buffs and debuffs.
type BuffStack struct {
	Header
	Ability Ability `json:"ability"`
	Stack   int     `json:"stack"`
}

// Summon is a pet or guardian summon.
type Summon struct {
	Header
	Ability Ability `json:"ability"`
}

// Energize is a resource gain.
type Energize struct {
	Header
	Ability            Ability `json:"ability"`
	ResourceChange     int64   `json:"resourceChange"`
	ResourceChangeType int     `json:"resourceChangeType"`
	Waste              int64   `json:"waste,omitempty"`
}

// Interrupt records ExtraAbility being interrupted by Ability.
type Interrupt struct {
	Header
	Ability      Ability `json:"ability"`
	ExtraAbility Ability `json:"extraAbility"`
}

// Death of the target.
type Death struct {
	Header
}

// Resurrect of the target.
type Resurrect struct {
	Header
	Ability Ability `json:"ability"`
}

// FightEnd is the synthetic end of the analyzed window.
type FightEnd struct {
	Header
}

// PhaseInfo identifies a boss phase.
type PhaseInfo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Phase is a synthetic phase boundary (start or end).
type Phase struct {
	Header
	Phase PhaseInfo `json:"phase"`
}

// PreFilter is a synthetic event carrying state from before a time filter.
type PreFilter struct {
	Header
	Ability Ability `json:"ability"`
}

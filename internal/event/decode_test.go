package event_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/logreplay/internal/event"
)

func TestDecode_Variants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want event.Event
	}{
		{
			name: "damage absorbed defaults to zero",
			raw:  `{"type":"damage","timestamp":10,"sourceID":1,"targetID":9,"ability":{"guid":118459},"amount":100}`,
			want: &event.Damage{
				Header:  event.Header{Type: event.TypeDamage, Timestamp: 10, SourceID: 1, TargetID: 9},
				Ability: event.Ability{GUID: 118459},
				Amount:  100,
			},
		},
		{
			name: "cast with meta",
			raw:  `{"type":"cast","timestamp":5,"ability":{"guid":2643,"name":"Multi-Shot"},"meta":{"isInefficientCast":true}}`,
			want: &event.Cast{
				Header:  event.Header{Type: event.TypeCast, Timestamp: 5},
				Ability: event.Ability{GUID: 2643, Name: "Multi-Shot"},
				Meta:    &event.CastMeta{Inefficient: true},
			},
		},
		{
			name: "debuff stack",
			raw:  `{"type":"applydebuffstack","timestamp":7,"ability":{"guid":273286},"stack":4}`,
			want: &event.BuffStack{
				Header:  event.Header{Type: event.TypeApplyDebuffStack, Timestamp: 7},
				Ability: event.Ability{GUID: 273286},
				Stack:   4,
			},
		},
		{
			name: "refresh buff shares the buff shape",
			raw:  `{"type":"refreshbuff","timestamp":7,"ability":{"guid":268877}}`,
			want: &event.Buff{
				Header:  event.Header{Type: event.TypeRefreshBuff, Timestamp: 7},
				Ability: event.Ability{GUID: 268877},
			},
		},
		{
			name: "fight end carries no payload",
			raw:  `{"type":"fightend","timestamp":300000}`,
			want: &event.FightEnd{Header: event.Header{Type: event.TypeFightEnd, Timestamp: 300000}},
		},
		{
			name: "phase start",
			raw:  `{"type":"phasestart","timestamp":0,"phase":{"key":"P1","name":"Phase 1"}}`,
			want: &event.Phase{
				Header: event.Header{Type: event.TypePhaseStart},
				Phase:  event.PhaseInfo{Key: "P1", Name: "Phase 1"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := event.Decode([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"unknown discriminant", `{"type":"teleport","timestamp":1}`, event.ErrUnknownType},
		{"missing type", `{"timestamp":1}`, event.ErrMissingField},
		{"missing timestamp", `{"type":"death"}`, event.ErrMissingField},
		{"damage without amount", `{"type":"damage","timestamp":1,"ability":{"guid":1}}`, event.ErrMissingField},
		{"stack without stack", `{"type":"applybuffstack","timestamp":1,"ability":{"guid":1}}`, event.ErrMissingField},
		{"cast without ability", `{"type":"cast","timestamp":1}`, event.ErrMissingField},
		{"negative amount", `{"type":"heal","timestamp":1,"ability":{"guid":1},"amount":-5}`, event.ErrNegative},
		{"negative stack", `{"type":"removebuffstack","timestamp":1,"ability":{"guid":1},"stack":-1}`, event.ErrNegative},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := event.Decode([]byte(tc.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecodeAll_RejectsUnsorted(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"type":"death","timestamp":10}`),
		json.RawMessage(`{"type":"death","timestamp":10}`),
		json.RawMessage(`{"type":"death","timestamp":9}`),
	}
	_, err := event.DecodeAll(raws)
	assert.ErrorIs(t, err, event.ErrUnsorted)

	evs, err := event.DecodeAll(raws[:2])
	require.NoError(t, err)
	assert.Len(t, evs, 2)
}

func TestNew_CoversEveryType(t *testing.T) {
	for _, typ := range event.Types {
		ev, err := event.New(typ)
		require.NoError(t, err, typ)
		assert.Equal(t, typ, ev.Head().Type)
		assert.True(t, typ.Known())
	}
	assert.False(t, event.Type("bogus").Known())
}

func TestEffectiveAndAnnotation(t *testing.T) {
	d := &event.Damage{Amount: 100, Absorbed: 25}
	assert.Equal(t, int64(125), d.Effective())

	c := &event.Cast{}
	c.MarkInefficient("cast at full charges")
	c.MarkInefficient("second reason")
	require.NotNil(t, c.Meta)
	assert.True(t, c.Meta.Inefficient)
	assert.Equal(t, "cast at full charges", c.Meta.Reason)

	ab, ok := event.AbilityOf(&event.BuffStack{Ability: event.Ability{GUID: 3}})
	assert.True(t, ok)
	assert.Equal(t, 3, ab.GUID)
	_, ok = event.AbilityOf(&event.Death{})
	assert.False(t, ok)
}

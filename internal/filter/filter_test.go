package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

type relations struct {
	player int
	pets   map[int]bool
}

func (r relations) IsPlayer(id int) bool { return id == r.player }
func (r relations) IsPet(id int) bool    { return r.pets[id] }

var rel = relations{player: 1, pets: map[int]bool{2: true}}

func damage(src, dst int, srcFriendly, dstFriendly bool) *event.Damage {
	return &event.Damage{Header: event.Header{
		Type:             event.TypeDamage,
		SourceID:         src,
		SourceIsFriendly: srcFriendly,
		TargetID:         dst,
		TargetIsFriendly: dstFriendly,
	}}
}

func TestKey_Match(t *testing.T) {
	cases := []struct {
		name string
		b    *filter.Builder
		ev   event.Event
		want bool
	}{
		{"any actor", filter.Damage(), damage(7, 8, false, false), true},
		{"by player", filter.Damage().By(filter.Player), damage(1, 8, true, false), true},
		{"by player rejects pet", filter.Damage().By(filter.Player), damage(2, 8, true, false), false},
		{"by pet", filter.Damage().By(filter.Pet), damage(2, 8, true, false), true},
		{"to pet", filter.Damage().To(filter.Pet), damage(8, 2, false, true), true},
		{"by npc", filter.Damage().By(filter.Enemy), damage(8, 1, false, true), true},
		{"by npc rejects friendly", filter.Damage().By(filter.Enemy), damage(3, 1, true, true), false},
		{"conjunction both sides", filter.Damage().By(filter.Player).To(filter.Enemy), damage(1, 8, true, false), true},
		{"conjunction fails on target", filter.Damage().By(filter.Player).To(filter.Enemy), damage(1, 2, true, true), false},
		{"conjunction same side", filter.Damage().By(filter.Player).By(filter.Friendly), damage(1, 8, false, false), false},
		{"type mismatch", filter.Heal().By(filter.Player), damage(1, 8, true, false), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.b.Err())
			assert.Equal(t, tc.want, tc.b.Key().Match(tc.ev, rel))
		})
	}
}

func TestKey_Equality(t *testing.T) {
	a := filter.Cast().By(filter.Player).Key()
	b := filter.On(event.TypeCast).By(filter.Player).Key()
	c := filter.Cast().By(filter.Player).To(filter.Enemy).Key()
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	set := map[filter.Key]int{a: 1}
	set[b]++
	assert.Equal(t, 2, set[a])
}

func TestBuilder_Errors(t *testing.T) {
	assert.Error(t, filter.Damage().By(filter.Player).By(filter.Pet).Err())
	assert.Error(t, filter.Damage().To(filter.Friendly).To(filter.Enemy).Err())
	assert.Error(t, filter.Damage().By(filter.Pet).By(filter.Enemy).Err())
	assert.ErrorIs(t, filter.On("bogus").Err(), event.ErrUnknownType)
}

func TestParseSelector(t *testing.T) {
	s, err := filter.ParseSelector("pet, friendly")
	require.NoError(t, err)
	assert.Equal(t, filter.Pet|filter.Friendly, s)
	assert.Equal(t, "pet+friendly", s.String())

	s, err = filter.ParseSelector("")
	require.NoError(t, err)
	assert.Equal(t, filter.Any, s)

	_, err = filter.ParseSelector("boss")
	assert.Error(t, err)
	_, err = filter.ParseSelector("player,pet")
	assert.Error(t, err)
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "damage[by=player,to=enemy]", filter.Damage().By(filter.Player).To(filter.Enemy).Key().String())
	assert.Equal(t, "cast", filter.Cast().Key().String())
}

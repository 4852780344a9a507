package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/analyzertest"
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/builtin"
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/hunter"
	"github.com/gyaneshwarpardhi/logreplay/internal/combat"
	"github.com/gyaneshwarpardhi/logreplay/internal/config"
	"github.com/gyaneshwarpardhi/logreplay/internal/dag"
	"github.com/gyaneshwarpardhi/logreplay/internal/engine"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

const (
	player = analyzertest.Player
	pet    = analyzertest.Pet
	boss   = analyzertest.Boss
)

var (
	fight     = combat.Fight{ID: 1, StartTime: 0, EndTime: 10000}
	combatant = combat.Combatant{
		ID:     player,
		Name:   "Hunter",
		Class:  "Hunter",
		Spec:   "Survival",
		Traits: map[int]int{hunter.LatentPoisonTrait: 1},
		Pets:   []int{pet},
	}
)

// probe records every damage event it sees into a shared trace.
type probe struct {
	analyzer.Base
	id    string
	trace *[]string
	seen  int

	failAt   map[int]string // seen count → "error" or "panic"
	panicEnd bool
}

func (p *probe) onDamage(d *event.Damage) error {
	p.seen++
	*p.trace = append(*p.trace, p.id)
	switch p.failAt[p.seen] {
	case "error":
		return errors.New("bad damage")
	case "panic":
		panic("boom")
	}
	return nil
}

func (p *probe) Finalize() analyzer.Result {
	if p.panicEnd {
		panic("finalize boom")
	}
	return analyzer.Stat(p.id, []analyzer.Value{analyzer.N("seen", float64(p.seen))})
}

type probeOpts struct {
	deps     []string
	inactive bool
	failAt   map[int]string
	panicEnd bool
	badKey   bool
	ctorErr  bool
}

// probeRegistry registers one probe type per entry of types.
func probeRegistry(trace *[]string, types map[string]probeOpts) *analyzer.Registry {
	r := analyzer.NewRegistry()
	for typ, o := range types {
		o := o
		r.Register(analyzer.FactoryFunc{
			Name: typ,
			Deps: o.deps,
			Fn: func(env *analyzer.Env) (analyzer.Module, error) {
				if o.ctorErr {
					return nil, errors.New("bad params")
				}
				p := &probe{Base: analyzer.NewBase(!o.inactive), id: env.ID, trace: trace, failAt: o.failAt, panicEnd: o.panicEnd}
				analyzer.On(p.Handlers(), filter.Damage().By(filter.Player), p.onDamage)
				if o.badKey {
					analyzer.On(p.Handlers(), filter.Cast(), p.onDamage)
				}
				return p, nil
			},
		})
	}
	return r
}

func build(mods ...config.ModuleRef) *config.Build {
	return &config.Build{Class: "hunter", Spec: "survival", Modules: mods}
}

func dmg(ts int64, ability int) event.Event {
	return analyzertest.Damage(ts, player, boss, ability, 100, 0)
}

func seen(t *testing.T, rep *engine.Report, id string) float64 {
	t.Helper()
	res, ok := rep.Get(id)
	require.True(t, ok, "no result for %s", id)
	require.Equal(t, analyzer.KindStatistic, res.Kind, "result for %s: %+v", id, res)
	v, ok := res.Statistic.Get("seen")
	require.True(t, ok)
	return v
}

func TestRunDependencyOrder(t *testing.T) {
	var trace []string
	reg := probeRegistry(&trace, map[string]probeOpts{
		"reader": {deps: []string{"source"}},
		"source": {},
		"free":   {},
	})
	eng := engine.New(reg)

	rep, err := eng.Run(context.Background(), engine.Parse{
		ID:        "p1",
		Fight:     fight,
		Combatant: combatant,
		Build:     build(config.ModuleRef{Type: "reader"}, config.ModuleRef{Type: "free"}, config.ModuleRef{Type: "source"}),
		Events:    []event.Event{dmg(10, 1), dmg(20, 2)},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"free", "source", "reader"}, rep.Order)
	assert.Equal(t, []string{"free", "source", "reader", "free", "source", "reader"}, trace)
	assert.Equal(t, 2, rep.Dispatched)
	assert.Equal(t, 0, rep.Skipped)

	var ids []string
	for _, mr := range rep.Results {
		ids = append(ids, mr.ID)
	}
	assert.Equal(t, []string{"free", "source", "reader"}, ids)
}

func TestRunDependsOnFromConfig(t *testing.T) {
	var trace []string
	reg := probeRegistry(&trace, map[string]probeOpts{"p": {}})
	eng := engine.New(reg)

	rep, err := eng.Run(context.Background(), engine.Parse{
		ID:        "p1",
		Fight:     fight,
		Combatant: combatant,
		Build: build(
			config.ModuleRef{ID: "late", Type: "p", DependsOn: []string{"early"}},
			config.ModuleRef{ID: "early", Type: "p"},
			config.ModuleRef{ID: "off", Type: "p", Disabled: true},
		),
		Events: []event.Event{dmg(10, 1)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, rep.Order)
	assert.Equal(t, []string{"early", "late"}, trace)
	_, ok := rep.Get("off")
	assert.False(t, ok)
}

func TestRunSameTimestampKeepsInputOrder(t *testing.T) {
	reg := analyzer.NewRegistry()
	var got []int
	reg.Register(analyzer.FactoryFunc{
		Name: "order",
		Fn: func(env *analyzer.Env) (analyzer.Module, error) {
			p := &probe{Base: analyzer.NewBase(true), trace: new([]string)}
			analyzer.On(p.Handlers(), filter.Damage(), func(d *event.Damage) error {
				got = append(got, d.Ability.GUID)
				return nil
			})
			return p, nil
		},
	})
	eng := engine.New(reg)

	_, err := eng.Run(context.Background(), engine.Parse{
		ID:        "p1",
		Fight:     fight,
		Combatant: combatant,
		Build:     build(config.ModuleRef{Type: "order"}),
		Events:    []event.Event{dmg(10, 3), dmg(10, 1), dmg(10, 2), dmg(11, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2, 0}, got)
}

func TestRunInactiveModulesAbsent(t *testing.T) {
	var trace []string
	reg := probeRegistry(&trace, map[string]probeOpts{
		"on":  {},
		"off": {inactive: true},
	})
	rep, err := engine.New(reg).Run(context.Background(), engine.Parse{
		ID:        "p1",
		Fight:     fight,
		Combatant: combatant,
		Build:     build(config.ModuleRef{Type: "off"}, config.ModuleRef{Type: "on"}),
		Events:    []event.Event{dmg(10, 1)},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"off", "on"}, rep.Order)
	assert.Equal(t, []string{"on"}, trace)
	_, ok := rep.Get("off")
	assert.False(t, ok)
	assert.Len(t, rep.Results, 1)
}

func TestRunFaultIsolation(t *testing.T) {
	var trace []string
	reg := probeRegistry(&trace, map[string]probeOpts{
		"flaky":  {failAt: map[int]string{2: "panic", 3: "error"}},
		"steady": {},
		"closer": {panicEnd: true},
	})
	rep, err := engine.New(reg).Run(context.Background(), engine.Parse{
		ID:        "p1",
		Fight:     fight,
		Combatant: combatant,
		Build:     build(config.ModuleRef{Type: "flaky"}, config.ModuleRef{Type: "steady"}, config.ModuleRef{Type: "closer"}),
		Events:    []event.Event{dmg(10, 1), dmg(20, 1), dmg(30, 1), dmg(40, 1)},
	})
	require.NoError(t, err)

	// The faulted module still receives every event.
	assert.Equal(t, 12, len(trace))
	assert.Equal(t, float64(4), seen(t, rep, "steady"))

	res, ok := rep.Get("flaky")
	require.True(t, ok)
	assert.Equal(t, analyzer.KindFault, res.Kind)
	assert.Contains(t, res.Err, "panic: boom")

	faults := rep.Faults()
	require.Len(t, faults, 2)
	f := faults[0]
	assert.Equal(t, "flaky", f.Module)
	assert.Equal(t, 1, f.EventIndex)
	assert.Equal(t, event.TypeDamage, f.EventType)
	assert.Equal(t, int64(20), f.Timestamp)
	assert.Equal(t, 2, f.Count)
	var pe *engine.PanicError
	assert.ErrorAs(t, f, &pe)

	closer := faults[1]
	assert.Equal(t, "closer", closer.Module)
	assert.Equal(t, -1, closer.EventIndex)
	assert.Contains(t, closer.Error(), "finalize")
}

func TestRunFightEndStopsReplay(t *testing.T) {
	var trace []string
	reg := probeRegistry(&trace, map[string]probeOpts{"p": {}})
	rep, err := engine.New(reg).Run(context.Background(), engine.Parse{
		ID:        "p1",
		Fight:     fight,
		Combatant: combatant,
		Build:     build(config.ModuleRef{Type: "p"}),
		Events: []event.Event{
			dmg(10, 1),
			analyzertest.FightEnd(20),
			dmg(30, 1),
			dmg(40, 1),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1), seen(t, rep, "p"))
	assert.Equal(t, 1, rep.Dispatched) // nobody handles fightend
	assert.Equal(t, 2, rep.Skipped)
}

func TestRunConfigErrors(t *testing.T) {
	var trace []string
	reg := probeRegistry(&trace, map[string]probeOpts{
		"p":      {},
		"needsX": {deps: []string{"x"}},
		"badKey": {badKey: true},
		"ctor":   {ctorErr: true},
	})
	eng := engine.New(reg)

	cases := []struct {
		name   string
		mods   []config.ModuleRef
		module string
		is     error
		as     func(error) bool
	}{
		{
			name: "cycle",
			mods: []config.ModuleRef{
				{ID: "a", Type: "p", DependsOn: []string{"b"}},
				{ID: "b", Type: "p", DependsOn: []string{"a"}},
			},
			as: func(err error) bool { var ce *dag.CycleError; return errors.As(err, &ce) },
		},
		{
			name:   "missing dependency",
			mods:   []config.ModuleRef{{Type: "needsX"}},
			module: "needsX",
			as:     func(err error) bool { var me *dag.MissingDependencyError; return errors.As(err, &me) },
		},
		{
			name:   "dependency disabled",
			mods:   []config.ModuleRef{{Type: "p", DependsOn: []string{"q"}}, {ID: "q", Type: "p", Disabled: true}},
			module: "p",
		},
		{
			name:   "unknown type",
			mods:   []config.ModuleRef{{Type: "nope"}},
			module: "nope",
			is:     analyzer.ErrUnknownModule,
		},
		{
			name:   "missing type",
			mods:   []config.ModuleRef{{ID: "blank"}},
			module: "blank",
		},
		{
			name:   "duplicate id",
			mods:   []config.ModuleRef{{Type: "p"}, {Type: "p"}},
			module: "p",
			is:     dag.ErrDuplicateNode,
		},
		{
			name:   "handler variant mismatch",
			mods:   []config.ModuleRef{{Type: "badKey"}},
			module: "badKey",
		},
		{
			name:   "constructor error",
			mods:   []config.ModuleRef{{Type: "ctor"}},
			module: "ctor",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trace = nil
			rep, err := eng.Run(context.Background(), engine.Parse{
				ID:        "p1",
				Fight:     fight,
				Combatant: combatant,
				Build:     build(tc.mods...),
				Events:    []event.Event{dmg(10, 1)},
			})
			require.Error(t, err)
			assert.Nil(t, rep)
			assert.Empty(t, trace, "no event may be dispatched")

			var ce *engine.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.module, ce.Module)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
			if tc.as != nil {
				assert.True(t, tc.as(err), "unexpected error %v", err)
			}
		})
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	var trace []string
	reg := probeRegistry(&trace, map[string]probeOpts{"p": {}})
	eng := engine.New(reg)

	_, err := eng.Run(context.Background(), engine.Parse{
		ID:        "p1",
		Fight:     fight,
		Combatant: combatant,
		Build:     build(config.ModuleRef{Type: "p"}),
		Events:    []event.Event{dmg(20, 1), dmg(10, 1)},
	})
	assert.ErrorIs(t, err, event.ErrUnsorted)

	_, err = eng.Run(context.Background(), engine.Parse{
		ID:        "p1",
		Fight:     combat.Fight{StartTime: 10, EndTime: 5},
		Combatant: combatant,
		Build:     build(config.ModuleRef{Type: "p"}),
	})
	assert.Error(t, err)

	_, err = eng.Run(context.Background(), engine.Parse{ID: "p1", Fight: fight, Combatant: combatant})
	assert.ErrorIs(t, err, engine.ErrNoBuild)

	assert.Empty(t, trace)
}

func TestRunCanceled(t *testing.T) {
	var trace []string
	reg := probeRegistry(&trace, map[string]probeOpts{"p": {}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.New(reg).Run(ctx, engine.Parse{
		ID:        "p1",
		Fight:     fight,
		Combatant: combatant,
		Build:     build(config.ModuleRef{Type: "p"}),
		Events:    []event.Event{dmg(10, 1)},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, trace)
}

func hunterBuild() *config.Build {
	return build(
		config.ModuleRef{Type: "buffs"},
		config.ModuleRef{Type: "abilities"},
		config.ModuleRef{Type: "latentPoison"},
		config.ModuleRef{Type: "explosiveShot"},
		config.ModuleRef{
			ID:     "big_hits",
			Type:   "counter",
			Params: map[string]interface{}{"event": "damage", "by": "player", "where": "amount >= 500", "sum": "amount"},
		},
	)
}

func hunterEvents() []event.Event {
	evs := []event.Event{
		analyzertest.Buff(event.TypeApplyDebuff, 100, player, boss, hunter.LatentPoisonDebuff),
	}
	for s := 2; s <= 6; s++ {
		evs = append(evs, analyzertest.Stack(event.TypeApplyDebuffStack, int64(100+s), player, boss, hunter.LatentPoisonDebuff, s))
	}
	evs = append(evs,
		analyzertest.Damage(200, player, boss, hunter.SerpentStingSV, 400, 0),
		analyzertest.Damage(200, player, boss, hunter.MongooseBite, 900, 100),
		analyzertest.Cast(200, player, boss, hunter.MongooseBite),
		analyzertest.Damage(300, pet, boss, 17253, 250, 0),
		analyzertest.FightEnd(9000),
	)
	return evs
}

func TestRunDeterministic(t *testing.T) {
	eng := engine.New(builtin.Registry())
	parse := func() engine.Parse {
		return engine.Parse{ID: "same", Fight: fight, Combatant: combatant, Build: hunterBuild(), Events: hunterEvents()}
	}

	first, err := eng.Run(context.Background(), parse())
	require.NoError(t, err)
	second, err := eng.Run(context.Background(), parse())
	require.NoError(t, err)

	ignore := cmpopts.IgnoreFields(engine.Report{}, "DurationMs")
	if diff := cmp.Diff(first, second, ignore); diff != "" {
		t.Errorf("reports differ (-first +second):\n%s", diff)
	}

	// Explosive Shot needs a talent the combatant lacks; trackers yield none.
	assert.Equal(t, []string{"buffs", "abilities", "latentPoison", "big_hits"}, idsOf(first))

	lp, ok := first.Get("latentPoison")
	require.True(t, ok)
	require.Equal(t, analyzer.KindStatistic, lp.Kind)
	utilised, _ := lp.Statistic.Get("utilised")
	assert.Equal(t, float64(6), utilised)

	hits, ok := first.Get("big_hits")
	require.True(t, ok)
	require.Equal(t, analyzer.KindStatistic, hits.Kind)
	count, _ := hits.Statistic.Get("count")
	total, _ := hits.Statistic.Get("total")
	assert.Equal(t, float64(1), count)
	assert.Equal(t, float64(900), total)

	buffs, _ := first.Get("buffs")
	assert.Equal(t, analyzer.KindNone, buffs.Kind)
}

func TestRunAnnotatedCastsReachAbilityTracker(t *testing.T) {
	eng := engine.New(builtin.Registry())
	build := &config.Build{
		Class: "hunter",
		Spec:  "beastmastery",
		Modules: []config.ModuleRef{
			{Type: "beastCleave"},
			{Type: "abilities"},
			{Type: "buffs"},
		},
	}
	multiShot := analyzertest.Cast(1000, player, boss, hunter.MultiShotBM)
	rep, err := eng.Run(context.Background(), engine.Parse{
		Fight:     fight,
		Combatant: combatant,
		Build:     build,
		Events: []event.Event{
			multiShot,
			analyzertest.Buff(event.TypeApplyBuff, 1000, player, pet, hunter.BeastCleavePetBuff),
			analyzertest.Buff(event.TypeRemoveBuff, 5000, player, pet, hunter.BeastCleavePetBuff),
		},
	})
	require.NoError(t, err)
	assert.True(t, multiShot.Meta != nil && multiShot.Meta.Inefficient)

	abilities, ok := rep.Get("abilities")
	require.True(t, ok)
	require.Equal(t, analyzer.KindStatistic, abilities.Kind)
	n, ok := abilities.Statistic.Get("2643")
	require.True(t, ok)
	assert.Equal(t, float64(1), n)
}

func idsOf(rep *engine.Report) []string {
	var out []string
	for _, mr := range rep.Results {
		out = append(out, mr.ID)
	}
	return out
}

func TestReportMap(t *testing.T) {
	rep := &engine.Report{Results: []engine.ModuleResult{
		{ID: "a", Result: analyzer.None()},
		{ID: "b", Result: analyzer.Stat("b", nil)},
	}}
	m := rep.Map()
	assert.Len(t, m, 2)
	assert.Equal(t, analyzer.KindStatistic, m["b"].Kind)
	_, ok := rep.Get("c")
	assert.False(t, ok)
	assert.Empty(t, rep.Faults())
}

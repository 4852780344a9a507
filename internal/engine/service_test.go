package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/combat"
	"github.com/gyaneshwarpardhi/logreplay/internal/config"
	"github.com/gyaneshwarpardhi/logreplay/internal/engine"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/filter"
)

// gate blocks every damage handler until release is closed.
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) registry(trace *[]string) *analyzer.Registry {
	r := probeRegistry(trace, map[string]probeOpts{"p": {}})
	r.Register(analyzer.FactoryFunc{
		Name: "gate",
		Fn: func(env *analyzer.Env) (analyzer.Module, error) {
			p := &probe{Base: analyzer.NewBase(true), trace: trace}
			analyzer.On(p.Handlers(), filter.Damage(), func(*event.Damage) error {
				g.started <- struct{}{}
				<-g.release
				return nil
			})
			return p, nil
		},
	})
	return r
}

func serviceConfig(engineConf config.EngineConf, moduleType string) *config.BuildConfig {
	return &config.BuildConfig{
		Version: "1",
		Engine:  engineConf,
		Builds: []config.Build{
			{Class: "hunter", Spec: "survival", Modules: []config.ModuleRef{{Type: moduleType}}},
		},
	}
}

func unbuiltParse() engine.Parse {
	return engine.Parse{Fight: fight, Combatant: combatant, Events: []event.Event{dmg(10, 1)}}
}

func waitJob(t *testing.T, svc *engine.Service, id string) engine.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, ok := svc.Job(id)
		require.True(t, ok)
		if j.Status == engine.JobDone || j.Status == engine.JobFailed {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return engine.Job{}
}

func TestServiceProcessSync(t *testing.T) {
	defer goleak.VerifyNone(t)

	var trace []string
	eng := engine.New(probeRegistry(&trace, map[string]probeOpts{"p": {}}))
	svc := engine.NewService(context.Background(), eng, serviceConfig(config.EngineConf{Workers: 2}, "p"))
	defer svc.Shutdown()

	rep, err := svc.ProcessSync(context.Background(), unbuiltParse())
	require.NoError(t, err)
	assert.NotEmpty(t, rep.ParseID)
	assert.Equal(t, []string{"p"}, rep.Order)
	assert.Equal(t, float64(1), seen(t, rep, "p"))

	p := unbuiltParse()
	p.Combatant = combat.Combatant{ID: player, Class: "mage", Spec: "frost"}
	_, err = svc.ProcessSync(context.Background(), p)
	assert.ErrorIs(t, err, engine.ErrNoBuild)
}

func TestServiceSwapConfig(t *testing.T) {
	defer goleak.VerifyNone(t)

	var trace []string
	eng := engine.New(probeRegistry(&trace, map[string]probeOpts{"p": {}, "q": {}}))
	svc := engine.NewService(context.Background(), eng, serviceConfig(config.EngineConf{Workers: 1}, "p"))
	defer svc.Shutdown()

	svc.SwapConfig(serviceConfig(config.EngineConf{}, "q"))
	assert.Equal(t, "q", svc.Config().Builds[0].Modules[0].Type)

	rep, err := svc.ProcessSync(context.Background(), unbuiltParse())
	require.NoError(t, err)
	assert.Equal(t, []string{"q"}, rep.Order)
}

func TestServiceProcessAsync(t *testing.T) {
	defer goleak.VerifyNone(t)

	var trace []string
	eng := engine.New(probeRegistry(&trace, map[string]probeOpts{"p": {}}))
	svc := engine.NewService(context.Background(), eng, serviceConfig(config.EngineConf{Workers: 1, MaxJobs: 1}, "p"))
	defer svc.Shutdown()

	first, err := svc.ProcessAsync(unbuiltParse())
	require.NoError(t, err)
	j := waitJob(t, svc, first)
	assert.Equal(t, engine.JobDone, j.Status)
	require.NotNil(t, j.Report)
	assert.Equal(t, j.ParseID, j.Report.ParseID)
	assert.False(t, j.Finished.IsZero())

	second, err := svc.ProcessAsync(unbuiltParse())
	require.NoError(t, err)
	waitJob(t, svc, second)

	// Only the most recent finished job is kept.
	_, ok := svc.Job(first)
	assert.False(t, ok)

	bad := unbuiltParse()
	bad.Events = []event.Event{dmg(20, 1), dmg(10, 1)}
	third, err := svc.ProcessAsync(bad)
	require.NoError(t, err)
	j = waitJob(t, svc, third)
	assert.Equal(t, engine.JobFailed, j.Status)
	assert.Contains(t, j.Error, "not sorted")
	assert.Nil(t, j.Report)

	_, ok = svc.Job("missing")
	assert.False(t, ok)
}

func TestServiceQueueFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	var trace []string
	g := newGate()
	eng := engine.New(g.registry(&trace))
	svc := engine.NewService(context.Background(), eng, serviceConfig(config.EngineConf{Workers: 1, QueueDepth: 1}, "gate"))

	_, err := svc.ProcessAsync(unbuiltParse())
	require.NoError(t, err)
	<-g.started // the only worker is busy

	_, err = svc.ProcessAsync(unbuiltParse())
	require.NoError(t, err)
	assert.Equal(t, 1.0, svc.QueueUtilization())

	_, err = svc.ProcessAsync(unbuiltParse())
	assert.ErrorIs(t, err, engine.ErrQueueFull)
	_, err = svc.ProcessSync(context.Background(), unbuiltParse())
	assert.ErrorIs(t, err, engine.ErrQueueFull)

	close(g.release)
	svc.Shutdown()
	assert.Equal(t, 0.0, svc.QueueUtilization())

	_, err = svc.ProcessAsync(unbuiltParse())
	assert.ErrorIs(t, err, engine.ErrQueueFull, "drained service accepts nothing")
}

func TestServiceTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	var trace []string
	g := newGate()
	eng := engine.New(g.registry(&trace))
	svc := engine.NewService(context.Background(), eng, serviceConfig(config.EngineConf{Workers: 1, ParseTimeoutMs: 20}, "gate"))

	_, err := svc.ProcessSync(context.Background(), unbuiltParse())
	assert.ErrorIs(t, err, engine.ErrTimeout)

	close(g.release)
	svc.Shutdown()
}

func TestServiceCallerCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	var trace []string
	g := newGate()
	eng := engine.New(g.registry(&trace))
	svc := engine.NewService(context.Background(), eng, serviceConfig(config.EngineConf{Workers: 1}, "gate"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-g.started
		cancel()
	}()
	_, err := svc.ProcessSync(ctx, unbuiltParse())
	assert.ErrorIs(t, err, context.Canceled)

	close(g.release)
	svc.Shutdown()
}

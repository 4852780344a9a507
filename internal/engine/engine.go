// Package engine replays one parse's events through the modules of its build
// and collects a terminal result per module. Service runs many parses
// concurrently on a bounded worker pool.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/combat"
	"github.com/gyaneshwarpardhi/logreplay/internal/config"
	"github.com/gyaneshwarpardhi/logreplay/internal/dag"
	"github.com/gyaneshwarpardhi/logreplay/internal/event"
	"github.com/gyaneshwarpardhi/logreplay/internal/log"
	"github.com/gyaneshwarpardhi/logreplay/internal/metrics"
	"github.com/gyaneshwarpardhi/logreplay/internal/telemetry"
)

// Parse is one replay request: a fight, the analyzed combatant, the build to
// run and the sorted event log.
type Parse struct {
	ID        string
	Fight     combat.Fight
	Combatant combat.Combatant
	Build     *config.Build // looked up by class and spec when nil (Service only)
	Events    []event.Event
}

// Engine runs parses. It holds no per-parse state and is safe for concurrent use.
type Engine struct {
	registry *analyzer.Registry
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger replaces the engine's component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTracer replaces the engine's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New creates an Engine resolving module types through reg.
func New(reg *analyzer.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		logger:   log.WithComponent("engine"),
		tracer:   telemetry.Tracer("logreplay/engine"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Registry returns the module registry the engine resolves types with.
func (e *Engine) Registry() *analyzer.Registry { return e.registry }

// slot is one constructed module of a parse.
type slot struct {
	id     string
	typ    string
	module analyzer.Module
	fault  *ModuleFault
}

type binding struct {
	slot *slot
	analyzer.Binding
}

// plan is everything setup produced for one parse.
type plan struct {
	ctx   *combat.Context
	order []string
	slots []*slot                  // resolved order
	table map[event.Type][]binding // active modules only, (module order, registration order)
}

// Run replays p and returns its report. Configuration errors, malformed
// events and context cancellation abort the parse; a failing module only
// loses its own result.
func (e *Engine) Run(ctx context.Context, p Parse) (*Report, error) {
	start := time.Now()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Build == nil {
		metrics.ParsesProcessed.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("parse %s: %w", p.ID, ErrNoBuild)
	}

	ctx, span := e.tracer.Start(ctx, "engine.Run",
		trace.WithAttributes(telemetry.ParseAttributes(p.ID, p.Build.Key(), len(p.Events), len(p.Build.Modules))...))
	defer span.End()

	logger := log.WithContext(ctx, e.logger).With().
		Str(log.FieldParseID, p.ID).
		Str(log.FieldBuild, p.Build.Key()).
		Logger()

	pl, err := e.setup(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "setup failed")
		metrics.ParsesProcessed.WithLabelValues("invalid").Inc()
		logger.Warn().Err(err).Msg("parse setup failed")
		return nil, err
	}

	rep := &Report{ParseID: p.ID, Order: pl.order, Results: []ModuleResult{}}
	if err := e.replay(ctx, pl, p.Events, rep, logger); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replay aborted")
		metrics.ParsesProcessed.WithLabelValues("canceled").Inc()
		logger.Warn().Err(err).Msg("parse canceled")
		return nil, err
	}
	e.finalize(ctx, pl, rep, logger)

	faults := len(rep.Faults())
	rep.DurationMs = time.Since(start).Milliseconds()
	span.SetAttributes(telemetry.ReplayAttributes(rep.Dispatched, rep.Skipped, faults)...)

	status := "ok"
	if faults > 0 {
		status = "faulted"
	}
	metrics.ParsesProcessed.WithLabelValues(status).Inc()
	metrics.EventsDispatched.Add(float64(rep.Dispatched))
	metrics.EventsSkipped.Add(float64(rep.Skipped))
	metrics.ParseDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)

	logger.Debug().
		Int(log.FieldDispatched, rep.Dispatched).
		Int(log.FieldSkipped, rep.Skipped).
		Int(log.FieldFaults, faults).
		Int64("duration_ms", rep.DurationMs).
		Msg("parse complete")
	return rep, nil
}

// setup validates the build, orders and constructs its modules and checks the
// event log. Nothing is dispatched before it succeeds.
func (e *Engine) setup(ctx context.Context, p Parse) (*plan, error) {
	_, span := e.tracer.Start(ctx, "engine.setup")
	defer span.End()

	mods := p.Build.Enabled()
	refs := make(map[string]config.ModuleRef, len(mods))
	factories := make(map[string]analyzer.Factory, len(mods))
	for _, m := range mods {
		id := m.Name()
		if m.Type == "" {
			return nil, &ConfigError{Module: id, Err: errors.New("type is required")}
		}
		if _, dup := refs[id]; dup {
			return nil, &ConfigError{Module: id, Err: dag.ErrDuplicateNode}
		}
		f, err := e.registry.Get(m.Type)
		if err != nil {
			return nil, &ConfigError{Module: id, Err: err}
		}
		refs[id] = m
		factories[id] = f
	}

	order, err := dag.Resolve(mods, e.registry.Dependencies)
	if err != nil {
		ce := &ConfigError{Err: err}
		var missing *dag.MissingDependencyError
		if errors.As(err, &missing) {
			ce.Module = missing.Node
		}
		return nil, ce
	}

	cctx, err := combat.NewContext(p.Fight, p.Combatant)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.ID, err)
	}
	for i, ev := range p.Events {
		if ev == nil {
			return nil, fmt.Errorf("parse %s: event %d is nil", p.ID, i)
		}
	}
	if err := event.CheckSorted(p.Events); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p.ID, err)
	}

	pl := &plan{
		ctx:   cctx,
		order: order,
		slots: make([]*slot, 0, len(order)),
		table: make(map[event.Type][]binding),
	}
	built := make(map[string]analyzer.Module, len(order))
	for _, id := range order {
		ref, f := refs[id], factories[id]

		deps := make(map[string]analyzer.Module)
		for _, d := range f.Dependencies() {
			deps[d] = built[d]
		}
		for _, d := range ref.DependsOn {
			deps[d] = built[d]
		}

		mod, err := construct(f, analyzer.NewEnv(id, ref.Type, cctx, ref.Params, deps))
		if err != nil {
			return nil, &ConfigError{Module: id, Err: err}
		}
		if err := mod.Handlers().Err(); err != nil {
			return nil, &ConfigError{Module: id, Err: err}
		}
		built[id] = mod

		s := &slot{id: id, typ: ref.Type, module: mod}
		pl.slots = append(pl.slots, s)
		if !mod.Active() {
			continue
		}
		for _, b := range mod.Handlers().Bindings() {
			pl.table[b.Key.Type] = append(pl.table[b.Key.Type], binding{slot: s, Binding: b})
		}
	}
	return pl, nil
}

func construct(f analyzer.Factory, env *analyzer.Env) (m analyzer.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("constructor: %w", &PanicError{Value: r})
		}
	}()
	m, err = f.New(env)
	if err == nil && m == nil {
		err = errors.New("constructor returned no module")
	}
	return m, err
}

// replay makes the single dispatch pass. Bindings run in table order; a
// failing handler faults its module and dispatch carries on.
func (e *Engine) replay(ctx context.Context, pl *plan, events []event.Event, rep *Report, logger zerolog.Logger) error {
	_, span := e.tracer.Start(ctx, "engine.replay")
	defer span.End()

	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := ev.Head()
		delivered := false
		for _, b := range pl.table[h.Type] {
			if !b.Key.Match(ev, pl.ctx) {
				continue
			}
			delivered = true
			if err := invoke(b.Handle, ev); err != nil {
				e.recordFault(b.slot, &ModuleFault{
					Module:     b.slot.id,
					EventIndex: i,
					EventType:  h.Type,
					Timestamp:  h.Timestamp,
					Err:        err,
				}, logger)
			}
		}
		if delivered {
			rep.Dispatched++
		}
		if h.Type == event.TypeFightEnd {
			rep.Skipped = len(events) - i - 1
			break
		}
	}
	return nil
}

func invoke(handle func(event.Event) error, ev event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return handle(ev)
}

func (e *Engine) recordFault(s *slot, f *ModuleFault, logger zerolog.Logger) {
	phase := "dispatch"
	if f.EventIndex < 0 {
		phase = "finalize"
	}
	metrics.ModuleFaults.WithLabelValues(s.typ, phase).Inc()
	if s.fault != nil {
		s.fault.Count++
		return
	}
	f.Count = 1
	s.fault = f
	ev := logger.Warn().Err(f.Err).
		Str(log.FieldModuleID, s.id).
		Str(log.FieldModuleType, s.typ)
	if f.EventIndex >= 0 {
		ev = ev.Int(log.FieldEventIndex, f.EventIndex).Str(log.FieldEventType, string(f.EventType))
	}
	ev.Msg("module fault")
}

// finalize collects results of active modules in resolved order.
func (e *Engine) finalize(ctx context.Context, pl *plan, rep *Report, logger zerolog.Logger) {
	_, span := e.tracer.Start(ctx, "engine.finalize")
	defer span.End()

	for _, s := range pl.slots {
		if !s.module.Active() {
			continue
		}
		mr := ModuleResult{ID: s.id, Type: s.typ}
		if s.fault == nil {
			res, err := finalizeModule(s.module)
			if err != nil {
				e.recordFault(s, &ModuleFault{Module: s.id, EventIndex: -1, Err: err}, logger)
			} else {
				mr.Result = res
			}
		}
		if s.fault != nil {
			mr.Result = analyzer.Fault(s.fault)
			mr.Fault = s.fault
			span.AddEvent("module fault", trace.WithAttributes(telemetry.ModuleAttributes(s.id, s.typ)...))
		}
		rep.Results = append(rep.Results, mr)
	}
}

func finalizeModule(m analyzer.Module) (res analyzer.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return m.Finalize(), nil
}

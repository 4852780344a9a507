package analyzer

import (
	"fmt"

	"github.com/gyaneshwarpardhi/logreplay/internal/combat"
)

// Factory constructs modules of one type.
type Factory interface {
	// Type returns the string key this factory is registered under.
	Type() string
	// Dependencies lists the module ids the constructed module reads from.
	Dependencies() []string
	// New builds a module for one parse. Params are validated here.
	New(env *Env) (Module, error)
}

// FactoryFunc adapts a constructor function to Factory.
type FactoryFunc struct {
	Name string
	Deps []string
	Fn   func(env *Env) (Module, error)
}

func (f FactoryFunc) Type() string                 { return f.Name }
func (f FactoryFunc) Dependencies() []string       { return f.Deps }
func (f FactoryFunc) New(env *Env) (Module, error) { return f.Fn(env) }

// Env is what a module sees while it is constructed.
type Env struct {
	ID      string
	Type    string
	Context *combat.Context
	Params  map[string]interface{}

	deps map[string]Module
}

// NewEnv returns an Env exposing only deps.
func NewEnv(id, typ string, ctx *combat.Context, params map[string]interface{}, deps map[string]Module) *Env {
	return &Env{ID: id, Type: typ, Context: ctx, Params: params, deps: deps}
}

// Dependency returns an already-constructed module this module depends on.
func (e *Env) Dependency(id string) (Module, bool) {
	m, ok := e.deps[id]
	return m, ok
}

// Dep returns dependency id as T.
func Dep[T Module](env *Env, id string) (T, error) {
	var zero T
	m, ok := env.Dependency(id)
	if !ok {
		return zero, fmt.Errorf("%s: dependency %q not available", env.ID, id)
	}
	t, ok := m.(T)
	if !ok {
		return zero, fmt.Errorf("%s: dependency %q is %T, want %T", env.ID, id, m, zero)
	}
	return t, nil
}

// String returns a string param, or def when absent.
func (e *Env) String(key, def string) (string, error) {
	v, ok := e.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: param %q must be a string, got %T", e.ID, key, v)
	}
	return s, nil
}

// Float returns a numeric param, or def when absent. YAML integers and JSON
// numbers are both accepted.
func (e *Env) Float(key string, def float64) (float64, error) {
	v, ok := e.Params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("%s: param %q must be a number, got %T", e.ID, key, v)
}

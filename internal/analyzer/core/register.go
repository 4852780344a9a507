package core

import "github.com/gyaneshwarpardhi/logreplay/internal/analyzer"

// Register adds the tracking modules to r.
func Register(r *analyzer.Registry) {
	r.Register(analyzer.FactoryFunc{
		Name: BuffsType,
		Fn: func(env *analyzer.Env) (analyzer.Module, error) {
			return NewBuffTracker(env.Context), nil
		},
	})
	r.Register(analyzer.FactoryFunc{
		Name: AbilitiesType,
		Fn: func(env *analyzer.Env) (analyzer.Module, error) {
			return NewAbilityTracker(), nil
		},
	})
}

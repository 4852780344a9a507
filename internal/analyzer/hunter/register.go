package hunter

import (
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/core"
)

// Register adds the hunter modules to r.
func Register(r *analyzer.Registry) {
	r.Register(analyzer.FactoryFunc{
		Name: LatentPoisonType,
		Fn: func(env *analyzer.Env) (analyzer.Module, error) {
			return NewLatentPoison(env.Context), nil
		},
	})
	r.Register(analyzer.FactoryFunc{
		Name: BeastCleaveType,
		Deps: []string{core.BuffsType},
		Fn: func(env *analyzer.Env) (analyzer.Module, error) {
			buffs, err := analyzer.Dep[*core.BuffTracker](env, core.BuffsType)
			if err != nil {
				return nil, err
			}
			return NewBeastCleave(buffs), nil
		},
	})
	r.Register(analyzer.FactoryFunc{
		Name: ExplosiveShotType,
		Deps: []string{core.AbilitiesType},
		Fn: func(env *analyzer.Env) (analyzer.Module, error) {
			abilities, err := analyzer.Dep[*core.AbilityTracker](env, core.AbilitiesType)
			if err != nil {
				return nil, err
			}
			return NewExplosiveShot(env.Context, abilities), nil
		},
	})
}

package dag

import (
	"fmt"

	"github.com/gyaneshwarpardhi/logreplay/internal/config"
)

// DeclaredDeps returns the dependencies a module type declares in code.
type DeclaredDeps func(moduleType string) []string

// Build constructs the dependency graph of a build's enabled modules.
// Edges are the union of the type's declared dependencies and the module's
// depends_on list from configuration.
func Build(mods []config.ModuleRef, declared DeclaredDeps) (*Graph, error) {
	g := NewGraph()
	for _, m := range mods {
		if m.Disabled {
			continue
		}
		var deps []string
		if declared != nil {
			deps = append(deps, declared(m.Type)...)
		}
		deps = append(deps, m.DependsOn...)
		if err := g.AddNode(m.Name(), deps...); err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name(), err)
		}
	}
	return g, nil
}

// Resolve builds the graph and returns the execution order.
func Resolve(mods []config.ModuleRef, declared DeclaredDeps) ([]string, error) {
	g, err := Build(mods, declared)
	if err != nil {
		return nil, err
	}
	return g.Sort()
}

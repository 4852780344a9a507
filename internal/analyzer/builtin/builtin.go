// Package builtin assembles the registry of every module shipped with the binary.
package builtin

import (
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer"
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/core"
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/hunter"
	"github.com/gyaneshwarpardhi/logreplay/internal/analyzer/rule"
)

// Registry returns a new registry with all built-in module types.
func Registry() *analyzer.Registry {
	r := analyzer.NewRegistry()
	core.Register(r)
	hunter.Register(r)
	rule.Register(r)
	return r
}

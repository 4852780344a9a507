package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateNode is returned when the same id is added twice.
var ErrDuplicateNode = errors.New("duplicate node")

// MissingDependencyError reports a dependency on an id that is not in the graph.
type MissingDependencyError struct {
	Node       string
	Dependency string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("module %q depends on undeclared module %q", e.Node, e.Dependency)
}

// CycleError reports a dependency cycle as a closed path, e.g. [a b c a].
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Nodes, " -> ")
}

// Graph holds module ids in declaration order and their dependency edges.
// It is immutable once sorted; a config reload builds a new Graph.
type Graph struct {
	order []string            // declaration order
	index map[string]int      // id → declaration position
	deps  map[string][]string // id → ids it depends on, deduplicated
}

// NewGraph allocates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]int),
		deps:  make(map[string][]string),
	}
}

// AddNode registers id with its dependencies. Repeated dependencies are collapsed.
func (g *Graph) AddNode(id string, deps ...string) error {
	if _, ok := g.index[id]; ok {
		return fmt.Errorf("%w %q", ErrDuplicateNode, id)
	}
	g.index[id] = len(g.order)
	g.order = append(g.order, id)
	seen := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		g.deps[id] = append(g.deps[id], d)
	}
	return nil
}

// Nodes returns the ids in declaration order.
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.order...)
}

// Dependencies returns the direct dependencies of id.
func (g *Graph) Dependencies(id string) []string {
	return append([]string(nil), g.deps[id]...)
}

// NodeCount returns the total number of registered nodes.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

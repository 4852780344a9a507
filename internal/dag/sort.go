package dag

// Sort returns an order in which every node follows all of its dependencies.
// Among nodes that are ready at the same time the earliest declared goes first,
// so the same graph always yields the same order.
func (g *Graph) Sort() ([]string, error) {
	for _, id := range g.order {
		for _, d := range g.deps[id] {
			if _, ok := g.index[d]; !ok {
				return nil, &MissingDependencyError{Node: id, Dependency: d}
			}
		}
	}

	pending := make([]int, len(g.order))      // unresolved dependency count per node
	dependents := make([][]int, len(g.order)) // dependency → nodes waiting on it
	for i, id := range g.order {
		for _, d := range g.deps[id] {
			j := g.index[d]
			pending[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int // kept sorted by declaration index
	for i := range g.order {
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}

	out := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		out = append(out, g.order[next])
		for _, w := range dependents[next] {
			pending[w]--
			if pending[w] == 0 {
				ready = insertSorted(ready, w)
			}
		}
	}

	if len(out) < len(g.order) {
		return nil, &CycleError{Nodes: g.findCycle(pending)}
	}
	return out, nil
}

func insertSorted(s []int, v int) []int {
	i := 0
	for i < len(s) && s[i] < v {
		i++
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// findCycle walks dependencies from the first unresolved node until a node
// repeats. Every unresolved node has at least one unresolved dependency, so the
// walk always closes.
func (g *Graph) findCycle(pending []int) []string {
	start := -1
	for i := range g.order {
		if pending[i] > 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	pos := make(map[int]int)
	var path []int
	cur := start
	for {
		if p, seen := pos[cur]; seen {
			cycle := make([]string, 0, len(path)-p+1)
			for _, i := range path[p:] {
				cycle = append(cycle, g.order[i])
			}
			return append(cycle, g.order[cur])
		}
		pos[cur] = len(path)
		path = append(path, cur)
		for _, d := range g.deps[g.order[cur]] {
			if j := g.index[d]; pending[j] > 0 {
				cur = j
				break
			}
		}
	}
}

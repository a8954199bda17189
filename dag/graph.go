package dag

import (
	"slices"

	lcerrors "github.com/kbukum/lifecycle/errors"
)

// Spec declares one node and the nodes it depends on.
type Spec struct {
	Name      string   `yaml:"name"`
	DependsOn []string `yaml:"depends_on"`
}

// Result is a validated, acyclic dependency graph.
type Result struct {
	// Order lists every node with dependencies first. Ties are broken by
	// declaration order.
	Order []string
	// Levels groups nodes by depth; nodes in one level are independent.
	Levels [][]string

	index      map[string]int
	dependsOn  map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

// visit states for depth-first cycle detection.
const (
	white = iota
	grey
	black
)

// Build validates specs and computes the graph.
// Duplicate, empty or unknown names fail with a configuration error; a cycle
// fails with a cyclic dependency error naming the path.
func Build(specs []Spec) (*Result, error) {
	r := &Result{
		index:      make(map[string]int, len(specs)),
		dependsOn:  make(map[string]map[string]struct{}, len(specs)),
		dependents: make(map[string]map[string]struct{}, len(specs)),
	}

	for i, s := range specs {
		if s.Name == "" {
			return nil, lcerrors.Configuration("component #%d has an empty name", i)
		}
		if _, dup := r.index[s.Name]; dup {
			return nil, lcerrors.Configuration("component %q is registered more than once", s.Name)
		}
		r.index[s.Name] = i
		r.dependsOn[s.Name] = make(map[string]struct{})
		r.dependents[s.Name] = make(map[string]struct{})
	}

	for _, s := range specs {
		for _, dep := range s.DependsOn {
			if _, ok := r.index[dep]; !ok {
				return nil, lcerrors.Configuration("component %q depends on unknown component %q", s.Name, dep)
			}
			r.dependsOn[s.Name][dep] = struct{}{}
			r.dependents[dep][s.Name] = struct{}{}
		}
	}

	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}

	if cycle := r.findCycle(names); cycle != nil {
		return nil, lcerrors.CyclicDependency(cycle)
	}

	r.Order, r.Levels = r.levels(names)
	return r, nil
}

// findCycle runs a depth-first search over dependency edges and returns the
// first cycle found as a closed path, e.g. [a b a].
func (r *Result) findCycle(names []string) []string {
	state := make(map[string]int, len(names))
	var stack []string
	var cycle []string

	var visit func(n string) bool
	visit = func(n string) bool {
		state[n] = grey
		stack = append(stack, n)

		for _, dep := range r.sorted(r.dependsOn[n]) {
			switch state[dep] {
			case grey:
				start := slices.Index(stack, dep)
				cycle = append(slices.Clone(stack[start:]), dep)
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[n] = black
		return false
	}

	for _, n := range names {
		if state[n] == white && visit(n) {
			return cycle
		}
	}
	return nil
}

// levels groups nodes with Kahn's algorithm. Order is the concatenation of
// the levels.
func (r *Result) levels(names []string) ([]string, [][]string) {
	inDegree := make(map[string]int, len(names))
	var queue []string
	for _, n := range names {
		inDegree[n] = len(r.dependsOn[n])
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	var order []string
	var levels [][]string
	for len(queue) > 0 {
		levels = append(levels, queue)
		order = append(order, queue...)

		var next []string
		for _, n := range queue {
			for _, dependent := range r.sorted(r.dependents[n]) {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		r.sortByIndex(next)
		queue = next
	}
	return order, levels
}

// DependsOn returns the direct dependencies of name in declaration order.
func (r *Result) DependsOn(name string) []string {
	return r.sorted(r.dependsOn[name])
}

// Dependents returns the nodes that directly depend on name.
func (r *Result) Dependents(name string) []string {
	return r.sorted(r.dependents[name])
}

// HasEdge reports whether from directly depends on to.
func (r *Result) HasEdge(from, to string) bool {
	_, ok := r.dependsOn[from][to]
	return ok
}

// Len returns the number of nodes.
func (r *Result) Len() int {
	return len(r.index)
}

func (r *Result) sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	r.sortByIndex(out)
	return out
}

func (r *Result) sortByIndex(names []string) {
	slices.SortFunc(names, func(a, b string) int {
		return r.index[a] - r.index[b]
	})
}

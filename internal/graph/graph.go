// Package graph builds the phase dependency graph and derives the execution
// order. Ordering is deterministic: when several phases are ready at once,
// declaration order decides.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCycle marks a dependency cycle. The wrapping error names the phases
// involved.
var ErrCycle = errors.New("dependency cycle detected")

// Spec declares a node and its direct dependencies, in declaration order.
type Spec struct {
	Name      string
	DependsOn []string
}

// Graph is an immutable dependency graph over named phases.
type Graph struct {
	order      []string
	deps       map[string][]string
	dependents map[string][]string
	index      map[string]int
}

// Build validates the declared phases and computes the execution order.
// Duplicate names, dependencies on unknown phases, and cycles all fail fast.
func Build(specs []Spec) (*Graph, error) {
	index := make(map[string]int, len(specs))
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("phase %d has no name", i)
		}
		if _, exists := index[spec.Name]; exists {
			return nil, fmt.Errorf("duplicate phase %q", spec.Name)
		}
		index[spec.Name] = i
	}

	deps := make(map[string][]string, len(specs))
	dependents := make(map[string][]string, len(specs))
	indegree := make(map[string]int, len(specs))

	for _, spec := range specs {
		indegree[spec.Name] = 0
	}
	for _, spec := range specs {
		for _, dep := range spec.DependsOn {
			if _, known := index[dep]; !known {
				return nil, fmt.Errorf("phase %q depends on unknown phase %q", spec.Name, dep)
			}
			deps[spec.Name] = append(deps[spec.Name], dep)
			dependents[dep] = append(dependents[dep], spec.Name)
			indegree[spec.Name]++
		}
	}

	// Kahn's algorithm. The ready set is scanned in declaration order so two
	// runs over the same input always produce the same plan.
	order := make([]string, 0, len(specs))
	done := make(map[string]bool, len(specs))

	for len(order) < len(specs) {
		next := ""
		for _, spec := range specs {
			if done[spec.Name] || indegree[spec.Name] > 0 {
				continue
			}
			next = spec.Name
			break
		}
		if next == "" {
			break
		}

		order = append(order, next)
		done[next] = true
		for _, dependent := range dependents[next] {
			indegree[dependent]--
		}
	}

	if len(order) < len(specs) {
		members := cycleMembers(specs, done, dependents)
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(members, ", "))
	}

	return &Graph{
		order:      order,
		deps:       deps,
		dependents: dependents,
		index:      index,
	}, nil
}

// cycleMembers names the phases actually on a cycle, in declaration order.
// Kahn leaves behind both cycle members and everything downstream of them;
// only a phase reachable from one of its own dependents is on a cycle.
func cycleMembers(specs []Spec, done map[string]bool, dependents map[string][]string) []string {
	stuck := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if !done[spec.Name] {
			stuck[spec.Name] = true
		}
	}

	onCycle := func(name string) bool {
		seen := make(map[string]bool)
		queue := append([]string(nil), dependents[name]...)
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			if current == name {
				return true
			}
			if !stuck[current] || seen[current] {
				continue
			}
			seen[current] = true
			queue = append(queue, dependents[current]...)
		}
		return false
	}

	var members []string
	for _, spec := range specs {
		if stuck[spec.Name] && onCycle(spec.Name) {
			members = append(members, spec.Name)
		}
	}
	return members
}

// Order returns the execution order, dependencies first.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Reverse returns the teardown order, dependents first.
func (g *Graph) Reverse() []string {
	out := make([]string, len(g.order))
	for i, name := range g.order {
		out[len(g.order)-1-i] = name
	}
	return out
}

// Dependencies returns the direct dependencies of a phase.
func (g *Graph) Dependencies(name string) []string {
	out := make([]string, len(g.deps[name]))
	copy(out, g.deps[name])
	return out
}

// Dependents returns the phases that directly depend on name.
func (g *Graph) Dependents(name string) []string {
	out := make([]string, len(g.dependents[name]))
	copy(out, g.dependents[name])
	return out
}

// TransitiveDependents returns every phase downstream of name, in declaration
// order. Used to decide which phases a failure blocks.
func (g *Graph) TransitiveDependents(name string) []string {
	seen := make(map[string]bool)
	queue := append([]string(nil), g.dependents[name]...)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		queue = append(queue, g.dependents[current]...)
	}

	out := make([]string, 0, len(seen))
	for phase := range seen {
		out = append(out, phase)
	}
	sort.Slice(out, func(i, j int) bool { return g.index[out[i]] < g.index[out[j]] })
	return out
}

// Contains reports whether the phase is part of the graph.
func (g *Graph) Contains(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Len returns the number of phases.
func (g *Graph) Len() int {
	return len(g.order)
}

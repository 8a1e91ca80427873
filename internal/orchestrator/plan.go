package orchestrator

import (
	"fmt"
	"path"

	"github.com/fyrsmithlabs/airo/internal/project"
)

// graph resolves dependency names to declared indices. The first
// component wins for duplicate names; unknown and self dependencies are
// dropped.
func graph(comps []project.ComponentSpec) [][]int {
	index := make(map[string]int, len(comps))
	for i, c := range comps {
		if _, ok := index[c.Name]; !ok {
			index[c.Name] = i
		}
	}
	deps := make([][]int, len(comps))
	for i, c := range comps {
		seen := make(map[int]bool)
		for _, d := range c.Dependencies {
			j, ok := index[d]
			if !ok || j == i || seen[j] {
				continue
			}
			seen[j] = true
			deps[i] = append(deps[i], j)
		}
	}
	return deps
}

// topoOrder is Kahn's algorithm picking the lowest declared index among
// ready components. Components left on a cycle follow in declared order.
func topoOrder(comps []project.ComponentSpec) []int {
	deps := graph(comps)
	done := make([]bool, len(comps))
	order := make([]int, 0, len(comps))
	for len(order) < len(comps) {
		next := -1
		for i := range comps {
			if !done[i] && ready(deps[i], done) {
				next = i
				break
			}
		}
		if next == -1 {
			for i := range comps {
				if !done[i] {
					order = append(order, i)
				}
			}
			break
		}
		done[next] = true
		order = append(order, next)
	}
	return order
}

// levels groups components into batches whose dependencies all sit in
// earlier batches. Cycle members form the last batch.
func levels(comps []project.ComponentSpec) [][]int {
	deps := graph(comps)
	done := make([]bool, len(comps))
	remaining := len(comps)
	var out [][]int
	for remaining > 0 {
		var level []int
		for i := range comps {
			if !done[i] && ready(deps[i], done) {
				level = append(level, i)
			}
		}
		if len(level) == 0 {
			for i := range comps {
				if !done[i] {
					level = append(level, i)
				}
			}
		}
		for _, i := range level {
			done[i] = true
		}
		remaining -= len(level)
		out = append(out, level)
	}
	return out
}

func ready(deps []int, done []bool) bool {
	for _, d := range deps {
		if !done[d] {
			return false
		}
	}
	return true
}

// Schedule returns the component indexes to run, in batches. Components in
// one batch may run concurrently.
func Schedule(comps []project.ComponentSpec, parallelism int, dependencyOrder bool) [][]int {
	if parallelism > 1 {
		return levels(comps)
	}
	var order []int
	if dependencyOrder {
		order = topoOrder(comps)
	} else {
		order = make([]int, len(comps))
		for i := range order {
			order[i] = i
		}
	}
	batches := make([][]int, len(order))
	for i, idx := range order {
		batches[i] = []int{idx}
	}
	return batches
}

// DedupeFilenames suffixes repeated filenames with _2, _3 in declared order.
func DedupeFilenames(arts []project.Artifact) {
	seen := make(map[string]bool, len(arts))
	for i := range arts {
		name := arts[i].Filename
		if seen[name] {
			ext := path.Ext(name)
			base := name[:len(name)-len(ext)]
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
				if !seen[candidate] {
					name = candidate
					break
				}
			}
			arts[i].Filename = name
		}
		seen[name] = true
	}
}

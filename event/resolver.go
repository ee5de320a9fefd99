package event

import (
	"math"
	"strings"
)

// Modulo reduces t into [0, cycle). Negative values wrap forward, so
// Modulo(-1, 10) is 9.
func Modulo(t, cycle float64) float64 {
	r := math.Mod(t, cycle)
	if r < 0 {
		r += cycle
	}

	// r + cycle can round up to cycle for tiny negative r.
	if r >= cycle {
		r = 0
	}

	return r
}

// resolveTime computes the time of an entity: its own time when independent,
// otherwise the weighted sum of the times of its dependencies, reduced modulo
// the cycle time.
func resolveTime(e *Event, cycle float64) float64 {
	if e.IsIndependent() {
		return Modulo(e.time, cycle)
	}

	sum := 0.0
	for i, dep := range e.dependencies {
		sum += e.factors[i] * dep.Time()
	}

	return Modulo(sum, cycle)
}

// findPath searches the dependency graph from `from` for `to`. It returns the
// names along the path, starting with from.Name() and ending with to.Name().
// The search is depth-first in dependency order, so the witness is stable.
func findPath(from, to Scheduled) ([]string, bool) {
	visited := make(map[Scheduled]bool)

	var walk func(s Scheduled) ([]string, bool)
	walk = func(s Scheduled) ([]string, bool) {
		if s == to {
			return []string{s.Name()}, true
		}

		if visited[s] {
			return nil, false
		}
		visited[s] = true

		for _, dep := range s.Dependencies() {
			if path, ok := walk(dep); ok {
				return append([]string{s.Name()}, path...), true
			}
		}

		return nil, false
	}

	return walk(from)
}

// formatCycle renders the cycle that adding an edge from dependent to the
// first element of path would close.
func formatCycle(dependent string, path []string) string {
	return dependent + " -> " + strings.Join(path, " -> ")
}

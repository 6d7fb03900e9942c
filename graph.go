package assets

import (
	"fmt"

	"github.com/nexelgames/assets/data"
)

// DependencyGraph tracks directed "A requires B" edges between asset
// identifiers. Edges are stored bidirectionally — a forward set per
// dependent and a reverse set per dependency — so direct lookups in
// either direction are O(1).
//
// Cycles are detected, not prevented: a scan may transiently introduce
// one, so HasCycle must stay correct for arbitrary graphs. Like the
// registry, the graph is a single-writer component with no internal
// locking.
type DependencyGraph struct {
	forward map[data.GUID]map[data.GUID]struct{}
	reverse map[data.GUID]map[data.GUID]struct{}
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		forward: make(map[data.GUID]map[data.GUID]struct{}),
		reverse: make(map[data.GUID]map[data.GUID]struct{}),
	}
}

// AddDependency records that asset requires dependency. Self-loops are
// rejected with false; re-adding an existing edge is a no-op returning
// true.
func (g *DependencyGraph) AddDependency(asset, dependency data.GUID) bool {
	if asset == dependency {
		return false
	}
	if !asset.IsValid() || !dependency.IsValid() {
		return false
	}

	if g.forward[asset] == nil {
		g.forward[asset] = make(map[data.GUID]struct{})
	}
	g.forward[asset][dependency] = struct{}{}

	if g.reverse[dependency] == nil {
		g.reverse[dependency] = make(map[data.GUID]struct{})
	}
	g.reverse[dependency][asset] = struct{}{}

	return true
}

// RemoveDependency removes a single edge from both directional maps.
// Empty sets are dropped so the maps never hold dangling entries.
func (g *DependencyGraph) RemoveDependency(asset, dependency data.GUID) {
	if deps := g.forward[asset]; deps != nil {
		delete(deps, dependency)
		if len(deps) == 0 {
			delete(g.forward, asset)
		}
	}

	if dependents := g.reverse[dependency]; dependents != nil {
		delete(dependents, asset)
		if len(dependents) == 0 {
			delete(g.reverse, dependency)
		}
	}
}

// RemoveAll drops every edge touching the asset, as a source and as a
// target, keeping both maps consistent.
func (g *DependencyGraph) RemoveAll(asset data.GUID) {
	for dependency := range g.forward[asset] {
		g.RemoveDependency(asset, dependency)
	}

	for dependent := range g.reverse[asset] {
		g.RemoveDependency(dependent, asset)
	}
}

// DirectDependencies returns the assets this asset directly requires.
// Absent keys yield an empty slice.
func (g *DependencyGraph) DirectDependencies(asset data.GUID) []data.GUID {
	return setToSlice(g.forward[asset])
}

// DirectDependents returns the assets that directly require this one.
func (g *DependencyGraph) DirectDependents(asset data.GUID) []data.GUID {
	return setToSlice(g.reverse[asset])
}

// AllDependencies returns the dependency closure of asset. When
// recursive is false it matches DirectDependencies. The visited set
// guarantees termination in cyclic graphs; result order is
// unspecified and the asset itself is never included.
func (g *DependencyGraph) AllDependencies(asset data.GUID, recursive bool) []data.GUID {
	if !recursive {
		return g.DirectDependencies(asset)
	}
	return g.collect(asset, g.forward)
}

// AllDependents returns the dependent closure of asset.
func (g *DependencyGraph) AllDependents(asset data.GUID, recursive bool) []data.GUID {
	if !recursive {
		return g.DirectDependents(asset)
	}
	return g.collect(asset, g.reverse)
}

func (g *DependencyGraph) collect(start data.GUID, edges map[data.GUID]map[data.GUID]struct{}) []data.GUID {
	visited := map[data.GUID]struct{}{start: {}}
	var result []data.GUID

	stack := setToSlice(edges[start])
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		result = append(result, current)

		for next := range edges[current] {
			if _, seen := visited[next]; !seen {
				stack = append(stack, next)
			}
		}
	}

	return result
}

// HasCycle reports whether any cycle is reachable from asset, using a
// white/grey/black DFS: revisiting a grey node along the current path
// means a back edge exists.
func (g *DependencyGraph) HasCycle(asset data.GUID) bool {
	const (
		grey  = 1
		black = 2
	)
	colors := make(map[data.GUID]int)

	var visit func(id data.GUID) bool
	visit = func(id data.GUID) bool {
		colors[id] = grey

		for next := range g.forward[id] {
			switch colors[next] {
			case grey:
				return true
			case black:
				continue
			default:
				if visit(next) {
					return true
				}
			}
		}

		colors[id] = black
		return false
	}

	return visit(asset)
}

// TopologicalLoadOrder orders the given subset so that every asset's
// dependencies within the subset come before it (Kahn's algorithm with
// in-degrees counted over subset-internal edges only).
//
// When a cycle inside the subset prevents a complete ordering, the
// input is returned unchanged and ok is false, so callers can react
// without parsing the result.
func (g *DependencyGraph) TopologicalLoadOrder(subset []data.GUID) (ordered []data.GUID, ok bool) {
	member := make(map[data.GUID]struct{}, len(subset))
	for _, id := range subset {
		member[id] = struct{}{}
	}

	inDegree := make(map[data.GUID]int, len(subset))
	for _, id := range subset {
		count := 0
		for dependency := range g.forward[id] {
			if _, inside := member[dependency]; inside {
				count++
			}
		}
		inDegree[id] = count
	}

	var queue []data.GUID
	for _, id := range subset {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	ordered = make([]data.GUID, 0, len(subset))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		ordered = append(ordered, current)

		for dependent := range g.reverse[current] {
			if _, inside := member[dependent]; !inside {
				continue
			}
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(ordered) != len(subset) {
		return append([]data.GUID(nil), subset...), false
	}

	return ordered, true
}

// Snapshot returns a copy of the forward-edge map, used for
// persistence; reverse edges are rebuilt on Restore.
func (g *DependencyGraph) Snapshot() map[data.GUID][]data.GUID {
	edges := make(map[data.GUID][]data.GUID, len(g.forward))
	for asset, deps := range g.forward {
		edges[asset] = setToSlice(deps)
	}

	return edges
}

// Restore replaces the graph with the given forward edges, rebuilding
// the reverse map. Self-loops in the input are skipped.
func (g *DependencyGraph) Restore(edges map[data.GUID][]data.GUID) {
	g.forward = make(map[data.GUID]map[data.GUID]struct{}, len(edges))
	g.reverse = make(map[data.GUID]map[data.GUID]struct{})

	for asset, deps := range edges {
		for _, dependency := range deps {
			g.AddDependency(asset, dependency)
		}
	}
}

// Validate asserts that the forward and reverse maps are exact
// mirrors. Intended for tests and diagnostics, not the hot path.
func (g *DependencyGraph) Validate() error {
	for asset, deps := range g.forward {
		for dependency := range deps {
			if _, exists := g.reverse[dependency][asset]; !exists {
				return fmt.Errorf("%w: %s -> %s missing reverse entry", ErrGraphMismatch, asset, dependency)
			}
		}
	}

	for dependency, dependents := range g.reverse {
		for asset := range dependents {
			if _, exists := g.forward[asset][dependency]; !exists {
				return fmt.Errorf("%w: %s <- %s missing forward entry", ErrGraphMismatch, dependency, asset)
			}
		}
	}

	return nil
}

func setToSlice(set map[data.GUID]struct{}) []data.GUID {
	if len(set) == 0 {
		return nil
	}

	slice := make([]data.GUID, 0, len(set))
	for id := range set {
		slice = append(slice, id)
	}

	return slice
}

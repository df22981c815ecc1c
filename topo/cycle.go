package topo

import (
	"sort"

	"github.com/stokaro/ptahdiff/change"
)

// kahn runs a deterministic Kahn's-algorithm topological sort over n
// nodes and the given edges, always picking the smallest-indexed
// zero-in-degree node next so output order is reproducible across runs
// given the same input (spec §4.3's sort stability requirement).
func kahn(n int, edges []edge) ([]int, error) {
	adj := make([][]int, n)
	indeg := make([]int, n)
	for _, e := range edges {
		adj[e.source] = append(adj[e.source], e.target)
		indeg[e.target]++
	}

	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}
	sort.Ints(ready)

	order := make([]int, 0, n)
	for len(ready) > 0 {
		// Pop smallest.
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		var newlyReady []int
		for _, to := range adj[next] {
			indeg[to]--
			if indeg[to] == 0 {
				newlyReady = append(newlyReady, to)
			}
		}
		if len(newlyReady) > 0 {
			ready = append(ready, newlyReady...)
			sort.Ints(ready)
		}
	}

	if len(order) != n {
		return nil, &InternalSortError{Remaining: n - len(order)}
	}
	return order, nil
}

// breakCycles repeatedly finds a cycle in the current edge set and, if
// the cycle contains at least one soft edge, removes all soft edges
// participating in it and tries again. If the same cycle (by rotation-
// normalized node signature) reappears after a removal pass, or a cycle
// is found with no soft edge to remove, the cycle is unbreakable and a
// CycleError is returned (spec §4.3 "Cycle detection and breaking").
func breakCycles(changes []*change.Change, edges []edge) ([]edge, error) {
	seenSignatures := make(map[string]bool)

	for {
		n := len(changes)
		cyc := findCycle(n, edges)
		if cyc == nil {
			return edges, nil
		}

		sig := cycleSignature(cyc)
		cycleEdges := edgesWithinCycle(edges, cyc)

		var softRemoved bool
		kept := edges[:0:0]
		for _, e := range edges {
			if inCycleEdgeSet(e, cycleEdges) && e.soft {
				softRemoved = true
				continue
			}
			kept = append(kept, e)
		}

		if !softRemoved {
			return nil, &CycleError{
				Changes:        describeNodes(changes, cyc),
				SurvivingEdges: describeEdges(changes, cycleEdges),
			}
		}
		if seenSignatures[sig] {
			return nil, &CycleError{
				Changes:        describeNodes(changes, cyc),
				SurvivingEdges: describeEdges(changes, cycleEdges),
			}
		}
		seenSignatures[sig] = true
		edges = kept
	}
}

// findCycle does an iterative (non-recursive) DFS over the node graph
// and returns the node sequence of the first cycle it finds, or nil if
// the graph is acyclic. Iterative to avoid recursion depth concerns on
// large migrations.
func findCycle(n int, edges []edge) []int {
	adj := make([][]int, n)
	for _, e := range edges {
		adj[e.source] = append(adj[e.source], e.target)
	}
	for _, neighbors := range adj {
		sort.Ints(neighbors)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, n)

	type frame struct {
		node    int
		nextIdx int
	}

	for start := 0; start < n; start++ {
		if color[start] != white {
			continue
		}
		stack := []frame{{node: start}}
		path := []int{start}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.nextIdx >= len(adj[top.node]) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}
			next := adj[top.node][top.nextIdx]
			top.nextIdx++

			switch color[next] {
			case white:
				color[next] = gray
				stack = append(stack, frame{node: next})
				path = append(path, next)
			case gray:
				// Found a back edge to an ancestor: extract the cycle from
				// path starting at next's position.
				for i, node := range path {
					if node == next {
						cyc := make([]int, len(path)-i)
						copy(cyc, path[i:])
						return cyc
					}
				}
			case black:
				// Already fully explored, not part of any cycle through here.
			}
		}
	}
	return nil
}

// cycleSignature normalizes a cycle's node list by rotating to start at
// its smallest index, so the same cycle found twice (possibly starting
// from a different node) compares equal.
func cycleSignature(cyc []int) string {
	minIdx := 0
	for i, v := range cyc {
		if v < cyc[minIdx] {
			minIdx = i
		}
	}
	rotated := make([]int, len(cyc))
	for i := range cyc {
		rotated[i] = cyc[(minIdx+i)%len(cyc)]
	}
	buf := make([]byte, 0, len(rotated)*6)
	for _, v := range rotated {
		buf = appendInt(buf, v)
		buf = append(buf, ',')
	}
	return string(buf)
}

func appendInt(buf []byte, v int) []byte {
	if v == 0 {
		return append(buf, '0')
	}
	start := len(buf)
	for v > 0 {
		buf = append(buf, byte('0'+v%10))
		v /= 10
	}
	// reverse the digits just appended
	end := len(buf) - 1
	for i, j := start, end; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

func edgesWithinCycle(edges []edge, cyc []int) []edge {
	inCycle := make(map[int]bool, len(cyc))
	for _, n := range cyc {
		inCycle[n] = true
	}
	var out []edge
	for _, e := range edges {
		if inCycle[e.source] && inCycle[e.target] {
			out = append(out, e)
		}
	}
	return out
}

func inCycleEdgeSet(e edge, set []edge) bool {
	for _, c := range set {
		if c.source == e.source && c.target == e.target {
			return true
		}
	}
	return false
}

func describeNodes(changes []*change.Change, idxs []int) []string {
	out := make([]string, len(idxs))
	for i, idx := range idxs {
		out[i] = changes[idx].String()
	}
	return out
}

func describeEdges(changes []*change.Change, edges []edge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = changes[e.source].String() + " -> " + changes[e.target].String() + " (" + string(e.origin) + ": " + e.reason + ")"
	}
	return out
}

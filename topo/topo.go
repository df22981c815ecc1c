// Package topo implements the phased dependency sort (spec §4.3): a
// two-pass ordering engine that turns an unordered, logically pre-sorted
// change list into a total order honoring PostgreSQL's dependency rules,
// detecting and heuristically breaking cycles along the way.
//
// Grounded on the index-based Kahn's-algorithm shape used by the pack's
// pgschema internal/diff/topological.go (deterministic queue ordering,
// explicit cycle-breaking pass over a bounded iteration count),
// generalized from "tables only, FK edges only" to the full constraint
// model spec.md §4.3 describes: catalog + explicit + custom constraint
// origins, two independently-sorted phases selecting their catalog side,
// and soft-edge cycle breaking with signature tracking so a genuinely
// unbreakable cycle is reported rather than looped on forever.
package topo

import (
	"fmt"
	"sort"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// edgeOrigin tags where a constraint came from, purely for error
// messages and soft-edge eligibility.
type edgeOrigin string

const (
	originCatalog  edgeOrigin = "catalog"
	originExplicit edgeOrigin = "explicit"
	originCustom   edgeOrigin = "custom"
)

// edge is a directed ordering requirement: source must run before
// target, where both are indices into the phase's change slice.
type edge struct {
	source, target int
	origin         edgeOrigin
	reason         string
	soft           bool
}

// CustomRule generates additional ordering constraints for one phase's
// change set, given the phase's changes and the stable-ID index built
// over them. Rules run after catalog and explicit constraints are
// assembled and may add edges using any index found in producers or
// consumers; edges referencing an ID absent from both maps are silently
// dropped (the ID describes something outside this phase).
type CustomRule func(changes []*change.Change, producers, consumers map[stableid.ID][]int) []RuleEdge

// RuleEdge is the output of a CustomRule: "everything that creates
// Before must precede everything that creates or requires After".
type RuleEdge struct {
	Before, After stableid.ID
	Soft          bool
	Reason        string
}

// CycleError reports a dependency cycle the sort could not linearize
// after exhausting soft-edge removal. Fatal to planning (spec §7).
type CycleError struct {
	Changes      []string // description of each change participating in the cycle
	SurvivingEdges []string // hard edges that remained part of the cycle
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving %d changes could not be linearized; surviving hard edges: %v", len(e.Changes), e.SurvivingEdges)
}

// InternalSortError signals a bug in the cycle-breaking pass: Kahn's
// algorithm found no zero-in-degree node while nodes remained, even
// though the prior pass reported no cycle.
type InternalSortError struct {
	Remaining int
}

func (e *InternalSortError) Error() string {
	return fmt.Sprintf("internal error: dependency sort stalled with %d nodes remaining and no cycle reported", e.Remaining)
}

// Sort partitions changes into the drop and create/alter phases,
// topologically sorts each independently against its catalog side
// (source for drops, target for creates/alters), and returns the
// concatenation: drop phase first, create/alter phase second, matching
// spec §4.2/§4.3's phase ordering and the "Phase split" testable
// property (no drop appears after any create/alter).
func Sort(changes []*change.Change, source, target *catalog.Catalog, rules []CustomRule) ([]*change.Change, error) {
	var dropPhase, createAlterPhase []*change.Change
	for _, c := range changes {
		if c.Operation() == change.OpDrop {
			dropPhase = append(dropPhase, c)
		} else {
			createAlterPhase = append(createAlterPhase, c)
		}
	}

	sortedDrop, err := sortPhase(dropPhase, source, true, rules)
	if err != nil {
		return nil, err
	}
	sortedCreateAlter, err := sortPhase(createAlterPhase, target, false, rules)
	if err != nil {
		return nil, err
	}

	out := make([]*change.Change, 0, len(changes))
	out = append(out, sortedDrop...)
	out = append(out, sortedCreateAlter...)
	return out, nil
}

func sortPhase(changes []*change.Change, cat *catalog.Catalog, isDrop bool, rules []CustomRule) ([]*change.Change, error) {
	if len(changes) <= 1 {
		return changes, nil
	}

	producers, consumers := buildIndexes(changes, isDrop)
	edges := assembleEdges(changes, cat, producers, consumers, isDrop, rules)
	edges = dedupeEdges(edges)

	edges, err := breakCycles(changes, edges)
	if err != nil {
		return nil, err
	}

	order, err := kahn(len(changes), edges)
	if err != nil {
		return nil, err
	}

	out := make([]*change.Change, len(order))
	for i, idx := range order {
		out[i] = changes[idx]
	}
	return out, nil
}

// buildIndexes builds producers[id] = indices of changes creating id, and
// consumers[id] = indices of changes explicitly requiring id. In the
// drop phase, "creates" is extended to include "drops" (spec §4.3 step 1)
// since a drop phase change's defining act is removing an id, and other
// drop-phase changes may need to run before or after that removal.
func buildIndexes(changes []*change.Change, isDrop bool) (producers, consumers map[stableid.ID][]int) {
	producers = make(map[stableid.ID][]int)
	consumers = make(map[stableid.ID][]int)
	for i, c := range changes {
		ids := c.Creates()
		if isDrop {
			ids = append(append([]stableid.ID{}, ids...), c.Drops()...)
		}
		for _, id := range ids {
			producers[id] = append(producers[id], i)
		}
		for _, id := range c.Requires() {
			consumers[id] = append(consumers[id], i)
		}
	}
	return
}

func assembleEdges(changes []*change.Change, cat *catalog.Catalog, producers, consumers map[stableid.ID][]int, isDrop bool, rules []CustomRule) []edge {
	var edges []edge

	// Catalog-origin constraints: for each PgDependRow(dep, ref), every
	// change creating dep or requiring dep must follow every change
	// creating ref. In the drop phase the edge direction inverts so
	// drops run in reverse dependency order (spec §4.3 "Graph assembly"
	// step 2).
	for _, row := range cat.DependRows {
		if !cat.Exists(row.Dependent) || !cat.Exists(row.Referenced) {
			continue // unknown stable IDs describe pre-existing infrastructure; silently dropped
		}
		depIdxs := append(append([]int{}, producers[row.Dependent]...), consumers[row.Dependent]...)
		refIdxs := producers[row.Referenced]
		if len(depIdxs) == 0 || len(refIdxs) == 0 {
			continue
		}
		soft := row.DepType == catalog.DepNormal && row.Dependent.Kind() == "table" && row.Referenced.Kind() == "table"
		for _, refIdx := range refIdxs {
			for _, depIdx := range depIdxs {
				if refIdx == depIdx {
					continue
				}
				src, dst := refIdx, depIdx
				if isDrop {
					src, dst = depIdx, refIdx
				}
				edges = append(edges, edge{source: src, target: dst, origin: originCatalog, reason: "pg_depend", soft: soft})
			}
		}
	}

	// Explicit-origin constraints: for each change C and each id in
	// C.Requires(), every change creating that id must precede C.
	for i, c := range changes {
		for _, id := range c.Requires() {
			for _, producerIdx := range producers[id] {
				if producerIdx == i {
					continue
				}
				edges = append(edges, edge{source: producerIdx, target: i, origin: originExplicit, reason: string(id)})
			}
		}
	}

	// Custom-origin constraints.
	for _, rule := range rules {
		for _, re := range rule(changes, producers, consumers) {
			beforeIdxs := producers[re.Before]
			afterIdxs := append(append([]int{}, producers[re.After]...), consumers[re.After]...)
			for _, b := range beforeIdxs {
				for _, a := range afterIdxs {
					if a == b {
						continue
					}
					edges = append(edges, edge{source: b, target: a, origin: originCustom, reason: re.Reason, soft: re.Soft})
				}
			}
		}
	}

	return edges
}

func dedupeEdges(edges []edge) []edge {
	seen := make(map[[2]int]int, len(edges))
	out := edges[:0:0]
	for _, e := range edges {
		key := [2]int{e.source, e.target}
		if idx, ok := seen[key]; ok {
			// Keep the hard edge if any duplicate is hard, so breaking
			// passes never discard a hard constraint because a softer
			// duplicate happened to be recorded first.
			if out[idx].soft && !e.soft {
				out[idx] = e
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].source != out[j].source {
			return out[i].source < out[j].source
		}
		return out[i].target < out[j].target
	})
	return out
}

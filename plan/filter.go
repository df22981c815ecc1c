package plan

import (
	"fmt"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// Predicate decides whether to keep a change. Returning false excludes
// it, which in turn may exclude other changes that transitively depend
// on something only the excluded change creates (spec §4.4 "Filter
// cascading").
type Predicate func(c *change.Change) bool

// FilterCascadeOverflow signals the cascade fixpoint failed to converge
// within |changes| iterations — an internal bug, per spec §7, since the
// dependency graph is finite and acyclic by the time plan.Build runs
// (topo has already rejected any cycle).
type FilterCascadeOverflow struct {
	Iterations int
}

func (e *FilterCascadeOverflow) Error() string {
	return fmt.Sprintf("filter cascade did not converge after %d iterations", e.Iterations)
}

// Filter applies pred to changes and cascades exclusion transitively:
// if change X is excluded, any change requiring an id created only by
// X — directly via Requires(), or indirectly via a catalog dependency
// row naming an id X creates as the referenced side — is excluded too.
// source and target supply the pg_depend facts; either may be nil if
// the caller only has one side available.
func Filter(changes []*change.Change, pred Predicate, source, target *catalog.Catalog) ([]*change.Change, error) {
	excluded := make([]bool, len(changes))
	for i, c := range changes {
		excluded[i] = !pred(c)
	}

	producers := make(map[stableid.ID][]int, len(changes))
	for i, c := range changes {
		for _, id := range c.Creates() {
			producers[id] = append(producers[id], i)
		}
	}

	dependsOn := buildDependsOn(source, target)

	maxIterations := len(changes) + 1
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, c := range changes {
			if excluded[i] {
				continue
			}
			for _, reqID := range effectiveRequires(c, dependsOn) {
				if dependsOnExcludedProducer(reqID, producers, excluded) {
					excluded[i] = true
					changed = true
					break
				}
			}
		}
		if !changed {
			out := make([]*change.Change, 0, len(changes))
			for i, c := range changes {
				if !excluded[i] {
					out = append(out, c)
				}
			}
			return out, nil
		}
	}
	return nil, &FilterCascadeOverflow{Iterations: maxIterations}
}

// effectiveRequires extends a change's explicit Requires() with the
// referenced side of every catalog dependency row whose dependent is an
// id the change itself creates: "creating D, which the catalog says
// depends on R, requires R to exist" is a constraint the diff layer
// never had to spell out explicitly, but the filter cascade still has
// to honor it.
func effectiveRequires(c *change.Change, dependsOn map[stableid.ID][]stableid.ID) []stableid.ID {
	out := append([]stableid.ID{}, c.Requires()...)
	for _, id := range c.Creates() {
		out = append(out, dependsOn[id]...)
	}
	return out
}

func dependsOnExcludedProducer(id stableid.ID, producers map[stableid.ID][]int, excluded []bool) bool {
	producerIdxs, ok := producers[id]
	if !ok || len(producerIdxs) == 0 {
		return false
	}
	for _, idx := range producerIdxs {
		if !excluded[idx] {
			return false // at least one surviving producer, so the requirement is still satisfiable
		}
	}
	return true
}

func buildDependsOn(source, target *catalog.Catalog) map[stableid.ID][]stableid.ID {
	out := make(map[stableid.ID][]stableid.ID)
	add := func(cat *catalog.Catalog) {
		if cat == nil {
			return
		}
		for _, row := range cat.DependRows {
			out[row.Dependent] = append(out[row.Dependent], row.Referenced)
		}
	}
	add(source)
	add(target)
	return out
}

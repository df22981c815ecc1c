// Package presort implements the logical pre-sort (spec §4.2): a stable,
// deterministic grouping pass that affects readability and tie-breaking
// only. Correctness of the final order is guaranteed entirely by package
// topo; this pass exists so that, among statements topo considers
// interchangeable, the output reads the way a human would write a
// migration by hand.
package presort

import (
	"sort"

	"github.com/stokaro/ptahdiff/change"
)

// Phase is one of the two buckets every change is partitioned into
// before either sort runs.
type Phase int

const (
	PhaseDrop Phase = iota
	PhaseCreateAlter
)

func phaseOf(c *change.Change) Phase {
	if c.Operation() == change.OpDrop {
		return PhaseDrop
	}
	return PhaseCreateAlter
}

// kindRank orders object kinds the way they typically nest
// dependency-wise: roles and extensions first (nothing in a fresh
// database can exist without them), default privileges just before
// tables, dependent objects (triggers, policies, ACLs, comments) last.
// This is a heuristic tie-
// breaker only — topo.Sort is what actually enforces correctness when
// this ordering is wrong for a particular schema.
var kindRank = map[string]int{
	"role":             0,
	"extension":        1,
	"language":         2,
	"schema":           3,
	"type":             4,
	"defaultprivilege": 5,
	"table":            6,
	"column":           7,
	"constraint":       8,
	"sequence":         9,
	"index":            10,
	"view":             11,
	"matview":          12,
	"function":         13,
	"procedure":        14,
	"trigger":          15,
	"policy":           16,
	"server":           17,
	"usermapping":      18,
	"publication":      19,
	"subscription":     20,
	"eventtrigger":     21,
	"acl":              22,
	"comment":          23,
}

func rankOf(c *change.Change) int {
	if r, ok := kindRank[c.ObjectKind]; ok {
		return r
	}
	return len(kindRank)
}

var scopeRank = map[change.Scope]int{
	change.ScopeObject:    0,
	change.ScopeComment:   1,
	change.ScopePrivilege: 2,
}

// Group performs the stable, deterministic logical pre-sort described in
// spec §4.2: phase, then object kind rank, then schema name (with
// "public" first on ties), then parent object, then scope.
func Group(changes []*change.Change) []*change.Change {
	out := make([]*change.Change, len(changes))
	copy(out, changes)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]

		if pa, pb := phaseOf(a), phaseOf(b); pa != pb {
			return pa < pb
		}
		if ra, rb := rankOf(a), rankOf(b); ra != rb {
			return ra < rb
		}
		if sa, sb := schemaKey(a.SchemaName), schemaKey(b.SchemaName); sa != sb {
			return sa < sb
		}
		if a.Parent != b.Parent {
			return a.Parent < b.Parent
		}
		return scopeRank[a.Scope()] < scopeRank[b.Scope()]
	})
	return out
}

// schemaKey maps "public" to the empty string so it sorts first among
// ties, per spec §4.2's "with public conventionally first if tied".
func schemaKey(name string) string {
	if name == "public" {
		return ""
	}
	return name
}

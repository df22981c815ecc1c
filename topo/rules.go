package topo

import (
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// DefaultPrivilegesPrecedeCreates is the custom rule spec §4.3 calls out
// by name: ALTER DEFAULT PRIVILEGES changes must run before any change
// that creates an object in the affected schema, since default
// privileges apply only to objects created after they are set. A
// default-privilege grant has no stable-ID dependency on the objects it
// will someday affect, so catalog and explicit edges can't express this
// — it is registered here as a custom rule instead. Scoped to same-
// schema object creations (or, for a schema-wide default privilege with
// no schema named, to every creation in the phase) rather than to the
// specific object type, since Change does not carry the PostgreSQL
// object-type granularity (TABLES vs SEQUENCES vs FUNCTIONS) that a
// tighter rule would need.
func DefaultPrivilegesPrecedeCreates(changes []*change.Change, producers, consumers map[stableid.ID][]int) []RuleEdge {
	var out []RuleEdge
	for i, c := range changes {
		if c.ObjectKind != "defaultprivilege" || c.Operation() != change.OpCreate {
			continue
		}
		before := firstOrZero(c.Creates())
		if before == "" {
			continue
		}
		for j, other := range changes {
			if j == i || other.ObjectKind == "defaultprivilege" || other.Operation() == change.OpDrop {
				continue
			}
			if c.SchemaName != "" && other.SchemaName != c.SchemaName {
				continue
			}
			after := firstOrZero(other.Creates())
			if after == "" {
				continue
			}
			out = append(out, RuleEdge{
				Before: before,
				After:  after,
				Reason: "default privilege must precede objects it governs",
			})
		}
	}
	return out
}

func firstOrZero(ids []stableid.ID) stableid.ID {
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// DefaultRules returns the built-in custom rule set every caller should
// register unless it has a specific reason not to (e.g. a test isolating
// one rule at a time).
func DefaultRules() []CustomRule {
	return []CustomRule{
		DefaultPrivilegesPrecedeCreates,
	}
}

package diff

import (
	"fmt"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// DefaultPrivileges implements the per-kind diff for ALTER DEFAULT
// PRIVILEGES entries. Unlike object ACLs, a default-privilege entry's
// identity already includes grantor/schema/object-type/grantee, so
// "altered" here means the Privileges set differs; there is no other
// addressable property.
//
// Per spec §4.3's custom-constraint example, every grant (create) change
// this produces is given a custom ordering rule (registered in package
// topo) forcing it to precede all object creations in its scope —
// baseline privileges must be in place before the objects that inherit
// them are created. Revoke (drop) changes get no such rule.
func DefaultPrivileges(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.DefaultPrivileges, ctx.Target.DefaultPrivileges

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createDefaultPrivilege(id, t))
			continue
		}
		if !samePrivSet(s.Privileges, t.Privileges) {
			out = append(out, dropDefaultPrivilege(id, s))
			out = append(out, createDefaultPrivilege(id, t))
		}
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropDefaultPrivilege(id, s))
		}
	}
	return out
}

func samePrivSet(a, b []catalog.Privilege) bool {
	am, bm := privSet(a), privSet(b)
	if len(am) != len(bm) {
		return false
	}
	for k, v := range am {
		if bm[k] != v {
			return false
		}
	}
	return true
}

func defaultPrivilegeSQL(t *catalog.DefaultPrivilege, verb string) string {
	forSchema := ""
	if t.Schema != "" {
		forSchema = fmt.Sprintf(" IN SCHEMA %q", t.Schema)
	}
	kinds := make([]string, len(t.Privileges))
	for i, p := range t.Privileges {
		kinds[i] = p.Kind
	}
	toOrFrom := "TO"
	if verb == "REVOKE" {
		toOrFrom = "FROM"
	}
	return fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %q%s %s %s ON %s %s %q;",
		t.Grantor, forSchema, verb, joinPrivs(kinds), t.ObjectType, toOrFrom, t.Grantee)
}

func createDefaultPrivilege(id stableid.ID, t *catalog.DefaultPrivilege) *change.Change {
	requires := []stableid.ID{stableid.Role(t.Grantor), stableid.Role(t.Grantee)}
	if t.Schema != "" {
		requires = append(requires, stableid.Schema(t.Schema))
	}
	return change.New("AlterDefaultPrivilegesGrant", "defaultprivilege", change.OpCreate, change.ScopePrivilege, t.Schema, id,
		defaultPrivilegeSQL(t, "GRANT"), []stableid.ID{id}, nil, requires)
}

func dropDefaultPrivilege(id stableid.ID, s *catalog.DefaultPrivilege) *change.Change {
	return change.New("AlterDefaultPrivilegesRevoke", "defaultprivilege", change.OpDrop, change.ScopePrivilege, s.Schema, id,
		defaultPrivilegeSQL(s, "REVOKE"), nil, []stableid.ID{id}, nil)
}

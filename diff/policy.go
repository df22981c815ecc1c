package diff

import (
	"fmt"
	"strings"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// Policies implements the per-kind diff for CREATE/DROP/ALTER POLICY
// (row-level security). Permissive/restrictive and policy-for ("ALL",
// "SELECT", ...) have no ALTER form and force a replace; roles, USING,
// and WITH CHECK are all addressable via ALTER POLICY.
func Policies(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Policies, ctx.Target.Policies

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createPolicy(id, t))
			continue
		}
		if s.Permissive != t.Permissive || s.For != t.For {
			out = append(out, dropPolicy(id, s))
			out = append(out, createPolicy(id, t))
			continue
		}
		if !sameStrings(s.Roles, t.Roles) || s.UsingExpr != t.UsingExpr || s.WithCheckExpr != t.WithCheckExpr {
			out = append(out, alterPolicy(id, t))
		}
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropPolicy(id, s))
		}
	}
	return out
}

func policySig(id stableid.ID, name string) string {
	parts := id.Parts()
	if len(parts) < 2 {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("%q ON %s", name, qualified(stableid.Table(parts[0], parts[1]), parts[1]))
}

func createPolicy(id stableid.ID, t *catalog.Policy) *change.Change {
	parts := id.Parts()
	tableID := stableid.Table(parts[0], parts[1])
	permissive := "PERMISSIVE"
	if !t.Permissive {
		permissive = "RESTRICTIVE"
	}
	sql := fmt.Sprintf("CREATE POLICY %q ON %s AS %s FOR %s TO %s USING (%s)",
		t.Name, qualified(tableID, parts[1]), permissive, t.For, strings.Join(t.Roles, ", "), t.UsingExpr)
	if t.WithCheckExpr != "" {
		sql += fmt.Sprintf(" WITH CHECK (%s)", t.WithCheckExpr)
	}
	sql += ";"
	requires := []stableid.ID{tableID}
	for _, r := range t.Roles {
		if r != "public" {
			requires = append(requires, stableid.Role(r))
		}
	}
	return change.New("CreatePolicy", "policy", change.OpCreate, change.ScopeObject, parts[0], id, sql,
		[]stableid.ID{id}, nil, requires)
}

func alterPolicy(id stableid.ID, t *catalog.Policy) *change.Change {
	sql := fmt.Sprintf("ALTER POLICY %s TO %s USING (%s)", policySig(id, t.Name), strings.Join(t.Roles, ", "), t.UsingExpr)
	if t.WithCheckExpr != "" {
		sql += fmt.Sprintf(" WITH CHECK (%s)", t.WithCheckExpr)
	}
	sql += ";"
	return change.New("AlterPolicy", "policy", change.OpAlter, change.ScopeObject, schemaOf(id), id, sql,
		nil, nil, []stableid.ID{id})
}

func dropPolicy(id stableid.ID, s *catalog.Policy) *change.Change {
	return change.New("DropPolicy", "policy", change.OpDrop, change.ScopeObject, schemaOf(id), id,
		fmt.Sprintf("DROP POLICY %s;", policySig(id, s.Name)),
		nil, []stableid.ID{id}, nil)
}

// RLSToggles implements the per-table ENABLE/DISABLE/FORCE/NO FORCE ROW
// LEVEL SECURITY changes. This is modeled as part of the table diff in
// spec.md (RLS toggles are table properties) but kept in its own file
// because it is independently testable. RLS toggle changes create no
// stable IDs, and policy changes do not require them; the two are ordered
// only through the table they both reference.
func RLSToggles(id stableid.ID, s, t *catalog.Table) []*change.Change {
	var out []*change.Change
	if s.RLSEnabled != t.RLSEnabled {
		verb := "ENABLE"
		if !t.RLSEnabled {
			verb = "DISABLE"
		}
		out = append(out, change.New("AlterTable"+titleCase(verb)+"RLS", "table", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER TABLE %s %s ROW LEVEL SECURITY;", qualified(id, t.Name), verb),
			nil, nil, []stableid.ID{id}))
	}
	if s.RLSForced != t.RLSForced {
		verb := "FORCE"
		if !t.RLSForced {
			verb = "NO FORCE"
		}
		out = append(out, change.New("AlterTable"+titleCase(strings.ReplaceAll(verb, " ", ""))+"RLS", "table", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER TABLE %s %s ROW LEVEL SECURITY;", qualified(id, t.Name), verb),
			nil, nil, []stableid.ID{id}))
	}
	return out
}

package diff

import (
	"fmt"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// Roles implements the per-kind diff for CREATE/DROP/ALTER ROLE. Roles
// have no non-alterable fields — every attribute is addressable via
// ALTER ROLE — so altered entries always produce in-place alters, never
// a replace pair.
func Roles(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Roles, ctx.Target.Roles

	for id, t := range target {
		if ctx.Options.IsRoleIgnored(t.Name) {
			continue
		}
		s, existed := source[id]
		if !existed {
			out = append(out, createRole(id, t)...)
			continue
		}
		out = append(out, alterRole(id, s, t)...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok && !ctx.Options.IsRoleIgnored(s.Name) {
			out = append(out, change.New("DropRole", "role", change.OpDrop, change.ScopeObject, "", id,
				fmt.Sprintf("DROP ROLE %q;", s.Name),
				nil, []stableid.ID{id}, nil))
		}
	}
	return out
}

func createRole(id stableid.ID, t *catalog.Role) []*change.Change {
	var out []*change.Change
	createRoleChange := change.New("CreateRole", "role", change.OpCreate, change.ScopeObject, "", id,
		fmt.Sprintf("CREATE ROLE %q WITH %s;", t.Name, roleAttrs(t)),
		[]stableid.ID{id}, nil, nil)
	createRoleChange.StatementClass = "CREATE_ROLE"
	out = append(out, createRoleChange)
	for _, parent := range t.MemberOf {
		out = append(out, change.New("GrantRoleMembership", "role", change.OpCreate, change.ScopePrivilege, "", id,
			fmt.Sprintf("GRANT %q TO %q;", parent, t.Name),
			nil, nil, []stableid.ID{id, stableid.Role(parent)}))
	}
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnRole", "comment", change.OpCreate, change.ScopeComment, "", id,
			fmt.Sprintf("COMMENT ON ROLE %q IS %s;", t.Name, quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	return out
}

func alterRole(id stableid.ID, s, t *catalog.Role) []*change.Change {
	var out []*change.Change
	if roleAttrs(s) != roleAttrs(t) {
		out = append(out, change.New("AlterRole", "role", change.OpAlter, change.ScopeObject, "", id,
			fmt.Sprintf("ALTER ROLE %q WITH %s;", t.Name, roleAttrs(t)),
			nil, nil, []stableid.ID{id}))
	}
	added, removed := diffStrings(s.MemberOf, t.MemberOf)
	for _, parent := range added {
		out = append(out, change.New("GrantRoleMembership", "role", change.OpAlter, change.ScopePrivilege, "", id,
			fmt.Sprintf("GRANT %q TO %q;", parent, t.Name),
			nil, nil, []stableid.ID{id, stableid.Role(parent)}))
	}
	for _, parent := range removed {
		out = append(out, change.New("RevokeRoleMembership", "role", change.OpAlter, change.ScopePrivilege, "", id,
			fmt.Sprintf("REVOKE %q FROM %q;", parent, t.Name),
			nil, nil, []stableid.ID{id}))
	}
	if c := diffComment("ROLE", fmt.Sprintf("%q", t.Name), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
		out = append(out, c)
	}
	return out
}

func roleAttrs(r *catalog.Role) string {
	boolAttr := func(name string, v bool, pos, neg string) string {
		if v {
			return pos
		}
		return neg
	}
	return fmt.Sprintf("%s %s %s %s %s %s CONNECTION LIMIT %d",
		boolAttr("login", r.Login, "LOGIN", "NOLOGIN"),
		boolAttr("superuser", r.Superuser, "SUPERUSER", "NOSUPERUSER"),
		boolAttr("createdb", r.CreateDB, "CREATEDB", "NOCREATEDB"),
		boolAttr("createrole", r.CreateRole, "CREATEROLE", "NOCREATEROLE"),
		boolAttr("inherit", r.Inherit, "INHERIT", "NOINHERIT"),
		boolAttr("replication", r.Replication, "REPLICATION", "NOREPLICATION"),
		r.ConnectionLimit,
	)
}

func diffStrings(source, target []string) (added, removed []string) {
	sset := make(map[string]bool, len(source))
	for _, s := range source {
		sset[s] = true
	}
	tset := make(map[string]bool, len(target))
	for _, t := range target {
		tset[t] = true
		if !sset[t] {
			added = append(added, t)
		}
	}
	for _, s := range source {
		if !tset[s] {
			removed = append(removed, s)
		}
	}
	return
}

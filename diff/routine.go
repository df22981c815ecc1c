package diff

import (
	"fmt"
	"strings"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// routineNonAlterable names the routine fields PostgreSQL has no ALTER
// form for: language and body. Volatility and security are addressable
// via ALTER FUNCTION/PROCEDURE and are diffed in place. Routine ownership
// is not diffed.
//
// Surfaced as its own table per spec §9's open question about making the
// non-alterable-field set explicit rather than ad hoc.
var routineNonAlterable = map[string]bool{
	"language": true,
	"body":     true,
}

// Functions implements the per-kind diff for CREATE/DROP/ALTER FUNCTION.
func Functions(ctx *Context) []*change.Change {
	return diffRoutines(ctx.Source.Functions, ctx.Target.Functions, "FUNCTION", "CREATE_FUNCTION", true)
}

// Procedures implements the per-kind diff for CREATE/DROP/ALTER
// PROCEDURE.
func Procedures(ctx *Context) []*change.Change {
	return diffRoutines(ctx.Source.Procedures, ctx.Target.Procedures, "PROCEDURE", "CREATE_PROCEDURE", false)
}

func diffRoutines(source, target map[stableid.ID]*catalog.Routine, sqlKind, class string, hasReturn bool) []*change.Change {
	var out []*change.Change
	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createRoutine(id, t, sqlKind, class, hasReturn)...)
			continue
		}
		if t.Language != s.Language || t.Body != s.Body {
			out = append(out, dropRoutine(id, s, sqlKind)...)
			out = append(out, createRoutine(id, t, sqlKind, class, hasReturn)...)
			continue
		}
		out = append(out, alterRoutine(id, s, t, sqlKind)...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropRoutine(id, s, sqlKind)...)
		}
	}
	return out
}

func createRoutine(id stableid.ID, t *catalog.Routine, sqlKind, class string, hasReturn bool) []*change.Change {
	var out []*change.Change
	sig := qualified(id, t.Name) + "(" + strings.Join(t.Arguments, ", ") + ")"
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE %s %s", sqlKind, sig)
	if hasReturn && t.ReturnType != "" {
		fmt.Fprintf(&b, " RETURNS %s", t.ReturnType)
	}
	fmt.Fprintf(&b, " LANGUAGE %s", t.Language)
	if t.Volatility != "" {
		fmt.Fprintf(&b, " %s", t.Volatility)
	}
	if t.Security == "DEFINER" {
		b.WriteString(" SECURITY DEFINER")
	}
	fmt.Fprintf(&b, " AS $ptahdiff$%s$ptahdiff$;", t.Body)

	out = append(out, (&change.Change{
		Variant:        "Create" + titleCase(sqlKind),
		ObjectKind:     strings.ToLower(sqlKind),
		Op:             change.OpCreate,
		Scp:            change.ScopeObject,
		SchemaName:     schemaOf(id),
		Parent:         id,
		SQLText:        b.String(),
		CreatesIDs:     []stableid.ID{id},
		RequiresIDs:    []stableid.ID{stableid.Schema(schemaOf(id))},
		StatementClass: class,
	}))

	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOn"+titleCase(sqlKind), "comment", change.OpCreate, change.ScopeComment, schemaOf(id), id,
			fmt.Sprintf("COMMENT ON %s %s IS %s;", sqlKind, sig, quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	out = append(out, diffACL(routinePrivKind(sqlKind), sig, id, "", nil, t.ACL, []stableid.ID{id})...)
	return out
}

func dropRoutine(id stableid.ID, s *catalog.Routine, sqlKind string) []*change.Change {
	sig := qualified(id, s.Name) + "(" + strings.Join(s.Arguments, ", ") + ")"
	return []*change.Change{
		change.New("Drop"+titleCase(sqlKind), strings.ToLower(sqlKind), change.OpDrop, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("DROP %s %s;", sqlKind, sig),
			nil, []stableid.ID{id}, nil),
	}
}

func alterRoutine(id stableid.ID, s, t *catalog.Routine, sqlKind string) []*change.Change {
	var out []*change.Change
	sig := qualified(id, t.Name) + "(" + strings.Join(t.Arguments, ", ") + ")"
	if s.Volatility != t.Volatility || s.Security != t.Security {
		secClause := ""
		if t.Security == "DEFINER" {
			secClause = " SECURITY DEFINER"
		} else {
			secClause = " SECURITY INVOKER"
		}
		out = append(out, change.New("Alter"+titleCase(sqlKind), strings.ToLower(sqlKind), change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER %s %s %s%s;", sqlKind, sig, t.Volatility, secClause),
			nil, nil, []stableid.ID{id}))
	}
	if c := diffComment(sqlKind, sig, id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
		out = append(out, c)
	}
	out = append(out, diffACL(routinePrivKind(sqlKind), sig, id, "", s.ACL, t.ACL, []stableid.ID{id})...)
	return out
}

func routinePrivKind(sqlKind string) privilegeKind {
	if sqlKind == "PROCEDURE" {
		return PrivProcedure
	}
	return PrivFunction
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

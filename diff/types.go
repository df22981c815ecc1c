package diff

import (
	"fmt"
	"strings"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// typeNonAlterable names the per-kind fields that force a replace rather
// than an in-place alter: a composite type's attribute order/types, a
// domain's base type and check, and a range type's subtype all require
// dropping and recreating every dependent object, so ptahdiff treats them
// as non-alterable regardless of kind. Enum value addition is the one
// alterable-in-place case (ALTER TYPE ... ADD VALUE); value removal has
// no ALTER form and forces a drop and recreate of the type.
// typeReplaceRequired also replaces a domain whose NOT NULL or default
// differs.
var typeNonAlterable = map[string]bool{
	"enum.valuesRemoved": true,
	"domain.baseType":    true,
	"domain.check":       true,
	"composite.attrs":    true,
	"range.subtype":      true,
}

// Types implements the per-kind diff for CREATE/DROP/ALTER TYPE across
// all four PostgreSQL user-defined type kinds.
func Types(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Types, ctx.Target.Types

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createType(id, t)...)
			continue
		}
		if s.Kind != t.Kind || typeReplaceRequired(s, t) {
			out = append(out, dropType(id, s)...)
			out = append(out, createType(id, t)...)
			continue
		}
		if t.Kind == "enum" {
			added, removed := diffStrings(s.Values, t.Values)
			for _, v := range added {
				out = append(out, change.New("AlterTypeAddValue", "type", change.OpAlter, change.ScopeObject, schemaOf(id), id,
					fmt.Sprintf("ALTER TYPE %s ADD VALUE %s;", qualified(id, t.Name), quoteLiteral(v)),
					nil, nil, []stableid.ID{id}))
			}
			if len(removed) > 0 {
				out = append(out, change.New("Comment", "type", change.OpAlter, change.ScopeObject, schemaOf(id), id,
					fmt.Sprintf("-- WARNING: cannot remove enum values %v from %s without recreating the type", removed, t.Name),
					nil, nil, []stableid.ID{id}))
			}
		}
		if c := diffComment("TYPE", qualified(id, t.Name), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
			out = append(out, c)
		}
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropType(id, s)...)
		}
	}
	return out
}

func typeReplaceRequired(s, t *catalog.Type) bool {
	switch t.Kind {
	case "domain":
		return s.BaseType != t.BaseType || s.Check != t.Check || s.NotNull != t.NotNull || s.Default != t.Default
	case "composite":
		return !sameAttrs(s.Attrs, t.Attrs)
	case "range":
		return s.Subtype != t.Subtype
	default: // enum: only removal forces a replace, handled by caller via diffStrings
		_, removed := diffStrings(s.Values, t.Values)
		return len(removed) > 0
	}
}

func sameAttrs(a, b []catalog.Column) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].DataType != b[i].DataType {
			return false
		}
	}
	return true
}

func createType(id stableid.ID, t *catalog.Type) []*change.Change {
	var sql string
	switch t.Kind {
	case "enum":
		quoted := make([]string, len(t.Values))
		for i, v := range t.Values {
			quoted[i] = quoteLiteral(v)
		}
		sql = fmt.Sprintf("CREATE TYPE %s AS ENUM (%s);", qualified(id, t.Name), strings.Join(quoted, ", "))
	case "domain":
		sql = fmt.Sprintf("CREATE DOMAIN %s AS %s", qualified(id, t.Name), t.BaseType)
		if t.NotNull {
			sql += " NOT NULL"
		}
		if t.Default != "" {
			sql += fmt.Sprintf(" DEFAULT %s", t.Default)
		}
		if t.Check != "" {
			sql += fmt.Sprintf(" CHECK (%s)", t.Check)
		}
		sql += ";"
	case "composite":
		attrs := make([]string, len(t.Attrs))
		for i, a := range t.Attrs {
			attrs[i] = fmt.Sprintf("%q %s", a.Name, a.DataType)
		}
		sql = fmt.Sprintf("CREATE TYPE %s AS (%s);", qualified(id, t.Name), strings.Join(attrs, ", "))
	case "range":
		sql = fmt.Sprintf("CREATE TYPE %s AS RANGE (SUBTYPE = %s);", qualified(id, t.Name), t.Subtype)
	}
	out := []*change.Change{
		change.New("CreateType", "type", change.OpCreate, change.ScopeObject, schemaOf(id), id,
			sql, []stableid.ID{id}, nil, []stableid.ID{stableid.Schema(schemaOf(id))}),
	}
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnType", "comment", change.OpCreate, change.ScopeComment, schemaOf(id), id,
			fmt.Sprintf("COMMENT ON TYPE %s IS %s;", qualified(id, t.Name), quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	return out
}

func dropType(id stableid.ID, s *catalog.Type) []*change.Change {
	verb := "TYPE"
	if s.Kind == "domain" {
		verb = "DOMAIN"
	}
	return []*change.Change{
		change.New("Drop"+titleCase(verb), "type", change.OpDrop, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("DROP %s %s;", verb, qualified(id, s.Name)),
			nil, []stableid.ID{id}, nil),
	}
}

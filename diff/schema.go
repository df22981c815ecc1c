package diff

import (
	"fmt"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// Schemas implements the per-kind diff for CREATE/DROP/ALTER SCHEMA.
func Schemas(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Schemas, ctx.Target.Schemas

	for id, t := range target {
		if _, ok := source[id]; !ok {
			out = append(out, createSchema(id, t)...)
			continue
		}
		s := source[id]
		if s.Owner != t.Owner {
			out = append(out, change.New("AlterSchemaOwner", "schema", change.OpAlter, change.ScopeObject, t.Name, id,
				fmt.Sprintf("ALTER SCHEMA %q OWNER TO %q;", t.Name, t.Owner),
				nil, nil, []stableid.ID{id, stableid.Role(t.Owner)}))
		}
		if c := diffComment("SCHEMA", fmt.Sprintf("%q", t.Name), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
			out = append(out, c)
		}
		out = append(out, diffACL(PrivSchema, fmt.Sprintf("%q", t.Name), id, t.Owner, s.ACL, t.ACL, []stableid.ID{id})...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, change.New("DropSchema", "schema", change.OpDrop, change.ScopeObject, s.Name, id,
				fmt.Sprintf("DROP SCHEMA %q CASCADE;", s.Name),
				nil, []stableid.ID{id}, nil))
		}
	}
	return out
}

func createSchema(id stableid.ID, t *catalog.Schema) []*change.Change {
	var out []*change.Change
	out = append(out, change.New("CreateSchema", "schema", change.OpCreate, change.ScopeObject, t.Name, id,
		fmt.Sprintf("CREATE SCHEMA %q AUTHORIZATION %q;", t.Name, t.Owner),
		[]stableid.ID{id}, nil, []stableid.ID{stableid.Role(t.Owner)}))
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnSchema", "comment", change.OpCreate, change.ScopeComment, t.Name, id,
			fmt.Sprintf("COMMENT ON SCHEMA %q IS %s;", t.Name, quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	out = append(out, diffACL(PrivSchema, fmt.Sprintf("%q", t.Name), id, t.Owner, nil, t.ACL, []stableid.ID{id})...)
	return out
}

package diff

import (
	"fmt"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// Views implements the per-kind diff for CREATE/DROP VIEW. A view's
// query definition is non-alterable in the sense that PostgreSQL's
// CREATE OR REPLACE VIEW only tolerates appending columns, never
// changing existing column types or removing columns; ptahdiff takes the
// conservative, always-correct route and treats any definition change as
// a replace (drop+create), matching spec §4.1 step 4's "non-alterable
// fields force drop+create" policy applied to the one field a view has.
func Views(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Views, ctx.Target.Views

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createView(id, t)...)
			continue
		}
		if s.Definition != t.Definition {
			out = append(out, dropView(id, s)...)
			out = append(out, createView(id, t)...)
			continue
		}
		if c := diffComment("VIEW", qualified(id, t.Name), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
			out = append(out, c)
		}
		out = append(out, diffACL(PrivTable, qualified(id, t.Name), id, "", s.ACL, t.ACL, []stableid.ID{id})...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropView(id, s)...)
		}
	}
	return out
}

func createView(id stableid.ID, t *catalog.View) []*change.Change {
	var out []*change.Change
	out = append(out, change.New("CreateView", "view", change.OpCreate, change.ScopeObject, schemaOf(id), id,
		fmt.Sprintf("CREATE VIEW %s AS %s;", qualified(id, t.Name), t.Definition),
		[]stableid.ID{id}, nil, []stableid.ID{stableid.Schema(schemaOf(id))}))
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnView", "comment", change.OpCreate, change.ScopeComment, schemaOf(id), id,
			fmt.Sprintf("COMMENT ON VIEW %s IS %s;", qualified(id, t.Name), quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	out = append(out, diffACL(PrivTable, qualified(id, t.Name), id, "", nil, t.ACL, []stableid.ID{id})...)
	return out
}

func dropView(id stableid.ID, s *catalog.View) []*change.Change {
	return []*change.Change{
		change.New("DropView", "view", change.OpDrop, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("DROP VIEW %s;", qualified(id, s.Name)),
			nil, []stableid.ID{id}, nil),
	}
}

// MaterializedViews implements the per-kind diff for CREATE/DROP
// MATERIALIZED VIEW, same replace policy as Views.
func MaterializedViews(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.MaterializedViews, ctx.Target.MaterializedViews

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createMatView(id, t)...)
			continue
		}
		if s.Definition != t.Definition {
			out = append(out, dropMatView(id, s)...)
			out = append(out, createMatView(id, t)...)
			continue
		}
		if c := diffComment("MATERIALIZED VIEW", qualified(id, t.Name), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
			out = append(out, c)
		}
		out = append(out, diffACL(PrivTable, qualified(id, t.Name), id, "", s.ACL, t.ACL, []stableid.ID{id})...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropMatView(id, s)...)
		}
	}
	return out
}

func createMatView(id stableid.ID, t *catalog.MaterializedView) []*change.Change {
	withData := "WITH DATA"
	if !t.WithData {
		withData = "WITH NO DATA"
	}
	var out []*change.Change
	out = append(out, change.New("CreateMaterializedView", "matview", change.OpCreate, change.ScopeObject, schemaOf(id), id,
		fmt.Sprintf("CREATE MATERIALIZED VIEW %s AS %s %s;", qualified(id, t.Name), t.Definition, withData),
		[]stableid.ID{id}, nil, []stableid.ID{stableid.Schema(schemaOf(id))}))
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnMaterializedView", "comment", change.OpCreate, change.ScopeComment, schemaOf(id), id,
			fmt.Sprintf("COMMENT ON MATERIALIZED VIEW %s IS %s;", qualified(id, t.Name), quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	out = append(out, diffACL(PrivTable, qualified(id, t.Name), id, "", nil, t.ACL, []stableid.ID{id})...)
	return out
}

func dropMatView(id stableid.ID, s *catalog.MaterializedView) []*change.Change {
	return []*change.Change{
		change.New("DropMaterializedView", "matview", change.OpDrop, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("DROP MATERIALIZED VIEW %s;", qualified(id, s.Name)),
			nil, []stableid.ID{id}, nil),
	}
}

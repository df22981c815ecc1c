package diff

import (
	"fmt"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// Extensions implements the per-kind diff for CREATE/DROP/ALTER
// EXTENSION. Version is the only alterable property; schema changes for
// an extension require drop+create since relocating an extension's
// objects in place is not generally supported.
func Extensions(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Extensions, ctx.Target.Extensions

	for id, t := range target {
		if ctx.Options.IsExtensionIgnored(t.Name) {
			continue
		}
		s, existed := source[id]
		if !existed {
			out = append(out, createExtension(id, t)...)
			continue
		}
		if s.Schema != t.Schema {
			// Schema relocation is non-alterable for extensions: replace.
			out = append(out, dropExtension(id, s)...)
			out = append(out, createExtension(id, t)...)
			continue
		}
		if s.Version != t.Version {
			out = append(out, change.New("AlterExtensionUpdate", "extension", change.OpAlter, change.ScopeObject, t.Schema, id,
				fmt.Sprintf("ALTER EXTENSION %q UPDATE TO %q;", t.Name, t.Version),
				nil, nil, []stableid.ID{id}))
		}
		if c := diffComment("EXTENSION", fmt.Sprintf("%q", t.Name), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
			out = append(out, c)
		}
	}
	for id, s := range source {
		if ctx.Options.IsExtensionIgnored(s.Name) {
			continue
		}
		if _, ok := target[id]; !ok {
			out = append(out, dropExtension(id, s)...)
		}
	}
	return out
}

func createExtension(id stableid.ID, t *catalog.Extension) []*change.Change {
	var out []*change.Change
	sql := fmt.Sprintf("CREATE EXTENSION %q SCHEMA %q VERSION %q;", t.Name, t.Schema, t.Version)
	out = append(out, change.New("CreateExtension", "extension", change.OpCreate, change.ScopeObject, t.Schema, id,
		sql, []stableid.ID{id}, nil, []stableid.ID{stableid.Schema(t.Schema)}))
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnExtension", "comment", change.OpCreate, change.ScopeComment, t.Schema, id,
			fmt.Sprintf("COMMENT ON EXTENSION %q IS %s;", t.Name, quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	return out
}

func dropExtension(id stableid.ID, s *catalog.Extension) []*change.Change {
	return []*change.Change{
		change.New("DropExtension", "extension", change.OpDrop, change.ScopeObject, s.Schema, id,
			fmt.Sprintf("DROP EXTENSION %q;", s.Name),
			nil, []stableid.ID{id}, nil),
	}
}

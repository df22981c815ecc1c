package diff

import (
	"fmt"
	"strings"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// Indexes implements the per-kind diff for CREATE/DROP INDEX. No index
// property has an ALTER form (column list, method, predicate, uniqueness
// are all baked into one CREATE INDEX); any difference replaces. Index
// creation uses CONCURRENTLY so creating an index never blocks writers
// on the table it targets — the round-based applier's no-transaction
// design (spec §4.5) exists in part to make this safe.
func Indexes(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Indexes, ctx.Target.Indexes

	for id, t := range target {
		s, existed := source[id]
		if existed && indexEqual(s, t) {
			if c := diffComment("INDEX", qualified(id, t.Name), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
				out = append(out, c)
			}
			continue
		}
		if existed {
			out = append(out, dropIndex(id, s))
		}
		out = append(out, createIndex(id, t)...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropIndex(id, s))
		}
	}
	return out
}

func indexEqual(s, t *catalog.Index) bool {
	return s.Unique == t.Unique &&
		s.Method == t.Method &&
		s.Expression == t.Expression &&
		s.Predicate == t.Predicate &&
		sameStrings(s.Columns, t.Columns)
}

func createIndex(id stableid.ID, t *catalog.Index) []*change.Change {
	unique := ""
	if t.Unique {
		unique = "UNIQUE "
	}
	tableID := stableid.Table(schemaOf(id), t.Table)
	var sql string
	if t.Expression != "" {
		sql = strings.Replace(t.Expression, " INDEX ", " INDEX CONCURRENTLY ", 1) + ";"
	} else {
		sql = fmt.Sprintf("CREATE %sINDEX CONCURRENTLY %q ON %s USING %s (%s)",
			unique, t.Name, qualified(tableID, t.Table), t.Method, strings.Join(quoteAll(t.Columns), ", "))
		if t.Predicate != "" {
			sql += fmt.Sprintf(" WHERE %s", t.Predicate)
		}
		sql += ";"
	}
	out := []*change.Change{
		change.New("CreateIndex", "index", change.OpCreate, change.ScopeObject, schemaOf(id), id,
			sql, []stableid.ID{id}, nil, []stableid.ID{tableID}),
	}
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnIndex", "comment", change.OpCreate, change.ScopeComment, schemaOf(id), id,
			fmt.Sprintf("COMMENT ON INDEX %s IS %s;", qualified(id, t.Name), quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	return out
}

func dropIndex(id stableid.ID, s *catalog.Index) *change.Change {
	return change.New("DropIndex", "index", change.OpDrop, change.ScopeObject, schemaOf(id), id,
		fmt.Sprintf("DROP INDEX CONCURRENTLY %s;", qualified(id, s.Name)),
		nil, []stableid.ID{id}, nil)
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}

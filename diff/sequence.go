package diff

import (
	"fmt"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// Sequences implements the per-kind diff for CREATE/DROP/ALTER SEQUENCE.
// Every sequence property is alterable in place; OwnedBy changes use
// ALTER SEQUENCE ... OWNED BY.
func Sequences(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Sequences, ctx.Target.Sequences

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createSequence(id, t)...)
			continue
		}
		out = append(out, alterSequence(id, s, t)...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, change.New("DropSequence", "sequence", change.OpDrop, change.ScopeObject, schemaOf(id), id,
				fmt.Sprintf("DROP SEQUENCE %s;", qualified(id, s.Name)),
				nil, []stableid.ID{id}, nil).WithDataLoss(fmt.Sprintf("DROP SEQUENCE %s", s.Name)))
		}
	}
	return out
}

func createSequence(id stableid.ID, t *catalog.Sequence) []*change.Change {
	var out []*change.Change
	sql := fmt.Sprintf("CREATE SEQUENCE %s AS %s START WITH %d INCREMENT BY %d MINVALUE %d MAXVALUE %d %s;",
		qualified(id, t.Name), t.DataType, t.Start, t.Increment, t.MinValue, t.MaxValue, cycleClause(t.Cycle))
	requires := []stableid.ID{stableid.Schema(schemaOf(id))}
	if t.OwnedBy != "" {
		requires = append(requires, ownedByID(t.OwnedBy))
	}
	out = append(out, change.New("CreateSequence", "sequence", change.OpCreate, change.ScopeObject, schemaOf(id), id,
		sql, []stableid.ID{id}, nil, requires))
	if t.OwnedBy != "" {
		out = append(out, change.New("AlterSequenceOwnedBy", "sequence", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER SEQUENCE %s OWNED BY %s;", qualified(id, t.Name), t.OwnedBy),
			nil, nil, []stableid.ID{id, ownedByID(t.OwnedBy)}))
	}
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnSequence", "comment", change.OpCreate, change.ScopeComment, schemaOf(id), id,
			fmt.Sprintf("COMMENT ON SEQUENCE %s IS %s;", qualified(id, t.Name), quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	out = append(out, diffACL(PrivSequence, qualified(id, t.Name), id, "", nil, t.ACL, []stableid.ID{id})...)
	return out
}

func alterSequence(id stableid.ID, s, t *catalog.Sequence) []*change.Change {
	var out []*change.Change
	if s.DataType != t.DataType || s.Increment != t.Increment || s.MinValue != t.MinValue || s.MaxValue != t.MaxValue || s.Cycle != t.Cycle {
		out = append(out, change.New("AlterSequence", "sequence", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER SEQUENCE %s AS %s INCREMENT BY %d MINVALUE %d MAXVALUE %d %s;",
				qualified(id, t.Name), t.DataType, t.Increment, t.MinValue, t.MaxValue, cycleClause(t.Cycle)),
			nil, nil, []stableid.ID{id}))
	}
	if s.OwnedBy != t.OwnedBy {
		owned := "NONE"
		requires := []stableid.ID{id}
		if t.OwnedBy != "" {
			owned = t.OwnedBy
			requires = append(requires, ownedByID(t.OwnedBy))
		}
		out = append(out, change.New("AlterSequenceOwnedBy", "sequence", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER SEQUENCE %s OWNED BY %s;", qualified(id, t.Name), owned),
			nil, nil, requires))
	}
	if c := diffComment("SEQUENCE", qualified(id, t.Name), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
		out = append(out, c)
	}
	out = append(out, diffACL(PrivSequence, qualified(id, t.Name), id, "", s.ACL, t.ACL, []stableid.ID{id})...)
	return out
}

func cycleClause(cycle bool) string {
	if cycle {
		return "CYCLE"
	}
	return "NO CYCLE"
}

func ownedByID(ownedBy string) stableid.ID {
	// ownedBy is "schema.table.column"
	parts := splitDotted(ownedBy)
	if len(parts) != 3 {
		return stableid.ID("column:" + ownedBy)
	}
	return stableid.Column(parts[0], parts[1], parts[2])
}

func splitDotted(s string) []string {
	var parts []string
	cur := ""
	for _, r := range s {
		if r == '.' {
			parts = append(parts, cur)
			cur = ""
		} else {
			cur += string(r)
		}
	}
	parts = append(parts, cur)
	return parts
}

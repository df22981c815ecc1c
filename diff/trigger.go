package diff

import (
	"fmt"
	"strings"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// Triggers implements the per-kind diff for CREATE/DROP TRIGGER. Every
// field of a trigger (timing, events, level, function, condition) is
// baked into the single CREATE TRIGGER statement with no ALTER form
// beyond renaming, so any change replaces.
func Triggers(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Triggers, ctx.Target.Triggers

	for id, t := range target {
		s, existed := source[id]
		if existed && triggerEqual(s, t) {
			if c := diffComment("TRIGGER", triggerSig(id, t.Name), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
				out = append(out, c)
			}
			continue
		}
		if existed {
			out = append(out, dropTrigger(id, s)...)
		}
		out = append(out, createTrigger(id, t)...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropTrigger(id, s)...)
		}
	}
	return out
}

func triggerEqual(s, t *catalog.Trigger) bool {
	return s.Timing == t.Timing &&
		s.Level == t.Level &&
		s.Function == t.Function &&
		s.Condition == t.Condition &&
		sameStrings(s.Events, t.Events) &&
		sameStrings(s.Arguments, t.Arguments)
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func triggerSig(id stableid.ID, name string) string {
	parts := id.Parts()
	if len(parts) < 2 {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("%q ON %s", name, qualified(stableid.Table(parts[0], parts[1]), parts[1]))
}

func createTrigger(id stableid.ID, t *catalog.Trigger) []*change.Change {
	parts := id.Parts()
	tableID := stableid.Table(parts[0], parts[1])
	sql := fmt.Sprintf("CREATE TRIGGER %q %s %s ON %s FOR EACH %s %sEXECUTE FUNCTION %s(%s);",
		t.Name, t.Timing, strings.Join(t.Events, " OR "), qualified(tableID, parts[1]), t.Level,
		whenClause(t.Condition), t.Function, strings.Join(t.Arguments, ", "))
	out := []*change.Change{
		change.New("CreateTrigger", "trigger", change.OpCreate, change.ScopeObject, parts[0], id,
			sql, []stableid.ID{id}, nil, []stableid.ID{tableID, stableid.Function(parts[0], t.Function, 0)}),
	}
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnTrigger", "comment", change.OpCreate, change.ScopeComment, parts[0], id,
			fmt.Sprintf("COMMENT ON TRIGGER %s IS %s;", triggerSig(id, t.Name), quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	return out
}

func dropTrigger(id stableid.ID, s *catalog.Trigger) []*change.Change {
	return []*change.Change{
		change.New("DropTrigger", "trigger", change.OpDrop, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("DROP TRIGGER %s;", triggerSig(id, s.Name)),
			nil, []stableid.ID{id}, nil),
	}
}

func whenClause(cond string) string {
	if cond == "" {
		return ""
	}
	return fmt.Sprintf("WHEN (%s) ", cond)
}

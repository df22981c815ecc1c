package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// ForeignServers implements the per-kind diff for CREATE/DROP/ALTER
// SERVER. Options changed entirely via ALTER SERVER ... OPTIONS; FDW
// changes force a replace since the underlying wrapper can't be swapped
// in place.
func ForeignServers(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.ForeignServers, ctx.Target.ForeignServers

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createServer(id, t)...)
			continue
		}
		if s.FDW != t.FDW {
			out = append(out, dropServer(id, s))
			out = append(out, createServer(id, t)...)
			continue
		}
		if !sameOptionKeys(s.Options, t.Options) {
			out = append(out, change.New("AlterServerOptions", "server", change.OpAlter, change.ScopeObject, "", id,
				fmt.Sprintf("ALTER SERVER %q OPTIONS (%s);", t.Name, optionsClause(t.Options)),
				nil, nil, []stableid.ID{id}))
		}
		out = append(out, diffACL(PrivSchema, fmt.Sprintf("FOREIGN SERVER %q", t.Name), id, "", s.ACL, t.ACL, []stableid.ID{id})...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropServer(id, s))
		}
	}
	return out
}

func createServer(id stableid.ID, t *catalog.ForeignServer) []*change.Change {
	out := []*change.Change{
		change.New("CreateServer", "server", change.OpCreate, change.ScopeObject, "", id,
			fmt.Sprintf("CREATE SERVER %q FOREIGN DATA WRAPPER %q OPTIONS (%s);", t.Name, t.FDW, optionsClause(t.Options)),
			[]stableid.ID{id}, nil, nil),
	}
	out = append(out, diffACL(PrivSchema, fmt.Sprintf("FOREIGN SERVER %q", t.Name), id, "", nil, t.ACL, []stableid.ID{id})...)
	return out
}

func dropServer(id stableid.ID, s *catalog.ForeignServer) *change.Change {
	return change.New("DropServer", "server", change.OpDrop, change.ScopeObject, "", id,
		fmt.Sprintf("DROP SERVER %q CASCADE;", s.Name),
		nil, []stableid.ID{id}, nil)
}

func sameOptionKeys(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true // option *values* are masked and never compared, see catalog.Mask
}

func optionsClause(opts map[string]string) string {
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %s", k, quoteLiteral(opts[k]))
	}
	return strings.Join(parts, ", ")
}

// UserMappings implements CREATE/DROP/ALTER USER MAPPING. Any change to
// a masked-option set is, conservatively, treated as a replace: since the
// real values are never visible to the diff, an in-place ALTER risks
// silently dropping an option the target catalog still needs.
func UserMappings(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.UserMappings, ctx.Target.UserMappings

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createUserMapping(id, t))
			continue
		}
		if !sameOptionKeys(s.Options, t.Options) {
			out = append(out, dropUserMapping(id, s))
			out = append(out, createUserMapping(id, t))
		}
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, dropUserMapping(id, s))
		}
	}
	return out
}

func createUserMapping(id stableid.ID, t *catalog.UserMapping) *change.Change {
	return change.New("CreateUserMapping", "usermapping", change.OpCreate, change.ScopeObject, "", id,
		fmt.Sprintf("CREATE USER MAPPING FOR %q SERVER %q OPTIONS (%s);", t.User, t.Server, optionsClause(t.Options)),
		[]stableid.ID{id}, nil, []stableid.ID{stableid.ForeignServer(t.Server), stableid.Role(t.User)})
}

func dropUserMapping(id stableid.ID, s *catalog.UserMapping) *change.Change {
	return change.New("DropUserMapping", "usermapping", change.OpDrop, change.ScopeObject, "", id,
		fmt.Sprintf("DROP USER MAPPING FOR %q SERVER %q;", s.User, s.Server),
		nil, []stableid.ID{id}, nil)
}

// Subscriptions implements CREATE/DROP/ALTER SUBSCRIPTION. ConnInfo is
// masked at extraction (catalog.Mask) so it is never compared for real
// changes; only the publication list and enabled flag are diffed.
func Subscriptions(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Subscriptions, ctx.Target.Subscriptions

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createSubscription(id, t))
			continue
		}
		if !sameStrings(s.Publication, t.Publication) {
			out = append(out, change.New("AlterSubscriptionSetPublication", "subscription", change.OpAlter, change.ScopeObject, "", id,
				fmt.Sprintf("ALTER SUBSCRIPTION %q SET PUBLICATION %s;", t.Name, strings.Join(t.Publication, ", ")),
				nil, nil, []stableid.ID{id}))
		}
		if s.Enabled != t.Enabled {
			verb := "ENABLE"
			if !t.Enabled {
				verb = "DISABLE"
			}
			out = append(out, change.New("AlterSubscription"+titleCase(verb), "subscription", change.OpAlter, change.ScopeObject, "", id,
				fmt.Sprintf("ALTER SUBSCRIPTION %q %s;", t.Name, verb),
				nil, nil, []stableid.ID{id}))
		}
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, change.New("DropSubscription", "subscription", change.OpDrop, change.ScopeObject, "", id,
				fmt.Sprintf("DROP SUBSCRIPTION %q;", s.Name),
				nil, []stableid.ID{id}, nil))
		}
	}
	return out
}

func createSubscription(id stableid.ID, t *catalog.Subscription) *change.Change {
	c := change.New("CreateSubscription", "subscription", change.OpCreate, change.ScopeObject, "", id,
		fmt.Sprintf("CREATE SUBSCRIPTION %q CONNECTION %s PUBLICATION %s;", t.Name, quoteLiteral(t.ConnInfo), strings.Join(t.Publication, ", ")),
		[]stableid.ID{id}, nil, nil)
	c.StatementClass = "CREATE_SUBSCRIPTION"
	return c
}

// Publications implements CREATE/DROP/ALTER PUBLICATION.
func Publications(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Publications, ctx.Target.Publications

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createPublication(id, t))
			continue
		}
		if s.AllTables != t.AllTables || !sameStrings(s.Tables, t.Tables) {
			out = append(out, change.New("AlterPublicationSetTable", "publication", change.OpAlter, change.ScopeObject, "", id,
				fmt.Sprintf("ALTER PUBLICATION %q SET TABLE %s;", t.Name, strings.Join(t.Tables, ", ")),
				nil, nil, []stableid.ID{id}))
		}
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, change.New("DropPublication", "publication", change.OpDrop, change.ScopeObject, "", id,
				fmt.Sprintf("DROP PUBLICATION %q;", s.Name),
				nil, []stableid.ID{id}, nil))
		}
	}
	return out
}

func createPublication(id stableid.ID, t *catalog.Publication) *change.Change {
	sql := fmt.Sprintf("CREATE PUBLICATION %q", t.Name)
	if t.AllTables {
		sql += " FOR ALL TABLES;"
	} else {
		sql += fmt.Sprintf(" FOR TABLE %s;", strings.Join(t.Tables, ", "))
	}
	return change.New("CreatePublication", "publication", change.OpCreate, change.ScopeObject, "", id, sql,
		[]stableid.ID{id}, nil, nil)
}

// EventTriggers implements CREATE/DROP/ALTER EVENT TRIGGER. Event and
// tag filter are non-alterable (no ALTER form beyond enable state and
// owner) and force a replace.
func EventTriggers(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.EventTriggers, ctx.Target.EventTriggers

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createEventTrigger(id, t))
			continue
		}
		if s.Event != t.Event || !sameStrings(s.Tags, t.Tags) || s.Function != t.Function {
			out = append(out, change.New("DropEventTrigger", "eventtrigger", change.OpDrop, change.ScopeObject, "", id,
				fmt.Sprintf("DROP EVENT TRIGGER %q;", s.Name),
				nil, []stableid.ID{id}, nil))
			out = append(out, createEventTrigger(id, t))
			continue
		}
		if s.Enabled != t.Enabled {
			state := "ENABLE"
			if !t.Enabled {
				state = "DISABLE"
			}
			out = append(out, change.New("AlterEventTrigger"+titleCase(state), "eventtrigger", change.OpAlter, change.ScopeObject, "", id,
				fmt.Sprintf("ALTER EVENT TRIGGER %q %s;", t.Name, state),
				nil, nil, []stableid.ID{id}))
		}
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, change.New("DropEventTrigger", "eventtrigger", change.OpDrop, change.ScopeObject, "", id,
				fmt.Sprintf("DROP EVENT TRIGGER %q;", s.Name),
				nil, []stableid.ID{id}, nil))
		}
	}
	return out
}

func createEventTrigger(id stableid.ID, t *catalog.EventTrigger) *change.Change {
	tagClause := ""
	if len(t.Tags) > 0 {
		quoted := make([]string, len(t.Tags))
		for i, tag := range t.Tags {
			quoted[i] = quoteLiteral(tag)
		}
		tagClause = fmt.Sprintf(" WHEN TAG IN (%s)", strings.Join(quoted, ", "))
	}
	c := change.New("CreateEventTrigger", "eventtrigger", change.OpCreate, change.ScopeObject, "", id,
		fmt.Sprintf("CREATE EVENT TRIGGER %q ON %s%s EXECUTE FUNCTION %s();", t.Name, t.Event, tagClause, t.Function),
		[]stableid.ID{id}, nil, []stableid.ID{stableid.Function("", t.Function, 0)})
	c.StatementClass = "CREATE_EVENT_TRIGGER"
	return c
}

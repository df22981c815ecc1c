// Package stableid defines the environment-independent identity used
// throughout ptahdiff to name schema entities without relying on OIDs
// or pointers.
package stableid

import (
	"strings"

	"golang.org/x/text/cases"
)

// ID is a stable, environment-independent identity for a schema entity.
//
// Grammar: kind:qualifier[.qualifier...]. Examples:
//
//	schema:public
//	role:admin
//	table:public.users
//	column:public.users.email
//	constraint:public.users.pk_users
//	comment:table:public.users
//	acl:table:public.users:app_user
//	type:public.status
//	language:plpgsql
//
// IDs are the only currency the dependency graph uses; OIDs and names are
// implementation details of extraction and never cross this boundary.
type ID string

var foldCase = cases.Fold()

// Kind returns the leading "kind" segment of the ID, or "" if the ID is
// malformed (contains no ':').
func (id ID) Kind() string {
	s := string(id)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i]
	}
	return ""
}

// Qualifier returns everything after the first ':' — the dotted path that
// disambiguates entities of the same kind.
func (id ID) Qualifier() string {
	s := string(id)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// Parts splits the qualifier on '.'.
func (id ID) Parts() []string {
	q := id.Qualifier()
	if q == "" {
		return nil
	}
	return strings.Split(q, ".")
}

func join(kind string, qualifiers ...string) ID {
	return ID(kind + ":" + strings.Join(qualifiers, "."))
}

// Schema builds a schema:<name> ID.
func Schema(name string) ID { return join("schema", normalize(name)) }

// Role builds a role:<name> ID.
func Role(name string) ID { return join("role", normalize(name)) }

// Extension builds an extension:<name> ID.
func Extension(name string) ID { return join("extension", normalize(name)) }

// Language builds a language:<name> ID.
func Language(name string) ID { return join("language", normalize(name)) }

// Table builds a table:<schema>.<name> ID.
func Table(schema, name string) ID { return join("table", normalize(schema), normalize(name)) }

// Column builds a column:<schema>.<table>.<name> ID.
func Column(schema, table, name string) ID {
	return join("column", normalize(schema), normalize(table), normalize(name))
}

// Constraint builds a constraint:<schema>.<table>.<name> ID.
func Constraint(schema, table, name string) ID {
	return join("constraint", normalize(schema), normalize(table), normalize(name))
}

// Index builds an index:<schema>.<name> ID.
func Index(schema, name string) ID { return join("index", normalize(schema), normalize(name)) }

// Sequence builds a sequence:<schema>.<name> ID.
func Sequence(schema, name string) ID { return join("sequence", normalize(schema), normalize(name)) }

// View builds a view:<schema>.<name> ID.
func View(schema, name string) ID { return join("view", normalize(schema), normalize(name)) }

// MaterializedView builds a matview:<schema>.<name> ID.
func MaterializedView(schema, name string) ID {
	return join("matview", normalize(schema), normalize(name))
}

// Function builds a function:<schema>.<name>/<arity> ID. Arity is folded
// into the qualifier so overloaded routines get distinct identities.
func Function(schema, name string, arity int) ID {
	return join("function", normalize(schema), normalize(name)+"/"+itoa(arity))
}

// Procedure builds a procedure:<schema>.<name>/<arity> ID.
func Procedure(schema, name string, arity int) ID {
	return join("procedure", normalize(schema), normalize(name)+"/"+itoa(arity))
}

// Trigger builds a trigger:<schema>.<table>.<name> ID.
func Trigger(schema, table, name string) ID {
	return join("trigger", normalize(schema), normalize(table), normalize(name))
}

// Type builds a type:<schema>.<name> ID (covers enum, domain, composite,
// and range types; their distinguishing kind lives on the catalog Object).
func Type(schema, name string) ID { return join("type", normalize(schema), normalize(name)) }

// Policy builds a policy:<schema>.<table>.<name> ID.
func Policy(schema, table, name string) ID {
	return join("policy", normalize(schema), normalize(table), normalize(name))
}

// ForeignServer builds a server:<name> ID.
func ForeignServer(name string) ID { return join("server", normalize(name)) }

// UserMapping builds a usermapping:<server>.<user> ID.
func UserMapping(server, user string) ID {
	return join("usermapping", normalize(server), normalize(user))
}

// Subscription builds a subscription:<name> ID.
func Subscription(name string) ID { return join("subscription", normalize(name)) }

// Publication builds a publication:<name> ID.
func Publication(name string) ID { return join("publication", normalize(name)) }

// EventTrigger builds an eventtrigger:<name> ID.
func EventTrigger(name string) ID { return join("eventtrigger", normalize(name)) }

// Comment builds a comment:<target> ID. Per spec, comment:X requires X.
func Comment(target ID) ID { return ID("comment:" + string(target)) }

// ACL builds an acl:<target>:<grantee> ID. Per spec, acl:X:G requires X
// and role:G.
func ACL(target ID, grantee string) ID {
	return ID("acl:" + string(target) + ":" + normalize(grantee))
}

// Grantee returns the grantee role name encoded in an acl:X:G ID, or ""
// if id is not an acl ID.
func (id ID) Grantee() string {
	s := string(id)
	if !strings.HasPrefix(s, "acl:") {
		return ""
	}
	if i := strings.LastIndexByte(s, ':'); i > 3 {
		return s[i+1:]
	}
	return ""
}

// normalize case-folds an identifier segment with cases.Fold, so
// identifiers that differ only in case ("Users" from a quoted identifier
// and "users") map to the same ID segment.
func normalize(s string) string {
	return foldCase.String(s)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

package catalogio

import (
	"context"
	"strings"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/stableid"
)

// extractDependRows reads pg_depend and resolves both ends of every row
// through pg_identify_object, which already knows how to turn
// (classid, objid, objsubid) into a (type, schema, name) triple for any
// catalogued object kind — sparing this package a hand-rolled join
// against every system catalog pg_depend can reference.
func extractDependRows(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT d.deptype,
		       dep.type, COALESCE(dep.schema, ''), dep.name,
		       ref.type, COALESCE(ref.schema, ''), ref.name
		FROM pg_depend d,
		     LATERAL pg_identify_object(d.classid, d.objid, d.objsubid) dep,
		     LATERAL pg_identify_object(d.refclassid, d.refobjid, d.refobjsubid) ref
		WHERE d.deptype IN ('n', 'a', 'i')
		  AND dep.name IS NOT NULL AND ref.name IS NOT NULL
		  AND NOT (d.classid = d.refclassid AND d.objid = d.refobjid AND d.objsubid = d.refobjsubid)`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var deptype, depType, depSchema, depName, refType, refSchema, refName string
		if err := rows.Scan(&deptype, &depType, &depSchema, &depName, &refType, &refSchema, &refName); err != nil {
			return err
		}
		dependent, ok1 := resolveObjectID(depType, depSchema, depName)
		referenced, ok2 := resolveObjectID(refType, refSchema, refName)
		if !ok1 || !ok2 {
			continue
		}
		cat.DependRows = append(cat.DependRows, catalog.PgDependRow{
			Dependent:  dependent,
			Referenced: referenced,
			DepType:    mapDepType(deptype),
		})
	}
	return rows.Err()
}

func mapDepType(code string) catalog.DepType {
	switch code {
	case "a":
		return catalog.DepAuto
	case "i":
		return catalog.DepInternal
	default:
		return catalog.DepNormal
	}
}

// resolveObjectID turns a pg_identify_object (type, schema, name) triple
// into the matching stableid.ID. name carries a signature suffix for
// routines ("myfunc(integer, text)"), which is parsed down to an arity
// for stableid.Function/Procedure. Object kinds ptahdiff doesn't track
// as independent stable IDs (e.g. casts, operators, access methods)
// report ok=false so the caller drops the row, matching spec §4.3's
// "unknown stable IDs are silently dropped" rule.
func resolveObjectID(kind, schema, name string) (stableid.ID, bool) {
	switch kind {
	case "schema":
		return stableid.Schema(name), true
	case "role":
		return stableid.Role(name), true
	case "extension":
		return stableid.Extension(name), true
	case "language":
		return stableid.Language(name), true
	case "table":
		return stableid.Table(schema, name), true
	case "sequence":
		return stableid.Sequence(schema, name), true
	case "view":
		return stableid.View(schema, name), true
	case "materialized view":
		return stableid.MaterializedView(schema, name), true
	case "index":
		return stableid.Index(schema, name), true
	case "function":
		base, arity := splitRoutineSignature(name)
		return stableid.Function(schema, base, arity), true
	case "procedure":
		base, arity := splitRoutineSignature(name)
		return stableid.Procedure(schema, base, arity), true
	case "trigger":
		table, trig := splitOnDot(name)
		if table == "" {
			return "", false
		}
		return stableid.Trigger(schema, table, trig), true
	case "type":
		return stableid.Type(schema, name), true
	case "policy":
		table, pol := splitOnDot(name)
		if table == "" {
			return "", false
		}
		return stableid.Policy(schema, table, pol), true
	case "server":
		return stableid.ForeignServer(name), true
	case "user mapping":
		return stableid.UserMapping(schema, name), true
	case "subscription":
		return stableid.Subscription(name), true
	case "publication":
		return stableid.Publication(name), true
	case "event trigger":
		return stableid.EventTrigger(name), true
	default:
		return "", false
	}
}

// splitRoutineSignature turns "name(type1, type2)" into ("name", 2) and
// "name()" into ("name", 0).
func splitRoutineSignature(identity string) (string, int) {
	open := strings.IndexByte(identity, '(')
	if open < 0 {
		return identity, 0
	}
	base := identity[:open]
	args := strings.TrimSuffix(identity[open+1:], ")")
	args = strings.TrimSpace(args)
	if args == "" {
		return base, 0
	}
	return base, strings.Count(args, ",") + 1
}

func splitOnDot(s string) (string, string) {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}

package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// columnNonAlterable names the one column field PostgreSQL has no ALTER
// form for: the GENERATED ALWAYS AS (...) expression itself (its
// STORED/virtual-ness and formula). Type, nullability, default, and
// collation are all addressable via ALTER COLUMN.
var columnNonAlterable = map[string]bool{"generatedExpr": true}

// Tables implements the per-kind diff for CREATE/DROP TABLE and, for
// altered tables, the full column/constraint/storage/RLS/owner
// reconciliation of spec §4.1 step 4.
func Tables(ctx *Context) []*change.Change {
	var out []*change.Change
	source, target := ctx.Source.Tables, ctx.Target.Tables

	for id, t := range target {
		s, existed := source[id]
		if !existed {
			out = append(out, createTable(id, t)...)
			continue
		}
		out = append(out, alterTable(id, s, t)...)
	}
	for id, s := range source {
		if _, ok := target[id]; !ok {
			out = append(out, change.New("DropTable", "table", change.OpDrop, change.ScopeObject, schemaOf(id), id,
				fmt.Sprintf("DROP TABLE %s CASCADE;", qualified(id, s.Name)),
				nil, []stableid.ID{id}, nil).WithDataLoss(fmt.Sprintf("DROP TABLE %s", s.Name)))
		}
	}
	return out
}

func createTable(id stableid.ID, t *catalog.Table) []*change.Change {
	var out []*change.Change
	cols := make([]string, len(t.Columns))
	sortedCols := append([]catalog.Column{}, t.Columns...)
	sort.Slice(sortedCols, func(i, j int) bool { return sortedCols[i].Position < sortedCols[j].Position })
	for i, col := range sortedCols {
		cols[i] = columnDefinitionSQL(col)
	}
	for _, con := range t.Constraints {
		if con.Type == "PRIMARY KEY" || con.Type == "UNIQUE" {
			cols = append(cols, fmt.Sprintf("CONSTRAINT %q %s", con.Name, constraintClause(con)))
		}
	}
	sql := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n);", qualified(id, t.Name), strings.Join(cols, ",\n\t"))

	requires := []stableid.ID{stableid.Schema(schemaOf(id))}
	if t.Owner != "" {
		requires = append(requires, stableid.Role(t.Owner))
	}
	out = append(out, change.New("CreateTable", "table", change.OpCreate, change.ScopeObject, schemaOf(id), id,
		sql, append([]stableid.ID{id}, columnIDs(id, t.Columns)...), nil, requires))

	// Foreign keys and CHECK/EXCLUDE constraints are added after table
	// creation via ALTER TABLE ... ADD CONSTRAINT. This is what lets the
	// dependency sort break mutual-FK cycles between two newly created
	// tables (spec §4.3, §8 scenario 2): both CREATE TABLE statements run
	// with no inline FK, then both ADD CONSTRAINT statements follow.
	for _, con := range t.Constraints {
		if con.Type == "PRIMARY KEY" || con.Type == "UNIQUE" {
			continue
		}
		out = append(out, addConstraint(id, t.Name, con))
	}

	for k, v := range t.StorageParams {
		out = append(out, change.New("AlterTableSetStorageParam", "table", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER TABLE %s SET (%s = %s);", qualified(id, t.Name), k, v),
			nil, nil, []stableid.ID{id}))
	}
	if t.RLSEnabled {
		out = append(out, change.New("AlterTableEnableRLS", "table", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY;", qualified(id, t.Name)),
			nil, nil, []stableid.ID{id}))
	}
	if t.RLSForced {
		out = append(out, change.New("AlterTableForceRLS", "table", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER TABLE %s FORCE ROW LEVEL SECURITY;", qualified(id, t.Name)),
			nil, nil, []stableid.ID{id}))
	}
	if t.Owner != "" {
		out = append(out, change.New("AlterTableOwner", "table", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER TABLE %s OWNER TO %q;", qualified(id, t.Name), t.Owner),
			nil, nil, []stableid.ID{id, stableid.Role(t.Owner)}))
	}
	if t.Comment != "" {
		out = append(out, change.New("CreateCommentOnTable", "comment", change.OpCreate, change.ScopeComment, schemaOf(id), id,
			fmt.Sprintf("COMMENT ON TABLE %s IS %s;", qualified(id, t.Name), quoteLiteral(t.Comment)),
			[]stableid.ID{stableid.Comment(id)}, nil, []stableid.ID{id}))
	}
	for _, col := range t.Columns {
		if col.Comment != "" {
			colID := stableid.Column(schemaOf(id), t.Name, col.Name)
			out = append(out, change.New("CreateCommentOnColumn", "comment", change.OpCreate, change.ScopeComment, schemaOf(id), id,
				fmt.Sprintf("COMMENT ON COLUMN %s.%q IS %s;", qualified(id, t.Name), col.Name, quoteLiteral(col.Comment)),
				[]stableid.ID{stableid.Comment(colID)}, nil, []stableid.ID{colID}))
		}
	}
	out = append(out, diffACL(PrivTable, qualified(id, t.Name), id, t.Owner, nil, t.ACL, []stableid.ID{id})...)
	return out
}

func columnIDs(tableID stableid.ID, cols []catalog.Column) []stableid.ID {
	out := make([]stableid.ID, len(cols))
	for i, c := range cols {
		out[i] = stableid.Column(schemaOf(tableID), tableNameFromID(tableID), c.Name)
	}
	return out
}

func tableNameFromID(id stableid.ID) string {
	parts := id.Parts()
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func columnDefinitionSQL(c catalog.Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q %s", c.Name, c.DataType)
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	switch c.Generated {
	case "":
		if c.Default != "" {
			fmt.Fprintf(&b, " DEFAULT %s", c.Default)
		}
	case "STORED":
		fmt.Fprintf(&b, " GENERATED ALWAYS AS (%s) STORED", c.GeneratedExpr)
	default: // identity: "ALWAYS" or "BY DEFAULT"
		fmt.Fprintf(&b, " GENERATED %s AS IDENTITY", c.Generated)
	}
	if c.Collation != "" {
		fmt.Fprintf(&b, " COLLATE %q", c.Collation)
	}
	return b.String()
}

func constraintClause(con catalog.Constraint) string {
	switch con.Type {
	case "PRIMARY KEY", "UNIQUE":
		return fmt.Sprintf("%s (%s)", con.Type, strings.Join(quoteAll(con.Columns), ", "))
	case "FOREIGN KEY":
		return fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %q.%q (%s)%s%s",
			strings.Join(quoteAll(con.Columns), ", "), con.ReferencedSchema, con.ReferencedTable,
			strings.Join(quoteAll(con.ReferencedColumns), ", "), onClause("DELETE", con.OnDelete), onClause("UPDATE", con.OnUpdate))
	case "CHECK":
		return fmt.Sprintf("CHECK (%s)", con.Expression)
	case "EXCLUDE":
		return fmt.Sprintf("EXCLUDE USING gist (%s)", con.Expression)
	default:
		return ""
	}
}

func onClause(event, action string) string {
	if action == "" || action == "NO ACTION" {
		return ""
	}
	return fmt.Sprintf(" ON %s %s", event, action)
}

func addConstraint(tableID stableid.ID, tableName string, con catalog.Constraint) *change.Change {
	conID := stableid.Constraint(schemaOf(tableID), tableName, con.Name)
	requires := []stableid.ID{tableID}
	for _, colName := range con.Columns {
		requires = append(requires, stableid.Column(schemaOf(tableID), tableName, colName))
	}
	if con.Type == "FOREIGN KEY" {
		requires = append(requires, stableid.Table(con.ReferencedSchema, con.ReferencedTable))
	}
	validClause := ""
	if !con.Validated {
		validClause = " NOT VALID"
	}
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %q %s%s;", qualified(tableID, tableName), con.Name, constraintClause(con), validClause)
	return change.New("AddConstraint", "constraint", change.OpCreate, change.ScopeObject, schemaOf(tableID), tableID,
		sql, []stableid.ID{conID}, nil, requires)
}

func validateConstraint(tableID stableid.ID, tableName string, con catalog.Constraint) *change.Change {
	conID := stableid.Constraint(schemaOf(tableID), tableName, con.Name)
	return change.New("ValidateConstraint", "constraint", change.OpAlter, change.ScopeObject, schemaOf(tableID), tableID,
		fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %q;", qualified(tableID, tableName), con.Name),
		nil, nil, []stableid.ID{conID})
}

func dropConstraint(tableID stableid.ID, tableName string, con catalog.Constraint) *change.Change {
	conID := stableid.Constraint(schemaOf(tableID), tableName, con.Name)
	return change.New("DropConstraint", "constraint", change.OpDrop, change.ScopeObject, schemaOf(tableID), tableID,
		fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %q;", qualified(tableID, tableName), con.Name),
		nil, []stableid.ID{conID}, nil)
}

func alterTable(id stableid.ID, s, t *catalog.Table) []*change.Change {
	var out []*change.Change
	tableName := t.Name

	out = append(out, diffColumns(id, tableName, s.Columns, t.Columns)...)
	out = append(out, diffConstraints(id, tableName, s.Constraints, t.Constraints)...)
	out = append(out, RLSToggles(id, s, t)...)

	for k, v := range t.StorageParams {
		if s.StorageParams[k] != v {
			out = append(out, change.New("AlterTableSetStorageParam", "table", change.OpAlter, change.ScopeObject, schemaOf(id), id,
				fmt.Sprintf("ALTER TABLE %s SET (%s = %s);", qualified(id, tableName), k, v),
				nil, nil, []stableid.ID{id}))
		}
	}
	for k := range s.StorageParams {
		if _, ok := t.StorageParams[k]; !ok {
			out = append(out, change.New("AlterTableResetStorageParam", "table", change.OpAlter, change.ScopeObject, schemaOf(id), id,
				fmt.Sprintf("ALTER TABLE %s RESET (%s);", qualified(id, tableName), k),
				nil, nil, []stableid.ID{id}))
		}
	}
	if s.Owner != t.Owner && t.Owner != "" {
		out = append(out, change.New("AlterTableOwner", "table", change.OpAlter, change.ScopeObject, schemaOf(id), id,
			fmt.Sprintf("ALTER TABLE %s OWNER TO %q;", qualified(id, tableName), t.Owner),
			nil, nil, []stableid.ID{id, stableid.Role(t.Owner)}))
	}
	if c := diffComment("TABLE", qualified(id, tableName), id, s.Comment, t.Comment, []stableid.ID{id}); c != nil {
		out = append(out, c)
	}
	out = append(out, diffACL(PrivTable, qualified(id, tableName), id, t.Owner, s.ACL, t.ACL, []stableid.ID{id})...)
	return out
}

func diffColumns(tableID stableid.ID, tableName string, source, target []catalog.Column) []*change.Change {
	var out []*change.Change
	sourceByName := make(map[string]catalog.Column, len(source))
	for _, c := range source {
		sourceByName[c.Name] = c
	}
	targetByName := make(map[string]catalog.Column, len(target))
	for _, c := range target {
		targetByName[c.Name] = c
	}

	for _, c := range target {
		colID := stableid.Column(schemaOf(tableID), tableName, c.Name)
		sc, existed := sourceByName[c.Name]
		if !existed {
			out = append(out, addColumn(tableID, tableName, c))
			if c.Comment != "" {
				out = append(out, change.New("CreateCommentOnColumn", "comment", change.OpCreate, change.ScopeComment, schemaOf(tableID), tableID,
					fmt.Sprintf("COMMENT ON COLUMN %s.%q IS %s;", qualified(tableID, tableName), c.Name, quoteLiteral(c.Comment)),
					[]stableid.ID{stableid.Comment(colID)}, nil, []stableid.ID{colID}))
			}
			continue
		}
		if sc.Generated != c.Generated || sc.GeneratedExpr != c.GeneratedExpr {
			// Non-alterable: PostgreSQL has no ALTER form for a
			// generated-column expression. Replace via drop+add.
			out = append(out, dropColumn(tableID, tableName, sc))
			out = append(out, addColumn(tableID, tableName, c))
			continue
		}
		out = append(out, alterColumn(tableID, tableName, sc, c)...)
		if cm := diffComment("COLUMN", fmt.Sprintf("%s.%q", qualified(tableID, tableName), c.Name), colID, sc.Comment, c.Comment, []stableid.ID{colID}); cm != nil {
			out = append(out, cm)
		}
	}
	for _, c := range source {
		if _, ok := targetByName[c.Name]; !ok {
			out = append(out, dropColumn(tableID, tableName, c))
		}
	}
	return out
}

func addColumn(tableID stableid.ID, tableName string, c catalog.Column) *change.Change {
	colID := stableid.Column(schemaOf(tableID), tableName, c.Name)
	return change.New("AlterTableAddColumn", "column", change.OpCreate, change.ScopeObject, schemaOf(tableID), tableID,
		fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", qualified(tableID, tableName), columnDefinitionSQL(c)),
		[]stableid.ID{colID}, nil, []stableid.ID{tableID})
}

func dropColumn(tableID stableid.ID, tableName string, c catalog.Column) *change.Change {
	colID := stableid.Column(schemaOf(tableID), tableName, c.Name)
	return change.New("AlterTableDropColumn", "column", change.OpDrop, change.ScopeObject, schemaOf(tableID), tableID,
		fmt.Sprintf("ALTER TABLE %s DROP COLUMN %q;", qualified(tableID, tableName), c.Name),
		nil, []stableid.ID{colID}, nil).WithDataLoss(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", tableName, c.Name))
}

func alterColumn(tableID stableid.ID, tableName string, s, t catalog.Column) []*change.Change {
	var out []*change.Change
	colID := stableid.Column(schemaOf(tableID), tableName, t.Name)
	if s.DataType != t.DataType {
		out = append(out, change.New("AlterTableAlterColumnType", "column", change.OpAlter, change.ScopeObject, schemaOf(tableID), tableID,
			fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %q TYPE %s USING %q::%s;", qualified(tableID, tableName), t.Name, t.DataType, t.Name, t.DataType),
			nil, nil, []stableid.ID{colID}))
	}
	if s.Nullable != t.Nullable {
		verb := "SET NOT NULL"
		if t.Nullable {
			verb = "DROP NOT NULL"
		}
		out = append(out, change.New("AlterTableAlterColumnNullable", "column", change.OpAlter, change.ScopeObject, schemaOf(tableID), tableID,
			fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %q %s;", qualified(tableID, tableName), t.Name, verb),
			nil, nil, []stableid.ID{colID}))
	}
	if s.Default != t.Default {
		if t.Default == "" {
			out = append(out, change.New("AlterTableAlterColumnDropDefault", "column", change.OpAlter, change.ScopeObject, schemaOf(tableID), tableID,
				fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %q DROP DEFAULT;", qualified(tableID, tableName), t.Name),
				nil, nil, []stableid.ID{colID}))
		} else {
			out = append(out, change.New("AlterTableAlterColumnSetDefault", "column", change.OpAlter, change.ScopeObject, schemaOf(tableID), tableID,
				fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %q SET DEFAULT %s;", qualified(tableID, tableName), t.Name, t.Default),
				nil, nil, []stableid.ID{colID}))
		}
	}
	if s.Collation != t.Collation {
		out = append(out, change.New("AlterTableAlterColumnCollation", "column", change.OpAlter, change.ScopeObject, schemaOf(tableID), tableID,
			fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %q SET DATA TYPE %s COLLATE %q;", qualified(tableID, tableName), t.Name, t.DataType, t.Collation),
			nil, nil, []stableid.ID{colID}))
	}
	return out
}

// diffConstraints implements spec §4.1 step 4's constraint reconciliation:
// added -> ADD CONSTRAINT (NOT VALID when the target constraint is not
// validated); removed -> DROP CONSTRAINT; changed keys/expression ->
// DROP + ADD; an existing constraint that becomes validated -> VALIDATE
// CONSTRAINT.
func diffConstraints(tableID stableid.ID, tableName string, source, target []catalog.Constraint) []*change.Change {
	var out []*change.Change
	sourceByName := make(map[string]catalog.Constraint, len(source))
	for _, c := range source {
		sourceByName[c.Name] = c
	}
	targetByName := make(map[string]catalog.Constraint, len(target))
	for _, c := range target {
		targetByName[c.Name] = c
	}

	cmpOpts := cmpopts.IgnoreFields(catalog.Constraint{}, "Comment", "Validated")

	for _, c := range target {
		sc, existed := sourceByName[c.Name]
		if !existed {
			out = append(out, addConstraint(tableID, tableName, c))
			if c.Validated {
				// created NOT VALID above when Validated is actually
				// false; when the target wants it validated immediately
				// addConstraint already omits NOT VALID, so nothing more
				// to do here.
				continue
			}
			continue
		}
		if !cmp.Equal(sc, c, cmpOpts) {
			out = append(out, dropConstraint(tableID, tableName, sc))
			out = append(out, addConstraint(tableID, tableName, c))
			continue
		}
		if !sc.Validated && c.Validated {
			out = append(out, validateConstraint(tableID, tableName, c))
		}
	}
	for _, c := range source {
		if _, ok := targetByName[c.Name]; !ok {
			out = append(out, dropConstraint(tableID, tableName, c))
		}
	}
	return out
}

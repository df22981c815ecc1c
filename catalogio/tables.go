package catalogio

import (
	"context"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/stableid"
)

func extractTables(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, c.relname, pg_get_userbyid(c.relowner),
		       c.relrowsecurity, c.relforcerowsecurity,
		       COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'r'
		  AND n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, name string
		var t catalog.Table
		if err := rows.Scan(&schemaName, &name, &t.Owner, &t.RLSEnabled, &t.RLSForced, &t.Comment); err != nil {
			return err
		}
		t.Name = name
		t.ACL = catalog.ACL{}
		cat.Tables[stableid.Table(schemaName, name)] = &t
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if err := extractColumns(ctx, conn, cat); err != nil {
		return err
	}
	return extractConstraints(ctx, conn, cat)
}

func extractColumns(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, c.relname, a.attname,
		       format_type(a.atttypid, a.atttypmod), NOT a.attnotnull,
		       COALESCE(pg_get_expr(d.adbin, d.adrelid), ''),
		       CASE WHEN a.attgenerated = 's' THEN 'STORED'
		            WHEN a.attidentity = 'a' THEN 'ALWAYS'
		            WHEN a.attidentity = 'd' THEN 'BY DEFAULT'
		            ELSE '' END,
		       COALESCE(pg_get_expr(d.adbin, d.adrelid), ''),
		       COALESCE(co.collname, ''),
		       COALESCE(col_description(c.oid, a.attnum), ''),
		       a.attnum
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_attrdef d ON d.adrelid = c.oid AND d.adnum = a.attnum
		LEFT JOIN pg_collation co ON co.oid = a.attcollation
		WHERE c.relkind = 'r' AND a.attnum > 0 AND NOT a.attisdropped
		  AND n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		ORDER BY a.attnum`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName string
		var col catalog.Column
		if err := rows.Scan(&schemaName, &tableName, &col.Name, &col.DataType, &col.Nullable,
			&col.Default, &col.Generated, &col.GeneratedExpr, &col.Collation, &col.Comment, &col.Position); err != nil {
			return err
		}
		tableID := stableid.Table(schemaName, tableName)
		t, ok := cat.Tables[tableID]
		if !ok {
			continue
		}
		t.Columns = append(t.Columns, col)
	}
	return rows.Err()
}

func extractConstraints(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, t.relname, con.conname, con.contype,
		       COALESCE(ARRAY(SELECT a.attname FROM pg_attribute a
		                      WHERE a.attrelid = con.conrelid AND a.attnum = ANY(con.conkey)
		                      ORDER BY array_position(con.conkey, a.attnum)), '{}'),
		       COALESCE(pg_get_expr(con.conbin, con.conrelid), ''),
		       COALESCE(rn.nspname, ''), COALESCE(rt.relname, ''),
		       COALESCE(ARRAY(SELECT a.attname FROM pg_attribute a
		                      WHERE a.attrelid = con.confrelid AND a.attnum = ANY(con.confkey)
		                      ORDER BY array_position(con.confkey, a.attnum)), '{}'),
		       CASE con.confdeltype WHEN 'a' THEN '' WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL'
		            WHEN 'd' THEN 'SET DEFAULT' WHEN 'r' THEN 'RESTRICT' ELSE '' END,
		       CASE con.confupdtype WHEN 'a' THEN '' WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL'
		            WHEN 'd' THEN 'SET DEFAULT' WHEN 'r' THEN 'RESTRICT' ELSE '' END,
		       con.condeferrable, con.condeferred, con.convalidated,
		       COALESCE(obj_description(con.oid, 'pg_constraint'), '')
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		LEFT JOIN pg_class rt ON rt.oid = con.confrelid
		LEFT JOIN pg_namespace rn ON rn.oid = rt.relnamespace
		WHERE t.relkind = 'r' AND n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, tableName string
		var con catalog.Constraint
		var contype string
		if err := rows.Scan(&schemaName, &tableName, &con.Name, &contype, &con.Columns,
			&con.Expression, &con.ReferencedSchema, &con.ReferencedTable, &con.ReferencedColumns,
			&con.OnDelete, &con.OnUpdate, &con.Deferrable, &con.InitiallyDeferred, &con.Validated,
			&con.Comment); err != nil {
			return err
		}
		con.Type = constraintTypeName(contype)

		tableID := stableid.Table(schemaName, tableName)
		t, ok := cat.Tables[tableID]
		if !ok {
			continue
		}
		t.Constraints = append(t.Constraints, con)
	}
	return rows.Err()
}

func constraintTypeName(contype string) string {
	switch contype {
	case "p":
		return "PRIMARY KEY"
	case "u":
		return "UNIQUE"
	case "f":
		return "FOREIGN KEY"
	case "c":
		return "CHECK"
	case "x":
		return "EXCLUDE"
	default:
		return contype
	}
}

package catalogio

import (
	"context"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/stableid"
)

func extractTypes(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, t.typname,
		       CASE t.typtype WHEN 'e' THEN 'enum' WHEN 'd' THEN 'domain'
		            WHEN 'r' THEN 'range' WHEN 'c' THEN 'composite' ELSE 'other' END,
		       COALESCE((SELECT ARRAY_AGG(e.enumlabel ORDER BY e.enumsortorder)
		                 FROM pg_enum e WHERE e.enumtypid = t.oid), '{}'),
		       CASE WHEN t.typtype = 'd' THEN format_type(t.typbasetype, t.typtypmod) ELSE '' END,
		       COALESCE(pg_get_constraintdef(
		                (SELECT oid FROM pg_constraint c WHERE c.contypid = t.oid LIMIT 1)), ''),
		       CASE WHEN t.typtype = 'd' THEN t.typnotnull ELSE false END,
		       COALESCE(t.typdefault, ''),
		       COALESCE((SELECT format_type(r.rngsubtype, NULL) FROM pg_range r WHERE r.rngtypid = t.oid), ''),
		       COALESCE(obj_description(t.oid, 'pg_type'), '')
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
		  AND t.typtype IN ('e', 'd', 'r', 'c')
		  AND (t.typtype <> 'c' OR EXISTS (
		      SELECT 1 FROM pg_class rc WHERE rc.oid = t.typrelid AND rc.relkind = 'c'))`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var composites []stableid.ID

	for rows.Next() {
		var schemaName, name string
		var ty catalog.Type
		if err := rows.Scan(&schemaName, &name, &ty.Kind, &ty.Values, &ty.BaseType,
			&ty.Check, &ty.NotNull, &ty.Default, &ty.Subtype, &ty.Comment); err != nil {
			return err
		}
		ty.Name = name
		id := stableid.Type(schemaName, name)
		cat.Types[id] = &ty
		if ty.Kind == "composite" {
			composites = append(composites, id)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range composites {
		parts := id.Parts()
		if len(parts) != 2 {
			continue
		}
		if err := extractCompositeAttrs(ctx, conn, cat, parts[0], parts[1]); err != nil {
			return err
		}
	}
	return nil
}

func extractCompositeAttrs(ctx context.Context, conn pgxConn, cat *catalog.Catalog, schemaName, name string) error {
	rows, err := conn.Query(ctx, `
		SELECT a.attname, format_type(a.atttypid, a.atttypmod), a.attnum
		FROM pg_attribute a
		JOIN pg_class c ON c.oid = a.attrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_type t ON t.typrelid = c.oid
		WHERE n.nspname = $1 AND t.typname = $2 AND a.attnum > 0 AND NOT a.attisdropped
		ORDER BY a.attnum`, schemaName, name)
	if err != nil {
		return err
	}
	defer rows.Close()

	ty, ok := cat.Types[stableid.Type(schemaName, name)]
	if !ok {
		return nil
	}
	for rows.Next() {
		var col catalog.Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.Position); err != nil {
			return err
		}
		ty.Attrs = append(ty.Attrs, col)
	}
	return rows.Err()
}

func extractPolicies(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, c.relname, p.polname, p.polpermissive,
		       CASE p.polcmd WHEN 'r' THEN 'SELECT' WHEN 'a' THEN 'INSERT' WHEN 'w' THEN 'UPDATE'
		            WHEN 'd' THEN 'DELETE' ELSE 'ALL' END,
		       COALESCE(ARRAY(SELECT rolname FROM pg_roles WHERE oid = ANY(p.polroles)), '{}'),
		       COALESCE(pg_get_expr(p.polqual, p.polrelid), ''),
		       COALESCE(pg_get_expr(p.polwithcheck, p.polrelid), '')
		FROM pg_policy p
		JOIN pg_class c ON c.oid = p.polrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, name string
		var pol catalog.Policy
		if err := rows.Scan(&schemaName, &pol.Table, &name, &pol.Permissive, &pol.For,
			&pol.Roles, &pol.UsingExpr, &pol.WithCheckExpr); err != nil {
			return err
		}
		pol.Name = name
		cat.Policies[stableid.Policy(schemaName, pol.Table, name)] = &pol
	}
	return rows.Err()
}

package catalogio

import (
	"context"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/stableid"
)

func extractSequences(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, c.relname, s.seqtypid::regtype::text, s.seqstart, s.seqincrement,
		       s.seqmin, s.seqmax, s.seqcycle,
		       COALESCE((SELECT on_.nspname || '.' || ot.relname || '.' || oa.attname
		                 FROM pg_depend dep
		                 JOIN pg_class ot ON ot.oid = dep.refobjid
		                 JOIN pg_namespace on_ ON on_.oid = ot.relnamespace
		                 JOIN pg_attribute oa ON oa.attrelid = ot.oid AND oa.attnum = dep.refobjsubid
		                 WHERE dep.objid = c.oid AND dep.deptype = 'a'), ''),
		       COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_sequence s
		JOIN pg_class c ON c.oid = s.seqrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, name string
		var seq catalog.Sequence
		if err := rows.Scan(&schemaName, &name, &seq.DataType, &seq.Start, &seq.Increment,
			&seq.MinValue, &seq.MaxValue, &seq.Cycle, &seq.OwnedBy, &seq.Comment); err != nil {
			return err
		}
		seq.Name = name
		seq.ACL = catalog.ACL{}
		cat.Sequences[stableid.Sequence(schemaName, name)] = &seq
	}
	return rows.Err()
}

func extractIndexes(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, ic.relname, tc.relname, ix.indisunique,
		       am.amname,
		       COALESCE(ARRAY(SELECT a.attname FROM pg_attribute a
		                      WHERE a.attrelid = tc.oid AND a.attnum = ANY(ix.indkey)
		                      ORDER BY array_position(ix.indkey, a.attnum)), '{}'),
		       CASE WHEN ix.indexprs IS NOT NULL THEN pg_get_indexdef(ic.oid) ELSE '' END,
		       COALESCE(pg_get_expr(ix.indpred, ix.indrelid), ''),
		       COALESCE(obj_description(ic.oid, 'pg_class'), '')
		FROM pg_index ix
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_class tc ON tc.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = ic.relnamespace
		JOIN pg_am am ON am.oid = ic.relam
		WHERE NOT ix.indisprimary
		  AND n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, name string
		var idx catalog.Index
		if err := rows.Scan(&schemaName, &name, &idx.Table, &idx.Unique, &idx.Method,
			&idx.Columns, &idx.Expression, &idx.Predicate, &idx.Comment); err != nil {
			return err
		}
		idx.Name = name
		cat.Indexes[stableid.Index(schemaName, name)] = &idx
	}
	return rows.Err()
}

func extractViews(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, c.relname, pg_get_viewdef(c.oid), COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'v' AND n.nspname NOT IN ('pg_catalog', 'information_schema')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, name string
		var v catalog.View
		if err := rows.Scan(&schemaName, &name, &v.Definition, &v.Comment); err != nil {
			return err
		}
		v.Name = name
		v.ACL = catalog.ACL{}
		cat.Views[stableid.View(schemaName, name)] = &v
	}
	return rows.Err()
}

func extractMaterializedViews(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT mv.schemaname, mv.matviewname, pg_get_viewdef(c.oid), mv.ispopulated,
		       COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_matviews mv
		JOIN pg_namespace n ON n.nspname = mv.schemaname
		JOIN pg_class c ON c.relname = mv.matviewname AND c.relnamespace = n.oid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, name string
		var mv catalog.MaterializedView
		if err := rows.Scan(&schemaName, &name, &mv.Definition, &mv.WithData, &mv.Comment); err != nil {
			return err
		}
		mv.Name = name
		mv.ACL = catalog.ACL{}
		cat.MaterializedViews[stableid.MaterializedView(schemaName, name)] = &mv
	}
	return rows.Err()
}

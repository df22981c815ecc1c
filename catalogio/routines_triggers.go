package catalogio

import (
	"context"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/stableid"
)

func extractRoutines(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, p.proname, p.prokind,
		       COALESCE(ARRAY(SELECT format('%s %s', a.name, a.type)
		                      FROM unnest(COALESCE(p.proargnames, '{}'), p.proallargtypes) AS a(name, type)), '{}'),
		       CASE WHEN p.prokind = 'p' THEN '' ELSE format_type(p.prorettype, NULL) END,
		       l.lanname, p.prosrc,
		       CASE p.provolatile WHEN 'i' THEN 'IMMUTABLE' WHEN 's' THEN 'STABLE' ELSE 'VOLATILE' END,
		       CASE WHEN p.prosecdef THEN 'DEFINER' ELSE 'INVOKER' END,
		       COALESCE(obj_description(p.oid, 'pg_proc'), ''),
		       p.pronargs::int
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		JOIN pg_language l ON l.oid = p.prolang
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema')
		  AND p.prokind IN ('f', 'p')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, name, kind string
		var r catalog.Routine
		var arity int
		if err := rows.Scan(&schemaName, &name, &kind, &r.Arguments, &r.ReturnType,
			&r.Language, &r.Body, &r.Volatility, &r.Security, &r.Comment, &arity); err != nil {
			return err
		}
		r.Name = name
		r.Schema = schemaName
		r.ACL = catalog.ACL{}
		if kind == "p" {
			cat.Procedures[stableid.Procedure(schemaName, name, arity)] = &r
		} else {
			cat.Functions[stableid.Function(schemaName, name, arity)] = &r
		}
	}
	return rows.Err()
}

func extractTriggers(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, t.relname, tg.tgname,
		       CASE WHEN tg.tgtype & 2 = 2 THEN 'BEFORE' WHEN tg.tgtype & 64 = 64 THEN 'INSTEAD OF' ELSE 'AFTER' END,
		       ARRAY(SELECT ev FROM (VALUES
		                (4, 'INSERT'), (8, 'DELETE'), (16, 'UPDATE'), (32, 'TRUNCATE')) AS x(bit, ev)
		             WHERE tg.tgtype & x.bit <> 0),
		       CASE WHEN tg.tgtype & 1 = 1 THEN 'ROW' ELSE 'STATEMENT' END,
		       p.proname,
		       COALESCE(obj_description(tg.oid, 'pg_trigger'), '')
		FROM pg_trigger tg
		JOIN pg_class t ON t.oid = tg.tgrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_proc p ON p.oid = tg.tgfoid
		WHERE NOT tg.tgisinternal
		  AND n.nspname NOT IN ('pg_catalog', 'information_schema')`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var schemaName, name string
		var tr catalog.Trigger
		if err := rows.Scan(&schemaName, &tr.Table, &name, &tr.Timing, &tr.Events, &tr.Level,
			&tr.Function, &tr.Comment); err != nil {
			return err
		}
		tr.Name = name
		cat.Triggers[stableid.Trigger(schemaName, tr.Table, name)] = &tr
	}
	return rows.Err()
}

package catalogio

import (
	"context"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/stableid"
)

func extractRoles(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT r.rolname, r.rolcanlogin, r.rolsuper, r.rolcreatedb, r.rolcreaterole,
		       r.rolinherit, r.rolreplication, r.rolconnlimit,
		       COALESCE(r.rolpassword, ''),
		       COALESCE(ARRAY(SELECT m.rolname FROM pg_auth_members am JOIN pg_roles m ON m.oid = am.roleid
		                      WHERE am.member = r.oid), '{}'),
		       COALESCE(shobj_description(r.oid, 'pg_authid'), '')
		FROM pg_roles r
		WHERE r.rolname NOT LIKE 'pg\_%'`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var role catalog.Role
		if err := rows.Scan(&name, &role.Login, &role.Superuser, &role.CreateDB, &role.CreateRole,
			&role.Inherit, &role.Replication, &role.ConnectionLimit, &role.Password,
			&role.MemberOf, &role.Comment); err != nil {
			return err
		}
		role.Name = name
		cat.Roles[stableid.Role(name)] = &role
	}
	return rows.Err()
}

func extractExtensions(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT e.extname, n.nspname, e.extversion, COALESCE(obj_description(e.oid, 'pg_extension'), '')
		FROM pg_extension e
		JOIN pg_namespace n ON n.oid = e.extnamespace`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var ext catalog.Extension
		if err := rows.Scan(&name, &ext.Schema, &ext.Version, &ext.Comment); err != nil {
			return err
		}
		ext.Name = name
		cat.Extensions[stableid.Extension(name)] = &ext
	}
	return rows.Err()
}

func extractLanguages(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT l.lanname, l.lanpltrusted, COALESCE(obj_description(l.oid, 'pg_language'), '')
		FROM pg_language l
		WHERE l.lanispl`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var lang catalog.Language
		if err := rows.Scan(&name, &lang.Trusted, &lang.Comment); err != nil {
			return err
		}
		lang.Name = name
		cat.Languages[stableid.Language(name)] = &lang
	}
	return rows.Err()
}

func extractSchemas(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT n.nspname, pg_get_userbyid(n.nspowner), COALESCE(obj_description(n.oid, 'pg_namespace'), '')
		FROM pg_namespace n
		WHERE n.nspname NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		  AND n.nspname NOT LIKE 'pg\_temp\_%' AND n.nspname NOT LIKE 'pg\_toast\_temp\_%'`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var schema catalog.Schema
		if err := rows.Scan(&name, &schema.Owner, &schema.Comment); err != nil {
			return err
		}
		schema.Name = name
		schema.ACL = catalog.ACL{}
		cat.Schemas[stableid.Schema(name)] = &schema
	}
	return rows.Err()
}

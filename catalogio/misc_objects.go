package catalogio

import (
	"context"
	"encoding/json"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/stableid"
)

func extractForeignServers(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT s.srvname, w.fdwname,
		       COALESCE(hstore_to_json(hstore(s.srvoptions))::text, '{}'),
		       COALESCE(obj_description(s.oid, 'pg_foreign_server'), '')
		FROM pg_foreign_server s
		JOIN pg_foreign_data_wrapper w ON w.oid = s.srvfdw`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var srv catalog.ForeignServer
		var optionsJSON string
		if err := rows.Scan(&name, &srv.FDW, &optionsJSON, &srv.Comment); err != nil {
			return err
		}
		srv.Name = name
		srv.Options = parseOptionsJSON(optionsJSON)
		srv.ACL = catalog.ACL{}
		cat.ForeignServers[stableid.ForeignServer(name)] = &srv
	}
	return rows.Err()
}

func extractUserMappings(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT s.srvname, um.umuser::regrole::text,
		       COALESCE(hstore_to_json(hstore(um.umoptions))::text, '{}')
		FROM pg_user_mapping um
		JOIN pg_foreign_server s ON s.oid = um.umserver`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var server, user, optionsJSON string
		if err := rows.Scan(&server, &user, &optionsJSON); err != nil {
			return err
		}
		um := catalog.UserMapping{
			Server:  server,
			User:    user,
			Options: parseOptionsJSON(optionsJSON),
		}
		cat.UserMappings[stableid.UserMapping(server, user)] = &um
	}
	return rows.Err()
}

func extractSubscriptions(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT s.subname, s.subconninfo, s.subpublications, s.subenabled,
		       COALESCE(shobj_description(s.oid, 'pg_subscription'), '')
		FROM pg_subscription s`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var sub catalog.Subscription
		if err := rows.Scan(&name, &sub.ConnInfo, &sub.Publication, &sub.Enabled, &sub.Comment); err != nil {
			return err
		}
		sub.Name = name
		cat.Subscriptions[stableid.Subscription(name)] = &sub
	}
	return rows.Err()
}

func extractPublications(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT p.pubname, p.puballtables,
		       COALESCE(ARRAY(SELECT n.nspname || '.' || c.relname
		                      FROM pg_publication_rel pr
		                      JOIN pg_class c ON c.oid = pr.prrelid
		                      JOIN pg_namespace n ON n.oid = c.relnamespace
		                      WHERE pr.prpubid = p.oid), '{}'),
		       COALESCE(obj_description(p.oid, 'pg_publication'), '')
		FROM pg_publication p`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var pub catalog.Publication
		if err := rows.Scan(&name, &pub.AllTables, &pub.Tables, &pub.Comment); err != nil {
			return err
		}
		pub.Name = name
		cat.Publications[stableid.Publication(name)] = &pub
	}
	return rows.Err()
}

func extractEventTriggers(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT t.evtname, t.evtevent, COALESCE(t.evttags, '{}'), p.proname, t.evtenabled <> 'D',
		       COALESCE(obj_description(t.oid, 'pg_event_trigger'), '')
		FROM pg_event_trigger t
		JOIN pg_proc p ON p.oid = t.evtfoid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var et catalog.EventTrigger
		if err := rows.Scan(&name, &et.Event, &et.Tags, &et.Function, &et.Enabled, &et.Comment); err != nil {
			return err
		}
		et.Name = name
		cat.EventTriggers[stableid.EventTrigger(name)] = &et
	}
	return rows.Err()
}

func extractDefaultPrivileges(ctx context.Context, conn pgxConn, cat *catalog.Catalog) error {
	rows, err := conn.Query(ctx, `
		SELECT pg_get_userbyid(d.defacluser), COALESCE(n.nspname, ''), d.defaclobjtype,
		       COALESCE(ARRAY(SELECT acl.grantee::regrole::text || '=' || acl.privilege_type || '/' ||
		                      CASE WHEN acl.is_grantable THEN 'Y' ELSE 'N' END
		                      FROM aclexplode(d.defaclacl) acl), '{}')
		FROM pg_default_acl d
		LEFT JOIN pg_namespace n ON n.oid = d.defaclnamespace`)
	if err != nil {
		return err
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		var grantor, schemaName, objType string
		var rawACL []string
		if err := rows.Scan(&grantor, &schemaName, &objType, &rawACL); err != nil {
			return err
		}
		dp := &catalog.DefaultPrivilege{
			Grantor:    grantor,
			Schema:     schemaName,
			ObjectType: defaultPrivilegeObjectType(objType),
		}
		byGrantee := map[string][]catalog.Privilege{}
		for _, entry := range rawACL {
			grantee, priv, grantable := splitACLEntry(entry)
			byGrantee[grantee] = append(byGrantee[grantee], catalog.Privilege{Kind: priv, Grantable: grantable})
		}
		for grantee, privs := range byGrantee {
			entry := *dp
			entry.Grantee = grantee
			entry.Privileges = privs
			id := stableid.ID("defaultprivilege:" + grantor + "." + schemaName + "." + entry.ObjectType + "." + grantee)
			cat.DefaultPrivileges[id] = &entry
		}
		i++
	}
	return rows.Err()
}

func defaultPrivilegeObjectType(code string) string {
	switch code {
	case "r":
		return "TABLES"
	case "S":
		return "SEQUENCES"
	case "f":
		return "FUNCTIONS"
	case "T":
		return "TYPES"
	case "n":
		return "SCHEMAS"
	default:
		return code
	}
}

func splitACLEntry(entry string) (grantee, priv string, grantable bool) {
	eq := indexByte(entry, '=')
	slash := lastIndexByte(entry, '/')
	if eq < 0 || slash < 0 || slash < eq {
		return entry, "", false
	}
	grantee = entry[:eq]
	priv = entry[eq+1 : slash]
	grantable = entry[slash+1:] == "Y"
	return grantee, priv, grantable
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// parseOptionsJSON keeps option keys (needed so Mask can emit one
// placeholder per option) while discarding values immediately — the raw
// values never need to exist in memory past this call.
func parseOptionsJSON(rawJSON string) map[string]string {
	var decoded map[string]string
	if err := json.Unmarshal([]byte(rawJSON), &decoded); err != nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(decoded))
	for k := range decoded {
		out[k] = ""
	}
	return out
}

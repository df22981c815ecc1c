// Package catalogio extracts a catalog.Catalog from a live PostgreSQL
// database. It is the one piece of the pipeline classified as an
// external collaborator rather than core planning logic (spec §1): the
// planner treats catalog extraction as a pure function from a database
// connection to a catalog.Catalog value, and this package is that
// function.
//
// Extraction issues one query per object kind concurrently — this is
// the sole concurrency concern anywhere in the planning path (spec §5)
// — and reduces the results into a single immutable Catalog once every
// query resolves.
package catalogio

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sourcegraph/conc/pool"

	"github.com/stokaro/ptahdiff/catalog"
)

// Extract builds a catalog.Catalog by querying pg_catalog and
// information_schema against the database pool points at. Every
// per-kind query runs concurrently via a conc error-pool; Extract
// returns after all resolve or the first one fails.
func Extract(ctx context.Context, db *pgxpool.Pool) (*catalog.Catalog, error) {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	cat := catalog.New()

	serverVersion, currentUser, err := fetchServerInfo(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("fetching server info: %w", err)
	}
	cat.ServerVersion = serverVersion
	cat.CurrentUser = currentUser

	type extractor struct {
		name string
		run  func(context.Context, pgxConn) error
	}

	extractors := []extractor{
		{"roles", func(ctx context.Context, c pgxConn) error { return extractRoles(ctx, c, cat) }},
		{"extensions", func(ctx context.Context, c pgxConn) error { return extractExtensions(ctx, c, cat) }},
		{"languages", func(ctx context.Context, c pgxConn) error { return extractLanguages(ctx, c, cat) }},
		{"schemas", func(ctx context.Context, c pgxConn) error { return extractSchemas(ctx, c, cat) }},
		{"tables", func(ctx context.Context, c pgxConn) error { return extractTables(ctx, c, cat) }},
		{"sequences", func(ctx context.Context, c pgxConn) error { return extractSequences(ctx, c, cat) }},
		{"indexes", func(ctx context.Context, c pgxConn) error { return extractIndexes(ctx, c, cat) }},
		{"views", func(ctx context.Context, c pgxConn) error { return extractViews(ctx, c, cat) }},
		{"materialized views", func(ctx context.Context, c pgxConn) error { return extractMaterializedViews(ctx, c, cat) }},
		{"routines", func(ctx context.Context, c pgxConn) error { return extractRoutines(ctx, c, cat) }},
		{"triggers", func(ctx context.Context, c pgxConn) error { return extractTriggers(ctx, c, cat) }},
		{"types", func(ctx context.Context, c pgxConn) error { return extractTypes(ctx, c, cat) }},
		{"policies", func(ctx context.Context, c pgxConn) error { return extractPolicies(ctx, c, cat) }},
		{"foreign servers", func(ctx context.Context, c pgxConn) error { return extractForeignServers(ctx, c, cat) }},
		{"user mappings", func(ctx context.Context, c pgxConn) error { return extractUserMappings(ctx, c, cat) }},
		{"subscriptions", func(ctx context.Context, c pgxConn) error { return extractSubscriptions(ctx, c, cat) }},
		{"publications", func(ctx context.Context, c pgxConn) error { return extractPublications(ctx, c, cat) }},
		{"event triggers", func(ctx context.Context, c pgxConn) error { return extractEventTriggers(ctx, c, cat) }},
		{"default privileges", func(ctx context.Context, c pgxConn) error { return extractDefaultPrivileges(ctx, c, cat) }},
		{"pg_depend", func(ctx context.Context, c pgxConn) error { return extractDependRows(ctx, c, cat) }},
	}

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
	for _, ex := range extractors {
		ex := ex
		p.Go(func(ctx context.Context) error {
			if err := ex.run(ctx, db); err != nil {
				return fmt.Errorf("extracting %s: %w", ex.name, err)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	cat.Mask()
	return cat, nil
}

func fetchServerInfo(ctx context.Context, conn pgxConn) (int, string, error) {
	var serverVersion int
	var currentUser string
	row := conn.QueryRow(ctx, "SELECT current_setting('server_version_num')::int, current_user")
	if err := row.Scan(&serverVersion, &currentUser); err != nil {
		return 0, "", err
	}
	return serverVersion, currentUser, nil
}

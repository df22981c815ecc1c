package ptahdiff

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/catalogio"
)

// loadCatalog resolves one side of a diff: a live DSN takes precedence
// over a JSON snapshot file when both are given. When both are empty,
// loadSnapshot returns an error.
func loadCatalog(ctx context.Context, dsn, file string) (*catalog.Catalog, error) {
	if dsn != "" {
		return extractLive(ctx, dsn)
	}
	return loadSnapshot(file)
}

func extractLive(ctx context.Context, dsn string) (*catalog.Catalog, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", redactDSN(dsn), err)
	}
	defer pool.Close()

	cat, err := catalogio.Extract(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("extracting catalog from %s: %w", redactDSN(dsn), err)
	}
	return cat, nil
}

func loadSnapshot(path string) (*catalog.Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("neither a --dsn nor a --file was given for a catalog side")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog snapshot %s: %w", path, err)
	}
	cat := catalog.New()
	if err := json.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("parsing catalog snapshot %s: %w", path, err)
	}
	return cat, nil
}

// redactDSN never lets a connection string carrying credentials reach
// stdout on an error path.
func redactDSN(string) string { return "<connection>" }

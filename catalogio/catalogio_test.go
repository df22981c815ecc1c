//go:build integration

package catalogio_test

import (
	"context"
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stokaro/ptahdiff/catalogio"
)

// TestExtract_LiveDatabase exercises the real extraction path against a
// running PostgreSQL instance. There is no meaningful way to assert on
// extraction behavior without one, so the test is skipped entirely
// unless POSTGRES_TEST_DSN is set, mirroring the gating
// integration/gonative uses for its own driver tests.
func TestExtract_LiveDatabase(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("Skipping catalog extraction: POSTGRES_TEST_DSN environment variable not set")
	}

	c := qt.New(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	c.Assert(err, qt.IsNil)
	defer pool.Close()

	cat, err := catalogio.Extract(ctx, pool)
	c.Assert(err, qt.IsNil)
	c.Assert(cat, qt.IsNotNil)
	c.Assert(cat.ServerVersion > 0, qt.IsTrue)
	c.Assert(cat.CurrentUser, qt.Not(qt.Equals), "")

	// public always exists on a fresh database, and extraction must
	// surface it like any other schema.
	found := false
	for _, s := range cat.Schemas {
		if s.Name == "public" {
			found = true
			break
		}
	}
	c.Assert(found, qt.IsTrue)
}

// TestExtract_MasksSecrets verifies that any foreign-server/user-mapping
// options and subscription connection strings come back masked, even
// when none exist in the test database — Mask must be a no-op, not a
// panic, on empty maps.
func TestExtract_MasksSecrets(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("Skipping catalog extraction: POSTGRES_TEST_DSN environment variable not set")
	}

	c := qt.New(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	c.Assert(err, qt.IsNil)
	defer pool.Close()

	cat, err := catalogio.Extract(ctx, pool)
	c.Assert(err, qt.IsNil)

	for _, srv := range cat.ForeignServers {
		for _, v := range srv.Options {
			c.Assert(v, qt.Not(qt.Equals), "")
		}
	}
	for _, sub := range cat.Subscriptions {
		if sub.ConnInfo != "" {
			c.Assert(sub.ConnInfo, qt.Equals, "__CONN_HOST__")
		}
	}
}

// Package diff implements the per-kind structural diff (spec §4.1) and its
// aggregator, the catalog diff (spec §4.1 "Catalog Diff", ~3%).
//
// Each file in this package owns one object kind: it partitions the
// source and target maps into created/dropped/altered, decides which
// altered entries are alterable in place versus which must be replaced
// (drop+create), and emits change.Change values accordingly. None of
// these procedures mutate their inputs; they only read from the two
// catalogs and append to a slice of changes.
package diff

import (
	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/config"
)

// Context carries the small amount of cross-cutting state every per-kind
// diff needs: the server version being targeted, the user the plan will
// run as, the options in effect, and the two full catalogs. It carries
// no separate default-privilege baseline.
type Context struct {
	ServerVersion int
	CurrentUser   string
	Options       *config.PlanOptions

	// Source and Target are the two full catalogs; most per-kind diffs
	// only need their own kind's maps, but privilege diffing and
	// custom-rule evaluation occasionally need to cross-reference roles
	// or default privileges.
	Source *catalog.Catalog
	Target *catalog.Catalog
}

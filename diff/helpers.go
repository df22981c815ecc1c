package diff

import (
	"fmt"

	"github.com/stokaro/ptahdiff/stableid"
)

// schemaOf returns the first qualifier segment of id, which is the
// owning schema name for every schema-scoped object kind ptahdiff tracks.
func schemaOf(id stableid.ID) string {
	parts := id.Parts()
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// qualified renders "schema"."name" for an object addressed by id, using
// name as the unfolded display name (id's own qualifier segments are
// case-folded and not safe to render back into SQL).
func qualified(id stableid.ID, name string) string {
	return fmt.Sprintf("%q.%q", schemaOf(id), name)
}

package plan

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
)

// touchedEntry is one stable ID's contribution to a fingerprint: its ID
// string and, if present in the catalog being fingerprinted, the
// object's canonical (JSON) form. Field order is fixed so
// encoding/json's deterministic map-key sorting is the only source of
// ordering variance left to control, which Fingerprint does by
// sorting the entries themselves.
type touchedEntry struct {
	ID     stableid.ID `json:"id"`
	Object any         `json:"object,omitempty"`
}

// Fingerprint computes a stable hash over every stable ID any change in
// changes creates, drops, or requires, each mapped to its canonical
// data form in cat (or omitted if cat doesn't contain it — e.g. an ID a
// change creates is absent from the source catalog). Two fingerprints
// computed from equivalent (catalog, changes) pairs are byte-identical,
// satisfying spec §8's determinism property.
func Fingerprint(changes []*change.Change, cat *catalog.Catalog) (string, error) {
	ids := touchedIDs(changes)

	entries := make([]touchedEntry, 0, len(ids))
	for _, id := range ids {
		entry := touchedEntry{ID: id}
		if obj, ok := cat.Lookup(id); ok {
			entry.Object = obj
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func touchedIDs(changes []*change.Change) []stableid.ID {
	seen := make(map[stableid.ID]bool)
	var out []stableid.ID
	add := func(ids []stableid.ID) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	for _, c := range changes {
		add(c.Creates())
		add(c.Drops())
		add(c.Requires())
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

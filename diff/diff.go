package diff

import (
	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/config"
)

// Catalog is the aggregator (spec §4.1 "Catalog Diff", ~3% of the
// system): it invokes each per-kind diff and concatenates the resulting
// unordered change list. Order of invocation here has no bearing on the
// final plan — presort and topo own ordering entirely. The per-kind
// diffs range over Go maps, so the order of changes within one kind's
// output can differ between runs.
func Catalog(source, target *catalog.Catalog, opts *config.PlanOptions) ([]*change.Change, error) {
	if opts == nil {
		opts = config.DefaultPlanOptions()
	}
	if err := source.Validate(); err != nil {
		return nil, err
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}

	ctx := &Context{
		ServerVersion: target.ServerVersion,
		CurrentUser:   target.CurrentUser,
		Options:       opts,
		Source:        source,
		Target:        target,
	}

	var out []*change.Change
	out = append(out, Roles(ctx)...)
	out = append(out, Extensions(ctx)...)
	out = append(out, Schemas(ctx)...)
	out = append(out, Types(ctx)...)
	out = append(out, Tables(ctx)...)
	out = append(out, Sequences(ctx)...)
	out = append(out, Indexes(ctx)...)
	out = append(out, Views(ctx)...)
	out = append(out, MaterializedViews(ctx)...)
	out = append(out, Functions(ctx)...)
	out = append(out, Procedures(ctx)...)
	out = append(out, Triggers(ctx)...)
	out = append(out, Policies(ctx)...)
	out = append(out, DefaultPrivileges(ctx)...)
	out = append(out, ForeignServers(ctx)...)
	out = append(out, UserMappings(ctx)...)
	out = append(out, Publications(ctx)...)
	out = append(out, Subscriptions(ctx)...)
	out = append(out, EventTriggers(ctx)...)

	return out, nil
}

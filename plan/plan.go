// Package plan implements the Plan Assembler (spec §4.4): it turns a
// topo-ordered change list into the artifact callers actually act on —
// fingerprinted, risk-classified, ready-to-execute SQL statements.
package plan

import (
	"fmt"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/config"
)

// Risk classifies whether applying a Plan can destroy data.
type Risk string

const (
	RiskSafe     Risk = "safe"
	RiskDataLoss Risk = "data_loss"
)

// Plan is the artifact produced from an ordered change list: the
// statements to run, the risk they carry, and fingerprints that make
// two plans from equivalent inputs comparable without re-running the
// diff.
type Plan struct {
	Version            int
	SourceFingerprint  string
	TargetFingerprint  string
	Statements         []string
	Risk               Risk
	RiskReasons        []string
	FilterDescriptor   string
	SerializeDescriptor string
}

const currentVersion = 1

// Build assembles a Plan from an already topo-sorted change list. It
// does not sort; callers run diff → presort → topo → plan.Build in that
// order. Returns a nil Plan with no error when changes is empty, per
// spec §8's round-trip property ("plan(C, C) is null").
func Build(changes []*change.Change, source, target *catalog.Catalog, opts *config.PlanOptions) (*Plan, error) {
	if len(changes) == 0 {
		return nil, nil
	}
	if opts == nil {
		opts = config.DefaultPlanOptions()
	}

	sourceFP, err := Fingerprint(changes, source)
	if err != nil {
		return nil, fmt.Errorf("computing source fingerprint: %w", err)
	}
	targetFP, err := Fingerprint(changes, target)
	if err != nil {
		return nil, fmt.Errorf("computing target fingerprint: %w", err)
	}

	statements := make([]string, 0, len(changes)+2)
	if opts.Role != "" {
		statements = append(statements, fmt.Sprintf("SET ROLE %q;", opts.Role))
	}
	if opts.DisableFunctionBodyChecks && includesRoutineWrite(changes) {
		statements = append(statements, "SET check_function_bodies = false;")
	}
	for _, c := range changes {
		statements = append(statements, c.SQL())
	}

	risk := RiskSafe
	var reasons []string
	for _, c := range changes {
		if c.DataLossReason != "" {
			risk = RiskDataLoss
			reasons = append(reasons, c.DataLossReason)
		}
	}

	return &Plan{
		Version:           currentVersion,
		SourceFingerprint: sourceFP,
		TargetFingerprint: targetFP,
		Statements:        statements,
		Risk:              risk,
		RiskReasons:       reasons,
	}, nil
}

func includesRoutineWrite(changes []*change.Change) bool {
	for _, c := range changes {
		if (c.ObjectKind == "function" || c.ObjectKind == "procedure") && c.Operation() != change.OpDrop {
			return true
		}
	}
	return false
}

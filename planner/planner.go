// Package planner assembles the diff, presort, topological-order, and
// plan-build stages into a single driver, the way migrator.Migrator
// wraps the teacher's migration steps: a *slog.Logger field defaulting
// to slog.Default(), set through a value-receiver WithLogger copy, with
// structured attributes logged at each stage boundary.
package planner

import (
	"fmt"
	"log/slog"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/config"
	"github.com/stokaro/ptahdiff/diff"
	"github.com/stokaro/ptahdiff/plan"
	"github.com/stokaro/ptahdiff/presort"
	"github.com/stokaro/ptahdiff/topo"
)

// Planner drives diff -> presort -> topo -> plan.Build against a pair
// of catalogs.
type Planner struct {
	logger *slog.Logger
	rules  []topo.CustomRule
}

// New returns a Planner using topo.DefaultRules() for ordering and
// slog.Default() for logging.
func New() *Planner {
	return &Planner{logger: slog.Default(), rules: topo.DefaultRules()}
}

// WithLogger returns a copy of p using l for structured logging.
func (p *Planner) WithLogger(l *slog.Logger) *Planner {
	tmp := *p
	tmp.logger = l
	return &tmp
}

// WithRules returns a copy of p using rules instead of
// topo.DefaultRules() for the ordering stage.
func (p *Planner) WithRules(rules []topo.CustomRule) *Planner {
	tmp := *p
	tmp.rules = rules
	return &tmp
}

// Plan diffs source against target, groups and orders the resulting
// changes, and assembles the final Plan, logging the size of each
// stage's output.
func (p *Planner) Plan(source, target *catalog.Catalog, opts *config.PlanOptions) (*plan.Plan, error) {
	logger := p.logger
	if logger == nil {
		logger = slog.Default()
	}
	rules := p.rules
	if rules == nil {
		rules = topo.DefaultRules()
	}

	changes, err := diff.Catalog(source, target, opts)
	if err != nil {
		return nil, fmt.Errorf("diffing catalogs: %w", err)
	}
	logger.Info("diffed catalogs", slog.Int("changes", len(changes)))

	changes = presort.Group(changes)

	ordered, err := topo.Sort(changes, source, target, rules)
	if err != nil {
		return nil, fmt.Errorf("ordering changes: %w", err)
	}
	for _, c := range ordered {
		logger.Info("change ordered", slog.String("change", c.Variant), slog.String("kind", c.ObjectKind))
	}

	result, err := plan.Build(ordered, source, target, opts)
	if err != nil {
		return nil, fmt.Errorf("assembling plan: %w", err)
	}

	risk := "none"
	statements := 0
	if result != nil {
		risk = string(result.Risk)
		statements = len(result.Statements)
	}
	logger.Info("assembled plan", slog.String("risk", risk), slog.Int("statements", statements))

	return result, nil
}

// Package config provides configuration options for the ptahdiff schema
// migration planner.
//
// It follows the same functional-options shape throughout: a
// DefaultXxxOptions constructor, WithXxx(...) builders that return a new
// value rather than mutating the receiver, and small predicate/filter
// helper methods alongside each options struct.
package config

// PlanOptions contains configuration options for diffing and ordering a
// migration plan.
type PlanOptions struct {
	// IgnoredExtensions is a list of PostgreSQL extension names that
	// should be ignored during schema diffing. These extensions will:
	//   - Never be created or dropped, even if missing from one side
	//   - Be excluded from the diff entirely
	//   - Be treated as if they don't exist for comparison purposes
	//
	// Common extensions to ignore include:
	//   - plpgsql: Default procedural language, usually pre-installed
	//   - adminpack: Administrative functions, often pre-installed
	IgnoredExtensions []string

	// IgnoredSchemas is a list of schema names (e.g. "pg_catalog",
	// "information_schema") reported by IsSchemaIgnored. The per-kind
	// diffs in package diff do not consult it, so objects in these
	// schemas are still diffed.
	IgnoredSchemas []string

	// IgnoredRoles excludes specific roles from role diffing, typically
	// connection-bootstrap roles managed outside the plan.
	IgnoredRoles []string

	// Role, when non-empty, is prepended to the plan's statement list as
	// SET ROLE "<Role>" (spec §4.4).
	Role string

	// DisableFunctionBodyChecks controls whether the assembled plan
	// prepends SET check_function_bodies = false when it includes any
	// routine create/replace (spec §4.4). Defaults to true.
	DisableFunctionBodyChecks bool
}

// DefaultPlanOptions returns the default plan options with sensible
// defaults: commonly pre-installed extensions ignored, function body
// checks disabled during planning (they run again, explicitly, during
// apply's validation pass).
func DefaultPlanOptions() *PlanOptions {
	return &PlanOptions{
		IgnoredExtensions: []string{
			"plpgsql", // PostgreSQL procedural language - usually pre-installed
		},
		DisableFunctionBodyChecks: true,
	}
}

// WithIgnoredExtensions returns a new PlanOptions with the specified
// ignored extensions. This completely replaces the default list.
func (o *PlanOptions) WithIgnoredExtensions(extensions ...string) *PlanOptions {
	clone := *o
	clone.IgnoredExtensions = extensions
	return &clone
}

// WithAdditionalIgnoredExtensions returns a new PlanOptions that includes
// the receiver's ignored extensions plus the additional ones specified.
func (o *PlanOptions) WithAdditionalIgnoredExtensions(extensions ...string) *PlanOptions {
	clone := *o
	all := make([]string, len(o.IgnoredExtensions)+len(extensions))
	copy(all, o.IgnoredExtensions)
	copy(all[len(o.IgnoredExtensions):], extensions)
	clone.IgnoredExtensions = all
	return &clone
}

// WithRole returns a new PlanOptions that SETs ROLE to role before
// running the plan's statements.
func (o *PlanOptions) WithRole(role string) *PlanOptions {
	clone := *o
	clone.Role = role
	return &clone
}

// WithIgnoredSchemas returns a new PlanOptions with the specified ignored
// schemas, replacing the receiver's list.
func (o *PlanOptions) WithIgnoredSchemas(schemas ...string) *PlanOptions {
	clone := *o
	clone.IgnoredSchemas = schemas
	return &clone
}

// WithIgnoredRoles returns a new PlanOptions with the specified ignored
// roles, replacing the receiver's list.
func (o *PlanOptions) WithIgnoredRoles(roles ...string) *PlanOptions {
	clone := *o
	clone.IgnoredRoles = roles
	return &clone
}

// IsExtensionIgnored checks if the given extension name should be
// ignored during schema diffing based on the current configuration.
func (o *PlanOptions) IsExtensionIgnored(name string) bool {
	return contains(o.IgnoredExtensions, name)
}

// IsSchemaIgnored checks if the given schema name should be ignored.
func (o *PlanOptions) IsSchemaIgnored(name string) bool {
	return contains(o.IgnoredSchemas, name)
}

// IsRoleIgnored checks if the given role name should be ignored.
func (o *PlanOptions) IsRoleIgnored(name string) bool {
	return contains(o.IgnoredRoles, name)
}

// FilterIgnoredExtensions removes ignored extensions from the provided
// slice and returns a new slice containing only non-ignored extensions.
func (o *PlanOptions) FilterIgnoredExtensions(extensions []string) []string {
	filtered := make([]string, 0, len(extensions))
	for _, e := range extensions {
		if !o.IsExtensionIgnored(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// ApplyOptions contains configuration options for the round-based
// applier (spec §4.5).
type ApplyOptions struct {
	// MaxRounds is the maximum number of passes over the pending
	// statement list before giving up with status "stuck". Default 100.
	MaxRounds int

	// DisableFunctionBodyChecksDuringApply sets
	// check_function_bodies = off for the main apply loop so that
	// forward-referencing function bodies don't block progress purely on
	// a body-validity check. Default true.
	DisableFunctionBodyChecksDuringApply bool

	// RunValidationPass controls whether a final pass re-executes every
	// remembered CREATE_FUNCTION/CREATE_PROCEDURE statement (rewritten to
	// CREATE OR REPLACE) with check_function_bodies = on. Default true.
	RunValidationPass bool
}

// DefaultApplyOptions returns the default apply options.
func DefaultApplyOptions() *ApplyOptions {
	return &ApplyOptions{
		MaxRounds:                            100,
		DisableFunctionBodyChecksDuringApply: true,
		RunValidationPass:                    true,
	}
}

// WithMaxRounds returns a new ApplyOptions with the given round cap.
func (o *ApplyOptions) WithMaxRounds(n int) *ApplyOptions {
	clone := *o
	clone.MaxRounds = n
	return &clone
}

// WithValidationPass returns a new ApplyOptions that does or does not run
// the final function-body validation pass.
func (o *ApplyOptions) WithValidationPass(run bool) *ApplyOptions {
	clone := *o
	clone.RunValidationPass = run
	return &clone
}

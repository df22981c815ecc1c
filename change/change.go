// Package change defines the taxonomy of DDL operations the planner may
// emit. Rather than one Go type per concrete DDL operation — which would
// mean several hundred near-identical struct definitions for what is
// fundamentally a three-field discriminated union (object kind, operation,
// scope) — ptahdiff represents every variant as a single Change value
// carrying that discriminant plus a Variant name and a pre-rendered SQL
// body. This is the tagged-sum-type design the architecture calls for,
// expressed through an enum discriminant instead of a Go type per case;
// per-kind diff code still gives every DDL operation a distinct Variant
// name (CreateTable, AlterTableAddColumn, DropDomain, ...), so the
// taxonomy is just as enumerable, it simply shares representation.
package change

import (
	"fmt"
	"sort"

	"github.com/stokaro/ptahdiff/stableid"
)

// Operation is the coarse-grained action a Change performs.
type Operation string

const (
	OpCreate Operation = "create"
	OpAlter  Operation = "alter"
	OpDrop   Operation = "drop"
)

// Scope distinguishes the "core" change on an object from attached
// metadata/ACL changes, for logical-presort ordering purposes.
type Scope string

const (
	ScopeObject    Scope = "object"
	ScopeComment   Scope = "comment"
	ScopePrivilege Scope = "privilege"
)

// Change is one DDL statement's worth of planning metadata: what it
// brings into existence, what it removes, what must already exist for it
// to run, and the rendered SQL text.
type Change struct {
	Variant    string // e.g. "CreateTable", "AlterTableAddColumn", "DropDomain"
	ObjectKind string // catalog.ObjectKind value, kept as string to avoid an import cycle
	Op         Operation
	Scp        Scope

	CreatesIDs  []stableid.ID
	DropsIDs    []stableid.ID
	RequiresIDs []stableid.ID

	// SchemaName and Parent drive the logical pre-sort (package presort);
	// Parent is the owning table/view/etc. stable ID, or "" for
	// schema-level objects.
	SchemaName string
	Parent     stableid.ID

	SQLText string

	// DataLossReason is non-empty for changes the plan assembler must
	// flag as risky (DROP TABLE, DROP COLUMN, DROP SEQUENCE).
	DataLossReason string

	// StatementClass mirrors spec §6's apply-input statement_class: one
	// of CREATE_FUNCTION, CREATE_PROCEDURE, CREATE_SUBSCRIPTION,
	// CREATE_EVENT_TRIGGER, CREATE_ROLE, or "". The applier's own
	// Statement.StatementClass (CREATE_FUNCTION/CREATE_PROCEDURE) selects
	// statements for final-body revalidation; error classification uses
	// only the SQLSTATE.
	StatementClass string
}

// Creates returns the stable IDs this change brings into existence.
func (c *Change) Creates() []stableid.ID { return c.CreatesIDs }

// Drops returns the stable IDs this change removes.
func (c *Change) Drops() []stableid.ID { return c.DropsIDs }

// Requires returns the stable IDs that must already exist when this
// change executes.
func (c *Change) Requires() []stableid.ID { return c.RequiresIDs }

// Operation returns the create/alter/drop tag.
func (c *Change) Operation() Operation { return c.Op }

// Scope returns the object/comment/privilege tag.
func (c *Change) Scope() Scope { return c.Scp }

// SQL renders this change's statement text.
func (c *Change) SQL() string { return c.SQLText }

// String gives a human-readable one-liner used in cycle error messages
// and logging.
func (c *Change) String() string {
	return fmt.Sprintf("%s(%s)", c.Variant, c.describeIDs())
}

func (c *Change) describeIDs() string {
	switch {
	case len(c.CreatesIDs) > 0:
		return string(c.CreatesIDs[0])
	case len(c.DropsIDs) > 0:
		return string(c.DropsIDs[0])
	default:
		return string(c.Parent)
	}
}

// New builds a Change. Per-kind diff packages use this as their single
// entry point rather than exposing one constructor per DDL operation,
// which keeps the ~150-variant taxonomy expressible without type
// proliferation; callers pass the variant name that identifies the case.
func New(variant string, kind string, op Operation, scope Scope, schema string, parent stableid.ID, sql string, creates, drops, requires []stableid.ID) *Change {
	return &Change{
		Variant:     variant,
		ObjectKind:  kind,
		Op:          op,
		Scp:         scope,
		SchemaName:  schema,
		Parent:      parent,
		SQLText:     sql,
		CreatesIDs:  creates,
		DropsIDs:    drops,
		RequiresIDs: requires,
	}
}

// WithDataLoss marks c as risky and returns it, for chaining at
// construction sites.
func (c *Change) WithDataLoss(reason string) *Change {
	c.DataLossReason = reason
	return c
}

// SortIDs returns a sorted copy of ids, used wherever deterministic
// output order matters (fingerprinting, cycle error messages).
func SortIDs(ids []stableid.ID) []stableid.ID {
	out := make([]stableid.ID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

package catalog

// ObjectKind enumerates the object kinds ptahdiff tracks. Each kind has an
// associated map in Catalog and an associated per-kind diff procedure in
// package diff.
type ObjectKind string

const (
	KindSchema           ObjectKind = "schema"
	KindRole             ObjectKind = "role"
	KindExtension        ObjectKind = "extension"
	KindLanguage         ObjectKind = "language"
	KindTable            ObjectKind = "table"
	KindColumn           ObjectKind = "column"
	KindConstraint       ObjectKind = "constraint"
	KindIndex            ObjectKind = "index"
	KindSequence         ObjectKind = "sequence"
	KindView             ObjectKind = "view"
	KindMaterializedView ObjectKind = "matview"
	KindFunction         ObjectKind = "function"
	KindProcedure        ObjectKind = "procedure"
	KindTrigger          ObjectKind = "trigger"
	KindType             ObjectKind = "type"
	KindPolicy           ObjectKind = "policy"
	KindForeignServer    ObjectKind = "server"
	KindUserMapping      ObjectKind = "usermapping"
	KindSubscription     ObjectKind = "subscription"
	KindPublication      ObjectKind = "publication"
	KindEventTrigger     ObjectKind = "eventtrigger"
	KindComment          ObjectKind = "comment"
	KindACL              ObjectKind = "acl"
	KindDefaultPrivilege ObjectKind = "defaultprivilege"
)

// Privilege is one (privilege-kind, grantable) tuple held by a grantee on
// some object, e.g. ("SELECT", false).
type Privilege struct {
	Kind       string // SELECT, INSERT, UPDATE, DELETE, USAGE, EXECUTE, ...
	Grantable  bool
}

// ACL is the access-control list attached to an object: grantee role name
// to the set of privileges it holds. The owner is never represented here —
// owners hold ALL implicitly and are excluded from privilege diffing.
type ACL map[string][]Privilege

// Schema is a CREATE SCHEMA target.
type Schema struct {
	Name    string
	Owner   string
	Comment string
	ACL     ACL
}

// Role is a CREATE ROLE target.
type Role struct {
	Name            string
	Login           bool
	Superuser       bool
	CreateDB        bool
	CreateRole      bool
	Inherit         bool
	Replication     bool
	ConnectionLimit int
	Password        string // encrypted, opaque
	MemberOf        []string
	Comment         string
}

// Extension is a CREATE EXTENSION target.
type Extension struct {
	Name    string
	Schema  string
	Version string
	Comment string
}

// Language is a CREATE LANGUAGE target (procedural languages).
type Language struct {
	Name     string
	Trusted  bool
	Comment  string
}

// Column belongs to a Table, keyed standalone for column-level diffing but
// always addressed through its owning table's stable ID namespace.
type Column struct {
	Name         string
	DataType     string
	Nullable     bool
	Default      string
	Generated    string // "" | "ALWAYS" | "BY DEFAULT" (identity) | "STORED" (generated expr)
	GeneratedExpr string
	Collation    string
	Comment      string
	Position     int
}

// Constraint covers primary key, unique, foreign key, check, and exclusion
// constraints.
type Constraint struct {
	Name              string
	Type              string // PRIMARY KEY, UNIQUE, FOREIGN KEY, CHECK, EXCLUDE
	Columns           []string
	Expression        string // CHECK expression or EXCLUDE predicate
	ReferencedSchema  string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string
	OnUpdate          string
	Deferrable        bool
	InitiallyDeferred bool
	Validated         bool
	Comment           string
}

// Index is a CREATE INDEX target.
type Index struct {
	Name       string
	Table      string
	Unique     bool
	Method     string // btree, gin, gist, ...
	Columns    []string
	Expression string // full index definition for expression indexes
	Predicate  string // partial index WHERE clause
	Comment    string
}

// Sequence is a CREATE SEQUENCE target.
type Sequence struct {
	Name      string
	DataType  string
	Start     int64
	Increment int64
	MinValue  int64
	MaxValue  int64
	Cycle     bool
	OwnedBy   string // "schema.table.column" or ""
	Comment   string
	ACL       ACL
}

// View is a CREATE VIEW target.
type View struct {
	Name       string
	Definition string
	Comment    string
	ACL        ACL
}

// MaterializedView is a CREATE MATERIALIZED VIEW target.
type MaterializedView struct {
	Name       string
	Definition string
	WithData   bool
	Comment    string
	ACL        ACL
}

// Routine is shared payload for Function and Procedure.
type Routine struct {
	Name       string
	Schema     string
	Arguments  []string // formatted "name type" pairs, in order
	ReturnType string   // "" for procedures
	Language   string
	Body       string
	Volatility string // VOLATILE, STABLE, IMMUTABLE
	Security   string // DEFINER, INVOKER
	Comment    string
	ACL        ACL
}

// Trigger is a CREATE TRIGGER target.
type Trigger struct {
	Name       string
	Table      string
	Timing     string // BEFORE, AFTER, INSTEAD OF
	Events     []string
	Level      string // ROW, STATEMENT
	Function   string
	Arguments  []string
	Condition  string
	Comment    string
}

// Type covers enum, domain, composite, and range types.
type Type struct {
	Name     string
	Kind     string // enum, domain, composite, range
	Values   []string // enum
	BaseType string   // domain
	Check    string   // domain
	NotNull  bool     // domain
	Default  string   // domain
	Attrs    []Column // composite
	Subtype  string   // range
	Comment  string
}

// Policy is a CREATE POLICY (row-level security) target.
type Policy struct {
	Name            string
	Table           string
	Permissive      bool
	For             string // ALL, SELECT, INSERT, UPDATE, DELETE
	Roles           []string
	UsingExpr       string
	WithCheckExpr   string
}

// ForeignServer is a CREATE SERVER target. Options are masked at
// extraction time (see Mask) because they often carry connection secrets.
type ForeignServer struct {
	Name        string
	FDW         string
	Options     map[string]string
	Comment     string
	ACL         ACL
}

// UserMapping is a CREATE USER MAPPING target. Options are masked.
type UserMapping struct {
	Server  string
	User    string
	Options map[string]string
}

// Subscription is a CREATE SUBSCRIPTION target. ConnInfo is masked.
type Subscription struct {
	Name        string
	ConnInfo    string
	Publication []string
	Enabled     bool
	Comment     string
}

// Publication is a CREATE PUBLICATION target.
type Publication struct {
	Name    string
	Tables  []string
	AllTables bool
	Comment string
}

// EventTrigger is a CREATE EVENT TRIGGER target.
type EventTrigger struct {
	Name     string
	Event    string
	Tags     []string
	Function string
	Enabled  bool
	Comment  string
}

// Table is the aggregate object for a relation: its own properties plus
// the columns, constraints, RLS toggle, and privileges that the per-kind
// diff decomposes into individual changes.
type Table struct {
	Name        string
	Owner       string
	Columns     []Column
	Constraints []Constraint
	RLSEnabled  bool
	RLSForced   bool
	StorageParams map[string]string
	Comment     string
	ACL         ACL
}

// DefaultPrivilege models an ALTER DEFAULT PRIVILEGES entry: the set of
// privileges future objects of ObjectType, created by Grantor within
// Schema (or server-wide if Schema == ""), will carry for Grantee.
type DefaultPrivilege struct {
	Grantor    string
	Schema     string
	ObjectType string // TABLES, SEQUENCES, FUNCTIONS, TYPES, SCHEMAS
	Grantee    string
	Privileges []Privilege
}

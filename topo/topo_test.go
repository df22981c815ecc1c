package topo_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/stableid"
	"github.com/stokaro/ptahdiff/topo"
)

func newChange(variant, kind string, op change.Operation, schema string, creates, requires []stableid.ID) *change.Change {
	return change.New(variant, kind, op, change.ScopeObject, schema, "", variant+";", creates, nil, requires)
}

func TestSort_LinearDependency(t *testing.T) {
	c := qt.New(t)

	schemaID := stableid.Schema("app")
	tableID := stableid.Table("app", "users")
	indexID := stableid.Index("app", "idx_users_email")

	createSchema := newChange("CreateSchema", "schema", change.OpCreate, "app", []stableid.ID{schemaID}, nil)
	createTable := newChange("CreateTable", "table", change.OpCreate, "app", []stableid.ID{tableID}, []stableid.ID{schemaID})
	createIndex := newChange("CreateIndex", "index", change.OpCreate, "app", []stableid.ID{indexID}, []stableid.ID{tableID})

	// Shuffle input order; the sort must still restore dependency order.
	changes := []*change.Change{createIndex, createTable, createSchema}

	target := catalog.New()
	sorted, err := topo.Sort(changes, catalog.New(), target, topo.DefaultRules())
	c.Assert(err, qt.IsNil)
	c.Assert(sorted, qt.HasLen, 3)
	c.Assert(sorted[0].Variant, qt.Equals, "CreateSchema")
	c.Assert(sorted[1].Variant, qt.Equals, "CreateTable")
	c.Assert(sorted[2].Variant, qt.Equals, "CreateIndex")
}

func TestSort_DropsPrecedeCreates(t *testing.T) {
	c := qt.New(t)

	dropTable := change.New("DropTable", "table", change.OpDrop, change.ScopeObject, "app", "",
		"DROP TABLE app.old;", nil, []stableid.ID{stableid.Table("app", "old")}, nil)
	createTable := newChange("CreateTable", "table", change.OpCreate, "app", []stableid.ID{stableid.Table("app", "new")}, nil)

	sorted, err := topo.Sort([]*change.Change{createTable, dropTable}, catalog.New(), catalog.New(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(sorted, qt.HasLen, 2)
	c.Assert(sorted[0].Variant, qt.Equals, "DropTable")
	c.Assert(sorted[1].Variant, qt.Equals, "CreateTable")
}

func TestSort_MutualForeignKeyCycleBroken(t *testing.T) {
	c := qt.New(t)

	ordersID := stableid.Table("app", "orders")
	customersID := stableid.Table("app", "customers")

	createOrders := newChange("CreateTable", "table", change.OpCreate, "app", []stableid.ID{ordersID}, nil)
	createCustomers := newChange("CreateTable", "table", change.OpCreate, "app", []stableid.ID{customersID}, nil)

	target := catalog.New()
	target.DependRows = []catalog.PgDependRow{
		{Dependent: ordersID, Referenced: customersID, DepType: catalog.DepNormal},
		{Dependent: customersID, Referenced: ordersID, DepType: catalog.DepNormal},
	}
	target.Tables[ordersID] = &catalog.Table{Name: "orders"}
	target.Tables[customersID] = &catalog.Table{Name: "customers"}

	sorted, err := topo.Sort([]*change.Change{createOrders, createCustomers}, catalog.New(), target, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(sorted, qt.HasLen, 2)
}

func TestSort_UnbreakableCycleReturnsCycleError(t *testing.T) {
	c := qt.New(t)

	aID := stableid.Function("app", "a", 0)
	bID := stableid.Function("app", "b", 0)

	// Two changes that explicitly require each other via a hard
	// (non-catalog, non-table) edge cannot be broken by the soft-edge
	// heuristic, which only applies to table-to-table FK dependencies.
	changeA := newChange("CreateFunction", "function", change.OpCreate, "app", []stableid.ID{aID}, []stableid.ID{bID})
	changeB := newChange("CreateFunction", "function", change.OpCreate, "app", []stableid.ID{bID}, []stableid.ID{aID})

	_, err := topo.Sort([]*change.Change{changeA, changeB}, catalog.New(), catalog.New(), nil)
	c.Assert(err, qt.Not(qt.IsNil))
	var cycleErr *topo.CycleError
	c.Assert(err, qt.ErrorAs, &cycleErr)
	c.Assert(cycleErr.Changes, qt.HasLen, 2)
}

func TestSort_UnknownPgDependRowsAreDropped(t *testing.T) {
	c := qt.New(t)

	tableID := stableid.Table("app", "widgets")
	createTable := newChange("CreateTable", "table", change.OpCreate, "app", []stableid.ID{tableID}, nil)

	target := catalog.New()
	target.Tables[tableID] = &catalog.Table{Name: "widgets"}
	// A dependency row naming an object absent from this catalog (e.g.
	// pre-existing infrastructure) must not cause a panic or a spurious
	// edge; it is silently dropped.
	target.DependRows = []catalog.PgDependRow{
		{Dependent: tableID, Referenced: stableid.Extension("uuid-ossp"), DepType: catalog.DepNormal},
	}

	sorted, err := topo.Sort([]*change.Change{createTable}, catalog.New(), target, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(sorted, qt.HasLen, 1)
}

func TestSort_DefaultPrivilegePrecedesObjectCreationInSchema(t *testing.T) {
	c := qt.New(t)

	tableID := stableid.Table("app", "widgets")
	defPrivID := stableid.ID("defaultprivilege:app:TABLES:app_role")

	defPriv := change.New("AlterDefaultPrivilegesGrant", "defaultprivilege", change.OpCreate, change.ScopePrivilege, "app", "",
		"ALTER DEFAULT PRIVILEGES ...;", []stableid.ID{defPrivID}, nil,
		[]stableid.ID{stableid.Role("app_role")})
	createTable := newChange("CreateTable", "table", change.OpCreate, "app", []stableid.ID{tableID}, nil)

	sorted, err := topo.Sort([]*change.Change{createTable, defPriv}, catalog.New(), catalog.New(), topo.DefaultRules())
	c.Assert(err, qt.IsNil)
	c.Assert(sorted[0].Variant, qt.Equals, "AlterDefaultPrivilegesGrant")
	c.Assert(sorted[1].Variant, qt.Equals, "CreateTable")
}

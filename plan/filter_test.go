package plan_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/plan"
	"github.com/stokaro/ptahdiff/stableid"
)

func TestFilter_ExcludesDirectDependent(t *testing.T) {
	c := qt.New(t)

	tableID := stableid.Table("public", "posts")
	indexID := stableid.Index("public", "idx_posts_slug")

	createTable := change.New("CreateTable", "table", change.OpCreate, change.ScopeObject, "public", "",
		"CREATE TABLE public.posts (id int);", []stableid.ID{tableID}, nil, nil)
	createIndex := change.New("CreateIndex", "index", change.OpCreate, change.ScopeObject, "public", tableID,
		"CREATE INDEX ...;", []stableid.ID{indexID}, nil, []stableid.ID{tableID})

	kept, err := plan.Filter([]*change.Change{createTable, createIndex}, func(c *change.Change) bool {
		return c.ObjectKind != "table"
	}, catalog.New(), catalog.New())
	c.Assert(err, qt.IsNil)
	c.Assert(kept, qt.HasLen, 0)
}

func TestFilter_KeepsUnrelatedChange(t *testing.T) {
	c := qt.New(t)

	tableID := stableid.Table("public", "posts")
	roleID := stableid.Role("admin")

	createTable := change.New("CreateTable", "table", change.OpCreate, change.ScopeObject, "public", "",
		"CREATE TABLE public.posts (id int);", []stableid.ID{tableID}, nil, nil)
	createRole := change.New("CreateRole", "role", change.OpCreate, change.ScopeObject, "", "",
		"CREATE ROLE admin;", []stableid.ID{roleID}, nil, nil)

	kept, err := plan.Filter([]*change.Change{createTable, createRole}, func(c *change.Change) bool {
		return c.ObjectKind != "table"
	}, catalog.New(), catalog.New())
	c.Assert(err, qt.IsNil)
	c.Assert(kept, qt.HasLen, 1)
	c.Assert(kept[0].Variant, qt.Equals, "CreateRole")
}

func TestFilter_CascadesViaCatalogDependency(t *testing.T) {
	c := qt.New(t)

	extID := stableid.Extension("uuid-ossp")
	fnID := stableid.Function("public", "uuid_generate_v4", 0)

	createExt := change.New("CreateExtension", "extension", change.OpCreate, change.ScopeObject, "", "",
		`CREATE EXTENSION "uuid-ossp";`, []stableid.ID{extID}, nil, nil)
	createFn := change.New("CreateFunction", "function", change.OpCreate, change.ScopeObject, "public", "",
		"CREATE FUNCTION public.uuid_generate_v4() ...;", []stableid.ID{fnID}, nil, nil)

	target := catalog.New()
	target.DependRows = []catalog.PgDependRow{
		{Dependent: fnID, Referenced: extID, DepType: catalog.DepNormal},
	}

	kept, err := plan.Filter([]*change.Change{createExt, createFn}, func(c *change.Change) bool {
		return c.ObjectKind != "extension"
	}, catalog.New(), target)
	c.Assert(err, qt.IsNil)
	c.Assert(kept, qt.HasLen, 0)
}

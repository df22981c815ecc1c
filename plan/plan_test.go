package plan_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/ptahdiff/catalog"
	"github.com/stokaro/ptahdiff/change"
	"github.com/stokaro/ptahdiff/config"
	"github.com/stokaro/ptahdiff/plan"
	"github.com/stokaro/ptahdiff/stableid"
)

func TestBuild_EmptyChangesIsNilPlan(t *testing.T) {
	c := qt.New(t)

	p, err := plan.Build(nil, catalog.New(), catalog.New(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(p, qt.IsNil)
}

func TestBuild_PrependsRoleAndFunctionBodyGuard(t *testing.T) {
	c := qt.New(t)

	tableID := stableid.Table("public", "posts")
	fnID := stableid.Function("public", "touch_updated_at", 0)

	changes := []*change.Change{
		change.New("CreateTable", "table", change.OpCreate, change.ScopeObject, "public", "",
			"CREATE TABLE public.posts (id int);", []stableid.ID{tableID}, nil, nil),
		change.New("CreateFunction", "function", change.OpCreate, change.ScopeObject, "public", "",
			"CREATE FUNCTION public.touch_updated_at() ...;", []stableid.ID{fnID}, nil, nil),
	}

	opts := config.DefaultPlanOptions().WithRole("migrator")
	p, err := plan.Build(changes, catalog.New(), catalog.New(), opts)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Statements, qt.HasLen, 4)
	c.Assert(p.Statements[0], qt.Equals, `SET ROLE "migrator";`)
	c.Assert(p.Statements[1], qt.Equals, "SET check_function_bodies = false;")
	c.Assert(p.Statements[2], qt.Equals, "CREATE TABLE public.posts (id int);")
	c.Assert(p.Risk, qt.Equals, plan.RiskSafe)
}

func TestBuild_DataLossRiskFromDroppedColumn(t *testing.T) {
	c := qt.New(t)

	colID := stableid.Column("public", "posts", "legacy_slug")
	dropCol := change.New("AlterTableDropColumn", "column", change.OpDrop, change.ScopeObject, "public", "",
		"ALTER TABLE public.posts DROP COLUMN legacy_slug;", nil, []stableid.ID{colID}, nil).
		WithDataLoss("drops column public.posts.legacy_slug")

	p, err := plan.Build([]*change.Change{dropCol}, catalog.New(), catalog.New(), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(p.Risk, qt.Equals, plan.RiskDataLoss)
	c.Assert(p.RiskReasons, qt.DeepEquals, []string{"drops column public.posts.legacy_slug"})
}

func TestFingerprint_Deterministic(t *testing.T) {
	c := qt.New(t)

	tableID := stableid.Table("public", "posts")
	cat := catalog.New()
	cat.Tables[tableID] = &catalog.Table{Name: "posts", Owner: "admin"}

	changes := []*change.Change{
		change.New("CreateTable", "table", change.OpCreate, change.ScopeObject, "public", "",
			"CREATE TABLE public.posts (id int);", []stableid.ID{tableID}, nil, nil),
	}

	fp1, err := plan.Fingerprint(changes, cat)
	c.Assert(err, qt.IsNil)
	fp2, err := plan.Fingerprint(changes, cat)
	c.Assert(err, qt.IsNil)
	c.Assert(fp1, qt.Equals, fp2)
	c.Assert(fp1, qt.Not(qt.Equals), "")
}

func TestFingerprint_DiffersWhenObjectAbsent(t *testing.T) {
	c := qt.New(t)

	tableID := stableid.Table("public", "posts")
	populated := catalog.New()
	populated.Tables[tableID] = &catalog.Table{Name: "posts"}
	empty := catalog.New()

	changes := []*change.Change{
		change.New("CreateTable", "table", change.OpCreate, change.ScopeObject, "public", "",
			"CREATE TABLE public.posts (id int);", []stableid.ID{tableID}, nil, nil),
	}

	fpPopulated, err := plan.Fingerprint(changes, populated)
	c.Assert(err, qt.IsNil)
	fpEmpty, err := plan.Fingerprint(changes, empty)
	c.Assert(err, qt.IsNil)
	c.Assert(fpPopulated, qt.Not(qt.Equals), fpEmpty)
}

package config_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/ptahdiff/config"
)

func TestDefaultPlanOptions(t *testing.T) {
	c := qt.New(t)

	opts := config.DefaultPlanOptions()

	c.Assert(opts, qt.IsNotNil)
	c.Assert(opts.IgnoredExtensions, qt.DeepEquals, []string{"plpgsql"})
	c.Assert(opts.DisableFunctionBodyChecks, qt.IsTrue)
}

func TestPlanOptions_WithIgnoredExtensions(t *testing.T) {
	tests := []struct {
		name       string
		extensions []string
		expected   []string
	}{
		{
			name:       "single extension",
			extensions: []string{"plpgsql"},
			expected:   []string{"plpgsql"},
		},
		{
			name:       "multiple extensions",
			extensions: []string{"plpgsql", "adminpack", "pg_stat_statements"},
			expected:   []string{"plpgsql", "adminpack", "pg_stat_statements"},
		},
		{
			name:       "empty list",
			extensions: []string{},
			expected:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			opts := config.DefaultPlanOptions().WithIgnoredExtensions(tt.extensions...)
			c.Assert(opts.IgnoredExtensions, qt.DeepEquals, tt.expected)
		})
	}
}

func TestPlanOptions_WithAdditionalIgnoredExtensions(t *testing.T) {
	tests := []struct {
		name       string
		additional []string
		expected   []string
	}{
		{
			name:       "add single extension",
			additional: []string{"adminpack"},
			expected:   []string{"plpgsql", "adminpack"},
		},
		{
			name:       "add multiple extensions",
			additional: []string{"adminpack", "pg_stat_statements"},
			expected:   []string{"plpgsql", "adminpack", "pg_stat_statements"},
		},
		{
			name:       "add no extensions",
			additional: []string{},
			expected:   []string{"plpgsql"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			opts := config.DefaultPlanOptions().WithAdditionalIgnoredExtensions(tt.additional...)
			c.Assert(opts.IgnoredExtensions, qt.DeepEquals, tt.expected)
		})
	}
}

func TestPlanOptions_IsExtensionIgnored(t *testing.T) {
	tests := []struct {
		name              string
		ignoredExtensions []string
		extensionName     string
		expected          bool
	}{
		{
			name:              "extension is ignored",
			ignoredExtensions: []string{"plpgsql", "adminpack"},
			extensionName:     "plpgsql",
			expected:          true,
		},
		{
			name:              "extension is not ignored",
			ignoredExtensions: []string{"plpgsql", "adminpack"},
			extensionName:     "pg_trgm",
			expected:          false,
		},
		{
			name:              "empty ignore list",
			ignoredExtensions: []string{},
			extensionName:     "plpgsql",
			expected:          false,
		},
		{
			name:              "case sensitive matching",
			ignoredExtensions: []string{"plpgsql"},
			extensionName:     "PLPGSQL",
			expected:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			opts := &config.PlanOptions{IgnoredExtensions: tt.ignoredExtensions}
			c.Assert(opts.IsExtensionIgnored(tt.extensionName), qt.Equals, tt.expected)
		})
	}
}

func TestPlanOptions_FilterIgnoredExtensions(t *testing.T) {
	tests := []struct {
		name              string
		ignoredExtensions []string
		inputExtensions   []string
		expected          []string
	}{
		{
			name:              "filter some extensions",
			ignoredExtensions: []string{"plpgsql", "adminpack"},
			inputExtensions:   []string{"plpgsql", "pg_trgm", "adminpack", "btree_gin"},
			expected:          []string{"pg_trgm", "btree_gin"},
		},
		{
			name:              "filter all extensions",
			ignoredExtensions: []string{"plpgsql", "pg_trgm"},
			inputExtensions:   []string{"plpgsql", "pg_trgm"},
			expected:          []string{},
		},
		{
			name:              "filter no extensions",
			ignoredExtensions: []string{"adminpack"},
			inputExtensions:   []string{"plpgsql", "pg_trgm", "btree_gin"},
			expected:          []string{"plpgsql", "pg_trgm", "btree_gin"},
		},
		{
			name:              "empty input list",
			ignoredExtensions: []string{"plpgsql"},
			inputExtensions:   []string{},
			expected:          []string{},
		},
		{
			name:              "empty ignore list",
			ignoredExtensions: []string{},
			inputExtensions:   []string{"plpgsql", "pg_trgm"},
			expected:          []string{"plpgsql", "pg_trgm"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			opts := &config.PlanOptions{IgnoredExtensions: tt.ignoredExtensions}
			c.Assert(opts.FilterIgnoredExtensions(tt.inputExtensions), qt.DeepEquals, tt.expected)
		})
	}
}

func TestPlanOptions_WithRole(t *testing.T) {
	c := qt.New(t)

	base := config.DefaultPlanOptions()
	withRole := base.WithRole("migrator")

	c.Assert(base.Role, qt.Equals, "")
	c.Assert(withRole.Role, qt.Equals, "migrator")
}

func TestPlanOptions_IgnoredSchemasAndRoles(t *testing.T) {
	c := qt.New(t)

	opts := config.DefaultPlanOptions().
		WithIgnoredSchemas("pg_catalog", "information_schema").
		WithIgnoredRoles("rds_superuser")

	c.Assert(opts.IsSchemaIgnored("pg_catalog"), qt.IsTrue)
	c.Assert(opts.IsSchemaIgnored("public"), qt.IsFalse)
	c.Assert(opts.IsRoleIgnored("rds_superuser"), qt.IsTrue)
	c.Assert(opts.IsRoleIgnored("app_user"), qt.IsFalse)
}

func TestDefaultApplyOptions(t *testing.T) {
	c := qt.New(t)

	opts := config.DefaultApplyOptions()

	c.Assert(opts.MaxRounds, qt.Equals, 100)
	c.Assert(opts.DisableFunctionBodyChecksDuringApply, qt.IsTrue)
	c.Assert(opts.RunValidationPass, qt.IsTrue)
}

func TestApplyOptions_WithMaxRoundsAndValidationPass(t *testing.T) {
	c := qt.New(t)

	opts := config.DefaultApplyOptions().WithMaxRounds(5).WithValidationPass(false)

	c.Assert(opts.MaxRounds, qt.Equals, 5)
	c.Assert(opts.RunValidationPass, qt.IsFalse)
	// the receiver-returning style never mutates the original
	c.Assert(config.DefaultApplyOptions().MaxRounds, qt.Equals, 100)
}

func TestLibraryUsageExamples(t *testing.T) {
	c := qt.New(t)

	t.Run("default usage", func(t *testing.T) {
		opts := config.DefaultPlanOptions()
		c.Assert(opts.IsExtensionIgnored("plpgsql"), qt.IsTrue)
		c.Assert(opts.IsExtensionIgnored("pg_trgm"), qt.IsFalse)
	})

	t.Run("custom ignore list", func(t *testing.T) {
		opts := config.DefaultPlanOptions().WithIgnoredExtensions("plpgsql", "adminpack")
		c.Assert(opts.IsExtensionIgnored("plpgsql"), qt.IsTrue)
		c.Assert(opts.IsExtensionIgnored("adminpack"), qt.IsTrue)
		c.Assert(opts.IsExtensionIgnored("pg_trgm"), qt.IsFalse)
	})

	t.Run("additional ignored extensions", func(t *testing.T) {
		opts := config.DefaultPlanOptions().WithAdditionalIgnoredExtensions("adminpack", "pg_stat_statements")
		c.Assert(opts.IsExtensionIgnored("plpgsql"), qt.IsTrue)
		c.Assert(opts.IsExtensionIgnored("adminpack"), qt.IsTrue)
		c.Assert(opts.IsExtensionIgnored("pg_stat_statements"), qt.IsTrue)
		c.Assert(opts.IsExtensionIgnored("pg_trgm"), qt.IsFalse)
	})

	t.Run("no ignored extensions", func(t *testing.T) {
		opts := config.DefaultPlanOptions().WithIgnoredExtensions()
		c.Assert(opts.IsExtensionIgnored("plpgsql"), qt.IsFalse)
		c.Assert(opts.IsExtensionIgnored("pg_trgm"), qt.IsFalse)
	})
}

package ptahdiff

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/ptahdiff/config"
	"github.com/stokaro/ptahdiff/planner"
)

const (
	sourceDSNFlag  = "source-dsn"
	sourceFileFlag = "source-file"
	targetDSNFlag  = "target-dsn"
	targetFileFlag = "target-file"
	roleFlag       = "role"
	outFlag        = "out"
)

var planFlags = map[string]cobraflags.Flag{
	sourceDSNFlag: &cobraflags.StringFlag{
		Name:  sourceDSNFlag,
		Value: "",
		Usage: "Connection string for the source (current) database",
	},
	sourceFileFlag: &cobraflags.StringFlag{
		Name:  sourceFileFlag,
		Value: "",
		Usage: "Path to a JSON catalog snapshot for the source side (used if --source-dsn is empty)",
	},
	targetDSNFlag: &cobraflags.StringFlag{
		Name:  targetDSNFlag,
		Value: "",
		Usage: "Connection string for the target (desired) database",
	},
	targetFileFlag: &cobraflags.StringFlag{
		Name:  targetFileFlag,
		Value: "",
		Usage: "Path to a JSON catalog snapshot for the target side (used if --target-dsn is empty)",
	},
	roleFlag: &cobraflags.StringFlag{
		Name:  roleFlag,
		Value: "",
		Usage: "Role to SET ROLE before running the plan's statements",
	},
	outFlag: &cobraflags.StringFlag{
		Name:  outFlag,
		Value: "",
		Usage: "Write the plan as JSON to this path instead of stdout",
	},
}

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Diff two catalogs and print an ordered migration plan",
		Long: `plan reads a source and a target PostgreSQL catalog — each either a
live --*-dsn connection or a --*-file JSON snapshot — diffs them,
orders the result, and prints the resulting Plan as JSON.`,
		RunE: planCommand,
	}
	cobraflags.RegisterMap(cmd, planFlags)
	return cmd
}

func planCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	source, err := loadCatalog(ctx, planFlags[sourceDSNFlag].GetString(), planFlags[sourceFileFlag].GetString())
	if err != nil {
		return fmt.Errorf("loading source catalog: %w", err)
	}
	target, err := loadCatalog(ctx, planFlags[targetDSNFlag].GetString(), planFlags[targetFileFlag].GetString())
	if err != nil {
		return fmt.Errorf("loading target catalog: %w", err)
	}

	opts := config.DefaultPlanOptions()
	if role := planFlags[roleFlag].GetString(); role != "" {
		opts = opts.WithRole(role)
	}

	p, err := planner.New().Plan(source, target, opts)
	if err != nil {
		return fmt.Errorf("building plan: %w", err)
	}

	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	if path := planFlags[outFlag].GetString(); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return fmt.Errorf("writing plan to %s: %w", path, err)
		}
		fmt.Printf("Wrote plan to %s\n", path)
		return nil
	}

	fmt.Println(string(out))
	return nil
}

package ptahdiff

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	_ "github.com/lib/pq"

	"github.com/stokaro/ptahdiff/applier"
	"github.com/stokaro/ptahdiff/config"
	"github.com/stokaro/ptahdiff/plan"
)

const (
	planFileFlag   = "plan-file"
	dsnFlag        = "dsn"
	maxRoundsFlag  = "max-rounds"
	noValidateFlag = "no-validate"
)

var applyFlags = map[string]cobraflags.Flag{
	planFileFlag: &cobraflags.StringFlag{
		Name:  planFileFlag,
		Value: "",
		Usage: "Path to a plan JSON file produced by 'ptahdiff plan' (required)",
	},
	dsnFlag: &cobraflags.StringFlag{
		Name:  dsnFlag,
		Value: "",
		Usage: "Connection string for the database the plan is applied to (required)",
	},
	maxRoundsFlag: &cobraflags.IntFlag{
		Name:  maxRoundsFlag,
		Value: 100,
		Usage: "Maximum retry rounds before giving up with status 'stuck'",
	},
	noValidateFlag: &cobraflags.BoolFlag{
		Name:  noValidateFlag,
		Value: false,
		Usage: "Skip the final CREATE OR REPLACE validation pass over function/procedure bodies",
	},
}

func newApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a migration plan to a live database",
		Long: `apply reads a Plan previously written by 'ptahdiff plan', executes its
statements over a single connection with round-based retry, and
prints the structured Result as JSON.`,
		RunE: applyCommand,
	}
	cobraflags.RegisterMap(cmd, applyFlags)
	return cmd
}

func applyCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	planPath := applyFlags[planFileFlag].GetString()
	if planPath == "" {
		return fmt.Errorf("--%s is required", planFileFlag)
	}
	dsn := applyFlags[dsnFlag].GetString()
	if dsn == "" {
		return fmt.Errorf("--%s is required", dsnFlag)
	}

	data, err := os.ReadFile(planPath)
	if err != nil {
		return fmt.Errorf("reading plan %s: %w", planPath, err)
	}
	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parsing plan %s: %w", planPath, err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("opening connection to %s: %w", redactDSN(dsn), err)
	}
	defer db.Close()

	opts := config.DefaultApplyOptions().
		WithMaxRounds(applyFlags[maxRoundsFlag].GetInt()).
		WithValidationPass(!applyFlags[noValidateFlag].GetBool())

	statements := make([]applier.Statement, len(p.Statements))
	for i, sqlText := range p.Statements {
		statements[i] = applier.Statement{
			ID:             fmt.Sprintf("stmt-%d", i),
			SQL:            sqlText,
			StatementClass: applier.ClassOf(sqlText),
		}
	}

	result, err := applier.New().Apply(ctx, db, statements, opts)
	if err != nil {
		return fmt.Errorf("applying plan: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))

	if result.Status != applier.StatusSuccess {
		os.Exit(1) //revive:disable-line:deep-exit
	}
	return nil
}

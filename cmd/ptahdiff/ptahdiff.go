// Package ptahdiff wires the plan and apply subcommands into a single
// cobra root command, following the same Execute(args ...string) shape
// ptah's own cmd/packagemigrator uses to assemble its subcommand tree.
package ptahdiff

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "PTAHDIFF"

var rootCmd = &cobra.Command{
	Use:   "ptahdiff",
	Short: "Plan and apply PostgreSQL catalog migrations",
	Long: `ptahdiff diffs two PostgreSQL catalogs (live connections or JSON
snapshots), orders the resulting changes into a dependency-safe
migration plan, and can apply that plan to a live database with
round-based retry.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute adds the plan and apply subcommands to the root command and
// runs it. Called once from main.main().
func Execute(args ...string) {
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)

	rootCmd.SetArgs(args)
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newApplyCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1) //revive:disable-line:deep-exit
	}
}

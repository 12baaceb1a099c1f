package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yoockh/hirelink/config"
	"github.com/yoockh/hirelink/internal/migrate"
)

var migrateTarget int64

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|status|down]",
	Short:     "Apply or inspect the Postgres schema migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "status", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := config.PostgresURI()
		if err != nil {
			return err
		}
		runner, err := migrate.New(dsn, newLogger())
		if err != nil {
			return err
		}

		switch args[0] {
		case "up":
			return runner.Up(cmd.Context())
		case "status":
			return runner.Status(cmd.Context())
		case "down":
			return runner.Down(cmd.Context(), migrateTarget)
		default:
			return fmt.Errorf("unsupported migrate command %q", args[0])
		}
	},
}

func init() {
	migrateCmd.Flags().Int64Var(&migrateTarget, "target", 0, "target version for down (default: previous version)")
}

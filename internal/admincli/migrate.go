package admincli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *Runtime, dsn *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openDB(cmd.Context(), rt, *dsn)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer db.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/socialwatch/searchagent/internal/app"
)

func migrateCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := app.OpenDatabase(cmd.Context(), st.cfg, st.logr)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied to %s\n", st.cfg.DatabaseURL)
			return nil
		},
	}
}

package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/socialwatch/searchagent/internal/app"
	"github.com/socialwatch/searchagent/internal/domain/history"
	"github.com/socialwatch/searchagent/internal/storage/sqlite"
)

func historyCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored queries in the SQLite store",
	}
	cmd.AddCommand(historyListCmd(st), historyShowCmd(st))
	return cmd
}

func openHistory(cmd *cobra.Command, st *state) (history.Service, func() error, error) {
	db, err := app.OpenDatabase(cmd.Context(), st.cfg, st.logr)
	if err != nil {
		return nil, nil, err
	}
	return history.NewService(sqlite.NewHistoryRepository(db.DB)), db.Close, nil
}

func historyListCmd(st *state) *cobra.Command {
	var (
		offset, limit int
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent queries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openHistory(cmd, st)
			if err != nil {
				return err
			}
			defer closeDB()

			records, err := svc.List(cmd.Context(), offset, limit)
			if err != nil {
				return err
			}
			if asJSON {
				if records == nil {
					records = []history.Record{}
				}
				return printJSON(cmd.OutOrStdout(), records)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tMODE\tKEYWORDS\tTOPIC")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.CreatedAt.Format(time.RFC3339), r.Mode, len(r.Keywords), r.Topic)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "records to skip")
	cmd.Flags().IntVar(&limit, "limit", history.DefaultLimit, "maximum records to return")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func historyShowCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one stored query as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openHistory(cmd, st)
			if err != nil {
				return err
			}
			defer closeDB()

			record, err := svc.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), record)
		},
	}
}

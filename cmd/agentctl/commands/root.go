package commands

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/socialwatch/searchagent/internal/config"
	"github.com/socialwatch/searchagent/internal/logger"
)

type state struct {
	cfg  config.Config
	logr *slog.Logger

	envFile string
	dbPath  string
	verbose bool
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:          "agentctl",
		Short:        "Operate the search keyword agent",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(st.envFile)
			if err != nil {
				return err
			}
			if st.dbPath != "" {
				cfg.DatabaseURL = st.dbPath
			}
			level := cfg.LogLevel
			if level == "" && !st.verbose {
				level = "error"
			}
			st.cfg = cfg
			st.logr = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Env, level)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&st.envFile, "env-file", "", "env file to load (default ./.env if present)")
	root.PersistentFlags().StringVar(&st.dbPath, "db", "", "SQLite database path (overrides DATABASE_URL)")
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "log at the configured level instead of errors only")

	root.AddCommand(queryCmd(st), historyCmd(st), migrateCmd(st))
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/socialwatch/searchagent/internal/app"
	"github.com/socialwatch/searchagent/internal/domain/agent"
)

type queryOutput struct {
	ID           string   `json:"id,omitempty"`
	Topic        string   `json:"topic"`
	Mode         string   `json:"mode"`
	PromptKind   string   `json:"prompt_kind"`
	Keywords     []string `json:"keywords"`
	BooleanQuery string   `json:"boolean_query"`
	Combinations []string `json:"combinations,omitempty"`
	ContextUsed  bool     `json:"context_used"`
	Duration     string   `json:"duration"`
}

func queryCmd(st *state) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "query <topic>",
		Short: "Run the keyword pipeline once and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), st.cfg, st.logr, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Domain.Agent.Query(cmd.Context(), agent.QueryInput{
				Topic: strings.Join(args, " "),
				Mode:  mode,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), queryOutput{
				ID:           res.ID,
				Topic:        res.Topic,
				Mode:         string(res.Mode),
				PromptKind:   string(res.PromptKind),
				Keywords:     res.Keywords,
				BooleanQuery: res.BooleanQuery,
				Combinations: res.Combinations,
				ContextUsed:  res.ContextUsed,
				Duration:     res.Duration.String(),
			})
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "boolean mode: OR, AND or COMBO (default BOOLEAN_MODE)")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/easyops/adqa-go/pkg/audit"
)

var askVerbose bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question and print it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.TrimSpace(strings.Join(args, " "))

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		orch, err := a.orchestrator(ctx)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, a.cfg.Server.RequestTimeout)
		defer cancel()

		result, err := orch.AnswerWithDetails(ctx, query)
		if err != nil {
			return err
		}
		if err := a.recorder.Record(ctx, audit.NewEntry(query, result)); err != nil {
			a.logger.Warn("failed to record audit entry", "error", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.Answer)
		if askVerbose {
			fmt.Fprintf(out, "\noutcome=%s sources=%v context_chars=%d truncated=%v prompt_tokens=%d duration=%s\n",
				result.Outcome, result.SourceCounts, result.Context.Len(), result.Context.Truncated(),
				result.PromptTokens, result.Duration)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "Print outcome and context statistics")
}

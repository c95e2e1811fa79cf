package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/easyops/adqa-go/pkg/rag"
)

const searchPreviewLength = 150

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Query the vector store directly and print the hits",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		results, err := rag.NewVectorRetriever(a.vectors, a.embedder).Retrieve(ctx, query, searchLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Found %d results for %q\n", len(results), query)
		for i, r := range results {
			meta := r.Chunk.Metadata
			fmt.Fprintf(out, "\n%d. Score: %.4f\n   Title: %s\n   File: %s\n   Type: %s\n   Text: %s\n",
				i+1, r.Score, orUnknown(meta.Title), orUnknown(meta.Filename), orUnknown(meta.FileType),
				preview(r.Chunk.Content, searchPreviewLength))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "Number of hits to print")
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

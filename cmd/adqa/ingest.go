package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easyops/adqa-go/pkg/rag"
)

var (
	ingestDir       string
	ingestChunkSize int
	ingestOverlap   int
	ingestBatchSize int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load documents from a folder into the vector store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		embedder, err := a.ingestEmbedder(ctx)
		if err != nil {
			return err
		}

		loader := rag.NewDirectoryLoader(ingestDir, rag.WithLoaderLogger(a.logger))
		ingestor := rag.NewIngestor(embedder, a.vectors,
			rag.WithChunker(rag.NewSentenceChunker(ingestChunkSize, ingestOverlap)),
			rag.WithUpsertBatchSize(ingestBatchSize),
			rag.WithIngestLogger(a.logger),
			rag.WithIngestMetrics(a.obs.Metrics()),
		)

		report, err := ingestor.Ingest(ctx, loader)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if report.Documents == 0 {
			fmt.Fprintf(out, "No documents found in %s\n", ingestDir)
			return nil
		}
		fmt.Fprintf(out, "Documents: %d\nChunks: %d\nEmbedded: %d\nUploaded: %d\nFailed batches: %d\n",
			report.Documents, report.Chunks, report.Embedded, report.Uploaded, report.FailedBatches)

		if n, err := a.vectors.Count(ctx); err == nil {
			fmt.Fprintf(out, "Collection %s now holds %d points\n", a.cfg.Vector.Collection, n)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestDir, "dir", "d", "./documents", "Folder with .txt, .md, .html, .pdf and .docx documents")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", rag.DefaultChunkSize, "Maximum characters per chunk")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", rag.DefaultChunkOverlap, "Characters shared by consecutive chunks")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", rag.DefaultUpsertBatchSize, "Points per upsert request")
}

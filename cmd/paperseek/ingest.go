package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/paperseek/ai"
	"github.com/hrygo/paperseek/ai/summary"
	"github.com/hrygo/paperseek/ingest"
)

func newIngestCmd() *cobra.Command {
	var (
		file      string
		summaries bool
		workers   int
		limit     int
		rps       float64
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest an arXiv metadata snapshot (JSONL) into the vector index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			instanceProfile.SummaryEnabled = summaries

			ctx := cmd.Context()
			storeInstance, err := openStore(ctx, instanceProfile)
			if err != nil {
				return err
			}
			defer storeInstance.Close()

			aiConfig := ai.NewConfigFromProfile(instanceProfile)
			if err := aiConfig.Validate(); err != nil {
				return errors.WithMessage(err, "invalid AI configuration")
			}

			embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
			if err != nil {
				return errors.WithMessage(err, "failed to create embedding service")
			}
			embeddingService = ai.NewRateLimitedEmbeddingService(embeddingService, rps)

			var summarizer summary.Summarizer
			if summaries {
				llmService, err := ai.NewLLMService(&aiConfig.LLM)
				if err != nil {
					return errors.WithMessage(err, "failed to create LLM service")
				}
				summarizer = summary.NewSummarizer(llmService)
			}

			f, err := os.Open(file)
			if err != nil {
				return errors.Wrapf(err, "failed to open dataset %s", file)
			}
			defer f.Close()

			pipeline := ingest.NewPipeline(storeInstance, embeddingService, summarizer, nil, ingest.Config{
				IndexName:  instanceProfile.IndexName,
				Dimensions: instanceProfile.EmbeddingDimensions,
				Workers:    workers,
				Limit:      limit,
			})

			report, err := pipeline.Run(ctx, f)
			if report != nil {
				printReport(report)
			}
			if err != nil {
				return errors.WithMessage(err, "ingestion failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the arXiv metadata JSONL snapshot")
	cmd.Flags().BoolVar(&summaries, "summaries", false, "also summarize abstracts and index the summary namespace")
	cmd.Flags().IntVar(&workers, "workers", 1, "number of concurrent ingestion workers")
	cmd.Flags().IntVar(&limit, "limit", 0, "stop after this many papers (0 = no limit)")
	cmd.Flags().Float64Var(&rps, "rps", 0, "max embedding requests per second (0 = unlimited)")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}

	return cmd
}

func printReport(report *ingest.Report) {
	fmt.Printf("Ingestion run %s finished\n", report.RunID)
	fmt.Printf("  scanned:   %d\n", report.Scanned)
	fmt.Printf("  filtered:  %d\n", report.Filtered)
	fmt.Printf("  indexed:   %d\n", report.Indexed)
	fmt.Printf("  failed:    %d\n", report.Failed)
	fmt.Printf("  malformed: %d\n", report.Malformed)
	if len(report.FailedIDs) > 0 {
		slog.Warn("some papers failed to ingest", "ids", report.FailedIDs)
	}
}

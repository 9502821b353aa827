package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/paperseek/ai"
	"github.com/hrygo/paperseek/search"
	"github.com/hrygo/paperseek/store"
)

func newQueryCmd() *cobra.Command {
	var (
		query     string
		topK      int
		namespace string
		scores    bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search the index from the command line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}

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

			service := search.NewService(storeInstance, embeddingService, instanceProfile.IndexName, instanceProfile.TopK)
			results, err := service.Search(ctx, query, &search.Options{
				Namespace: store.Namespace(namespace),
				TopK:      topK,
			})
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(os.Stdout)
			if scores {
				return encoder.Encode(results)
			}
			return encoder.Encode(search.IDs(results))
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "free-text query")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of results (default: profile top_k)")
	cmd.Flags().StringVar(&namespace, "namespace", "", `vector namespace to search ("main" or "summary", default: main)`)
	cmd.Flags().BoolVar(&scores, "scores", false, "print full results with scores instead of bare ids")
	if err := cmd.MarkFlagRequired("query"); err != nil {
		panic(err)
	}

	return cmd
}

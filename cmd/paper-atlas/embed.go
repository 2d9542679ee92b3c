package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/embed"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate embeddings for corpus abstracts",
	Long: `Embed walks the corpus and generates an embedding vector for every paper
abstract that does not have one yet. Interrupted runs resume where they
left off.`,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().Int("batch-size", 0, "abstracts per API call (default 100)")

	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	cfg := loadConfig()
	if batchSize > 0 {
		cfg.Embedding.BatchSize = batchSize
	}
	if cfg.Embedding.APIKey == "" && cfg.Embedding.BaseURL == "" {
		return fmt.Errorf("no embedding API key configured (set embedding.api_key or .secrets/embedding-api-key)")
	}

	log := openErrorLog(cfg)
	defer log.Close()

	store, err := corpus.Open(cfg.Corpus.DBPath)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer store.Close()

	embStore, err := embed.Open(cfg.Embedding.DBPath)
	if err != nil {
		return fmt.Errorf("opening embeddings: %w", err)
	}
	defer embStore.Close()

	indexer := embed.NewIndexer(store, embStore, embed.NewGenerator(cfg.Embedding), log, cfg.Embedding.BatchSize)
	summary, err := indexer.IndexCorpus(cmd.Context(), os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d paper(s) failed embedding", summary.Failed)
	}
	return nil
}

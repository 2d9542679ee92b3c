package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/embed"
	"github.com/pdiddy/paper-atlas/internal/recommend"
	"github.com/pdiddy/paper-atlas/internal/similarity"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [paper-id]",
	Short: "Recommend hot and core papers for a corpus paper",
	Long: `Recommend combines embedding similarity with the citation graph: hot
papers are the closest matches the paper does not already cite, and core
papers come from one similarity hop further out.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

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

	engine := similarity.NewEngine(embStore, embed.NewGenerator(cfg.Embedding), log)
	composer := recommend.NewComposer(store, engine, cfg.Recommend, log)

	recs, err := composer.Compose(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printRanked("Hot papers", recs.HotPapers)
	printRanked("Core papers", recs.CorePapers)
	return nil
}

func printRanked(heading string, papers []types.RankedPaper) {
	fmt.Printf("\n%s:\n", heading)
	if len(papers) == 0 {
		fmt.Println("  (none)")
		return
	}
	for i, p := range papers {
		fmt.Printf("  %d. %s  %s (%d)  similarity %.4f\n", i+1, p.ID, p.Title, p.Year, p.Similarity)
	}
}

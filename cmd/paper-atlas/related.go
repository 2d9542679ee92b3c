package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-atlas/internal/embed"
	"github.com/pdiddy/paper-atlas/internal/similarity"
)

var relatedCmd = &cobra.Command{
	Use:   "related [paper-id]",
	Short: "Find papers most similar to a corpus paper",
	Long: `Related ranks the corpus against a paper's stored embedding. A paper
without an embedding yields no results; run embed first.`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func init() {
	relatedCmd.Flags().IntP("num", "n", 5, "number of papers to display")

	rootCmd.AddCommand(relatedCmd)
}

func runRelated(cmd *cobra.Command, args []string) error {
	num, _ := cmd.Flags().GetInt("num")
	cfg := loadConfig()

	log := openErrorLog(cfg)
	defer log.Close()

	store, err := embed.Open(cfg.Embedding.DBPath)
	if err != nil {
		return fmt.Errorf("opening embeddings: %w", err)
	}
	defer store.Close()

	engine := similarity.NewEngine(store, nil, log)
	papers, err := engine.FindRelated(cmd.Context(), args[0], num)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		return fmt.Errorf("no embedding stored for %s (run `paper-atlas embed` first)", args[0])
	}

	printRanked(fmt.Sprintf("Papers related to %s", args[0]), papers)
	return nil
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-atlas/internal/embed"
	"github.com/pdiddy/paper-atlas/internal/similarity"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find papers related to a text query",
	Long: `Search embeds the query text and ranks the corpus by cosine similarity
against the stored abstract embeddings.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntP("num", "n", 5, "number of papers to display")
	searchCmd.Flags().BoolP("abstract", "a", false, "show abstracts of found papers")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	num, _ := cmd.Flags().GetInt("num")
	showAbstract, _ := cmd.Flags().GetBool("abstract")
	cfg := loadConfig()

	log := openErrorLog(cfg)
	defer log.Close()

	store, err := embed.Open(cfg.Embedding.DBPath)
	if err != nil {
		return fmt.Errorf("opening embeddings: %w", err)
	}
	defer store.Close()

	engine := similarity.NewEngine(store, embed.NewGenerator(cfg.Embedding), log)

	fmt.Printf("Searching for papers related to: %q...\n", args[0])
	papers, err := engine.FuzzySearch(cmd.Context(), args[0], num)
	if err != nil {
		return err
	}
	if len(papers) == 0 {
		return fmt.Errorf("no matching papers found")
	}

	fmt.Printf("\nFound %d papers:\n", len(papers))
	rule := strings.Repeat("=", 80)
	for i, p := range papers {
		fmt.Printf("\n[%d/%d]\n%s\n", i+1, len(papers), rule)
		fmt.Printf("ID: %s\n", p.ID)
		fmt.Printf("Title: %s\n", p.Title)
		fmt.Printf("Authors: %s\n", p.Authors)
		fmt.Printf("Year: %d\n", p.Year)
		fmt.Printf("Categories: %s\n", p.Categories)
		fmt.Printf("Similarity score: %.4f\n", p.Similarity)
		if showAbstract && p.Abstract != "" {
			fmt.Printf("\nAbstract:\n%s\n", p.Abstract)
		}
		fmt.Println(rule)
	}
	return nil
}

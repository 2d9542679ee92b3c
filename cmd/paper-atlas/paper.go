package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-atlas/internal/corpus"
)

var paperCmd = &cobra.Command{
	Use:   "paper [paper-id]",
	Short: "Print a corpus paper record",
	Long: `Paper prints the stored metadata and citation edges for a corpus paper,
as YAML by default or JSON with --json.`,
	Args: cobra.ExactArgs(1),
	RunE: runPaper,
}

func init() {
	paperCmd.Flags().Bool("json", false, "output the record as JSON")

	rootCmd.AddCommand(paperCmd)
}

func runPaper(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	cfg := loadConfig()

	store, err := corpus.Open(cfg.Corpus.DBPath)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer store.Close()

	paper, err := store.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if paper == nil {
		return fmt.Errorf("paper %s not in corpus", args[0])
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(paper)
	}
	data, err := yaml.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

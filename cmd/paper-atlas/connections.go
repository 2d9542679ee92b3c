package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/fetch"
	"github.com/pdiddy/paper-atlas/internal/graph"
)

var connectionsCmd = &cobra.Command{
	Use:   "connections [paper-id]",
	Short: "Expand the citation graph around a paper",
	Long: `Connections mines the paper's PDF for arXiv references, verifies them
against the corpus, and reports the citation neighborhood up to three
degrees out. Discovered edges are persisted, so repeat runs reuse them
instead of refetching documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runConnections,
}

func init() {
	connectionsCmd.Flags().Int("degree", 3, "expansion depth (1-3)")

	rootCmd.AddCommand(connectionsCmd)
}

func runConnections(cmd *cobra.Command, args []string) error {
	degree, _ := cmd.Flags().GetInt("degree")
	cfg := loadConfig()

	log := openErrorLog(cfg)
	defer log.Close()

	store, err := corpus.Open(cfg.Corpus.DBPath)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer store.Close()

	fetcher := fetch.New(cfg.Fetch, log)
	expander := graph.New(store, fetcher, log)

	report, err := expander.Expand(cmd.Context(), args[0], degree)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-atlas/internal/corpus"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Load papers into the corpus from a snapshot or CSV export",
	Long: `Ingest bulk-loads paper metadata. Two formats are supported: the arXiv
metadata snapshot (one JSON object per line; only cs.* papers are kept)
and the harvester's CSV export. The format is inferred from the file
extension unless --format is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("format", "", "input format: json or csv (default: by extension)")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	path := args[0]
	if format == "" {
		if strings.HasSuffix(path, ".csv") {
			format = "csv"
		} else {
			format = "json"
		}
	}

	cfg := loadConfig()
	store, err := corpus.Open(cfg.Corpus.DBPath)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer store.Close()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	var summary corpus.IngestSummary
	switch format {
	case "json":
		summary, err = store.IngestJSONLines(cmd.Context(), f, os.Stdout)
	case "csv":
		summary, err = store.IngestCSV(cmd.Context(), f, os.Stdout)
	default:
		return fmt.Errorf("unknown format %q (use json or csv)", format)
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d record(s) failed ingestion", summary.Failed)
	}
	return nil
}

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/harvest"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Pull recent cs.* papers from the arXiv listing API",
	Long: `Harvest queries the arXiv listing API for computer science papers
submitted in a date window and records them in the corpus. Without --from
the window starts at the watermark left by the previous run.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("from", "", "window start (YYYYMMDD; default: last watermark)")
	harvestCmd.Flags().String("to", "", "window end (YYYYMMDD; default: today)")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	cfg := loadConfig()

	var start time.Time
	if fromFlag != "" {
		var err error
		start, err = time.Parse("20060102", fromFlag)
		if err != nil {
			return fmt.Errorf("invalid --from date %q (use YYYYMMDD)", fromFlag)
		}
	} else {
		var err error
		start, err = harvest.ReadWatermark(cfg.Harvest.StateFile)
		if err != nil {
			return fmt.Errorf("no --from date and no usable watermark at %s: %w", cfg.Harvest.StateFile, err)
		}
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if toFlag != "" {
		var err error
		end, err = time.Parse("20060102", toFlag)
		if err != nil {
			return fmt.Errorf("invalid --to date %q (use YYYYMMDD)", toFlag)
		}
	}
	if !start.Before(end) {
		return fmt.Errorf("window start %s is not before end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	log := openErrorLog(cfg)
	defer log.Close()

	store, err := corpus.Open(cfg.Corpus.DBPath)
	if err != nil {
		return fmt.Errorf("opening corpus: %w", err)
	}
	defer store.Close()

	client := &http.Client{Timeout: cfg.Harvest.Timeout}
	h := harvest.New(client, store, cfg.Harvest, log)

	summary, err := h.Run(cmd.Context(), start, end, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d entr(ies) failed to store", summary.Failed)
	}
	return nil
}

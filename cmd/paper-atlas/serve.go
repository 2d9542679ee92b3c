package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/internal/embed"
	"github.com/pdiddy/paper-atlas/internal/fetch"
	"github.com/pdiddy/paper-atlas/internal/graph"
	"github.com/pdiddy/paper-atlas/internal/harvest"
	"github.com/pdiddy/paper-atlas/internal/recommend"
	"github.com/pdiddy/paper-atlas/internal/server"
	"github.com/pdiddy/paper-atlas/internal/similarity"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the atlas over HTTP: corpus and topic search, per-paper
details with on-demand upstream fetch, citation connections, and a corpus
update hook.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	cfg := loadConfig()
	if addr != "" {
		cfg.Server.Addr = addr
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	errLog := openErrorLog(cfg)
	defer errLog.Close()

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

	generator := embed.NewGenerator(cfg.Embedding)
	engine := similarity.NewEngine(embStore, generator, errLog)
	composer := recommend.NewComposer(store, engine, cfg.Recommend, errLog)
	expander := graph.New(store, fetch.New(cfg.Fetch, errLog), errLog)
	indexer := embed.NewIndexer(store, embStore, generator, errLog, cfg.Embedding.BatchSize)

	client := &http.Client{Timeout: cfg.Harvest.Timeout}
	fetchMeta := func(ctx context.Context, id string) (*types.Paper, error) {
		return harvest.FetchPaper(ctx, client, id, cfg.Harvest.UserAgent)
	}
	update := func(ctx context.Context) error {
		start, err := harvest.ReadWatermark(cfg.Harvest.StateFile)
		if err != nil {
			return fmt.Errorf("no usable watermark at %s: %w", cfg.Harvest.StateFile, err)
		}
		end := time.Now().UTC().Truncate(24 * time.Hour)
		if !start.Before(end) {
			return nil
		}
		h := harvest.New(client, store, cfg.Harvest, errLog)
		_, err = h.Run(ctx, start, end, io.Discard)
		return err
	}

	srv := server.New(store, engine, composer, expander, fetchMeta, indexer, update,
		cfg.Server, log)

	log.Info().Str("addr", cfg.Server.Addr).Msg("starting HTTP API")
	return srv.Router().Run(cfg.Server.Addr)
}

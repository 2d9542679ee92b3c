package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-atlas/internal/errlog"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "paper-atlas/0.1"
)

// loadConfig assembles the full configuration from viper (config file
// plus PAPER_ATLAS_* environment) with built-in defaults.
func loadConfig() types.AtlasConfig {
	viper.SetDefault("fetch.timeout", defaultTimeout)
	viper.SetDefault("fetch.user_agent", defaultUserAgent)
	viper.SetDefault("fetch.request_interval", time.Second)
	viper.SetDefault("corpus.db_path", "papers.db")
	viper.SetDefault("embedding.db_path", "embeddings.db")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.batch_size", 100)
	viper.SetDefault("recommend.hot_limit", 5)
	viper.SetDefault("recommend.core_scan_limit", 10)
	viper.SetDefault("recommend.core_limit", 5)
	viper.SetDefault("harvest.timeout", defaultTimeout)
	viper.SetDefault("harvest.user_agent", defaultUserAgent)
	viper.SetDefault("harvest.request_delay", 3*time.Second)
	viper.SetDefault("harvest.chunk_days", 7)
	viper.SetDefault("harvest.page_size", 100)
	viper.SetDefault("harvest.state_file", "last_updated.txt")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.search_limit", 20)
	viper.SetDefault("error_log", "errors.log")

	return types.AtlasConfig{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("fetch.timeout"),
				UserAgent: viper.GetString("fetch.user_agent"),
			},
			RequestInterval: viper.GetDuration("fetch.request_interval"),
		},
		Corpus: types.CorpusConfig{
			DBPath: viper.GetString("corpus.db_path"),
		},
		Embedding: types.EmbeddingConfig{
			DBPath:    viper.GetString("embedding.db_path"),
			BaseURL:   viper.GetString("embedding.base_url"),
			Model:     viper.GetString("embedding.model"),
			APIKey:    secretDefault("embedding-api-key", viper.GetString("embedding.api_key")),
			BatchSize: viper.GetInt("embedding.batch_size"),
		},
		Recommend: types.RecommendConfig{
			HotLimit:      viper.GetInt("recommend.hot_limit"),
			CoreScanLimit: viper.GetInt("recommend.core_scan_limit"),
			CoreLimit:     viper.GetInt("recommend.core_limit"),
		},
		Harvest: types.HarvestConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("harvest.timeout"),
				UserAgent: viper.GetString("harvest.user_agent"),
			},
			RequestDelay: viper.GetDuration("harvest.request_delay"),
			ChunkDays:    viper.GetInt("harvest.chunk_days"),
			PageSize:     viper.GetInt("harvest.page_size"),
			StateFile:    viper.GetString("harvest.state_file"),
		},
		Server: types.ServerConfig{
			Addr:        viper.GetString("server.addr"),
			SearchLimit: viper.GetInt("server.search_limit"),
		},
		ErrorLog: viper.GetString("error_log"),
	}
}

// openErrorLog opens the append-only error log, falling back to a no-op
// logger when the file cannot be opened.
func openErrorLog(cfg types.AtlasConfig) *errlog.Logger {
	log, err := errlog.Open(cfg.ErrorLog)
	if err != nil {
		return errlog.Nop()
	}
	return log
}

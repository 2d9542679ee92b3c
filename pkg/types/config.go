package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-atlas/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the document fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestInterval is the minimum spacing between outbound PDF
	// requests (default 1s). arXiv rate-limits aggressive crawlers.
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`
}

// CorpusConfig holds settings for the paper corpus store.
type CorpusConfig struct {
	// DBPath is the SQLite database file for paper metadata and
	// citation edges (default "papers.db").
	DBPath string `json:"db_path" yaml:"db_path"`
}

// EmbeddingConfig holds settings for embedding generation and storage.
type EmbeddingConfig struct {
	// DBPath is the SQLite database file for paper embeddings
	// (default "embeddings.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// BaseURL overrides the embeddings API endpoint. Any
	// OpenAI-compatible server works, including local ones.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Model is the embedding model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the embeddings API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BatchSize is the number of abstracts embedded per API call
	// (default 100).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// RecommendConfig holds the recommendation composition policy knobs.
// The defaults reproduce the original selection behavior.
type RecommendConfig struct {
	// HotLimit caps the hot-paper list (default 5).
	HotLimit int `json:"hot_limit" yaml:"hot_limit"`

	// CoreScanLimit bounds how many hot candidates are probed for
	// core papers (default 10).
	CoreScanLimit int `json:"core_scan_limit" yaml:"core_scan_limit"`

	// CoreLimit caps the core-paper list (default 5).
	CoreLimit int `json:"core_limit" yaml:"core_limit"`
}

// HarvestConfig holds settings for the arXiv listing harvester.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestDelay is the pause between listing API calls (default 3s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// ChunkDays is the size of each submittedDate window (default 7).
	ChunkDays int `json:"chunk_days" yaml:"chunk_days"`

	// PageSize is the number of entries requested per page (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// StateFile records the last harvested date (default
	// "last_updated.txt").
	StateFile string `json:"state_file" yaml:"state_file"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// SearchLimit caps corpus search results per request (default 20).
	SearchLimit int `json:"search_limit" yaml:"search_limit"`
}

// AtlasConfig groups all stage configurations.
type AtlasConfig struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch"`
	Corpus    CorpusConfig    `json:"corpus" yaml:"corpus"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Recommend RecommendConfig `json:"recommend" yaml:"recommend"`
	Harvest   HarvestConfig   `json:"harvest" yaml:"harvest"`
	Server    ServerConfig    `json:"server" yaml:"server"`

	// ErrorLog is the append-only error log file (default "errors.log").
	ErrorLog string `json:"error_log" yaml:"error_log"`
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the paper atlas over HTTP: corpus search,
// topic search over embeddings, citation connections, and
// recommendations.
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-atlas/internal/corpus"
	"github.com/pdiddy/paper-atlas/pkg/types"
)

// Recommender composes hot and core paper sets for a corpus paper.
type Recommender interface {
	Compose(ctx context.Context, paperID string) (*types.Recommendations, error)
}

// Connector expands the citation graph around a paper.
type Connector interface {
	Expand(ctx context.Context, seedID string, degree int) (*types.ConnectionReport, error)
}

// TopicSearcher ranks corpus papers against free text.
type TopicSearcher interface {
	FuzzySearch(ctx context.Context, text string, topN int) ([]types.RankedPaper, error)
}

// MetadataFetcher retrieves a paper the corpus does not have yet.
// harvest.FetchPaper is the production implementation.
type MetadataFetcher func(ctx context.Context, id string) (*types.Paper, error)

// PaperEmbedder embeds a single paper on arrival. embed.Indexer is the
// production implementation.
type PaperEmbedder interface {
	EmbedPaper(ctx context.Context, id, title, abstract, authors, categories string, year int) error
}

// Updater refreshes the corpus from the upstream listing API.
type Updater func(ctx context.Context) error

// Server holds the HTTP handler dependencies.
type Server struct {
	store     *corpus.Store
	topics    TopicSearcher
	recs      Recommender
	conns     Connector
	fetchMeta MetadataFetcher
	embedder  PaperEmbedder
	update    Updater
	cfg       types.ServerConfig
	log       zerolog.Logger
}

// New builds a Server. fetchMeta, embedder, and update may be nil; the
// corresponding behaviors degrade gracefully (paper misses 404, arriving
// papers go unembedded, POST /api/update reports unavailable).
func New(store *corpus.Store, topics TopicSearcher, recs Recommender, conns Connector,
	fetchMeta MetadataFetcher, embedder PaperEmbedder, update Updater,
	cfg types.ServerConfig, log zerolog.Logger) *Server {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 20
	}
	return &Server{
		store:     store,
		topics:    topics,
		recs:      recs,
		conns:     conns,
		fetchMeta: fetchMeta,
		embedder:  embedder,
		update:    update,
		cfg:       cfg,
		log:       log,
	}
}

// Router assembles the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.log), corsAllowAll())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/search", s.searchPapers)
	api.GET("/topic-search", s.searchByTopic)
	api.GET("/paper/:id", s.getPaper)
	api.GET("/connections/:id", s.getConnections)
	api.POST("/update", s.updateCorpus)
	return r
}

// searchResult is one /api/search hit with its recommendation context.
type searchResult struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Authors     string                  `json:"authors"`
	Abstract    string                  `json:"abstract"`
	Categories  string                  `json:"categories"`
	Year        int                     `json:"year"`
	Month       int                     `json:"month"`
	Day         int                     `json:"day"`
	HotPapers   []types.RankedPaper     `json:"hot_papers"`
	CorePapers  []types.RankedPaper     `json:"core_papers"`
	Connections *types.ConnectionReport `json:"connections"`
}

func (s *Server) searchPapers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No query provided"})
		return
	}

	papers, err := s.store.Search(c.Request.Context(), query, s.cfg.SearchLimit)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("corpus search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	results := make([]searchResult, 0, len(papers))
	for _, p := range papers {
		result := searchResult{
			ID:         p.ID,
			Title:      strings.TrimSpace(p.Title),
			Authors:    p.Authors,
			Abstract:   strings.TrimSpace(p.Abstract),
			Categories: p.Categories,
			Year:       p.Year,
			Month:      p.Month,
			Day:        p.Day,
			HotPapers:  []types.RankedPaper{},
			CorePapers: []types.RankedPaper{},
		}

		// Each hit carries its first-degree neighborhood and
		// recommendations; failures degrade that hit, not the search.
		if report, err := s.conns.Expand(c.Request.Context(), p.ID, 1); err == nil {
			result.Connections = report
		} else {
			s.log.Error().Err(err).Str("paper", p.ID).Msg("expanding connections failed")
		}
		if recs, err := s.recs.Compose(c.Request.Context(), p.ID); err == nil {
			result.HotPapers = recs.HotPapers
			result.CorePapers = recs.CorePapers
		} else {
			s.log.Error().Err(err).Str("paper", p.ID).Msg("composing recommendations failed")
		}
		results = append(results, result)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

// topicResult is one lightweight /api/topic-search hit, kept small for
// dropdown rendering.
type topicResult struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Authors    string  `json:"authors"`
	Year       int     `json:"year"`
	Similarity float64 `json:"similarity"`
}

func (s *Server) searchByTopic(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No topic provided"})
		return
	}

	ranked, err := s.topics.FuzzySearch(c.Request.Context(), query, s.cfg.SearchLimit)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("topic search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	results := make([]topicResult, 0, len(ranked))
	for _, p := range ranked {
		results = append(results, topicResult{
			ID:         p.ID,
			Title:      strings.TrimSpace(p.Title),
			Authors:    p.Authors,
			Year:       p.Year,
			Similarity: p.Similarity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

// connectedPaper is an id/title pair in a paper's direct neighborhood.
type connectedPaper struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (s *Server) getPaper(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	paper, err := s.store.Lookup(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("paper", id).Msg("paper lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if paper == nil {
		s.handlePaperMiss(c, id)
		return
	}

	connected := make([]connectedPaper, 0, len(paper.ConnectedPapers))
	for _, cid := range paper.ConnectedPapers {
		connected = append(connected, connectedPaper{ID: cid, Title: s.store.Title(ctx, cid)})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"id":               paper.ID,
		"title":            paper.Title,
		"authors":          paper.Authors,
		"abstract":         paper.Abstract,
		"categories":       paper.Categories,
		"year":             paper.Year,
		"connected_papers": connected,
	})
}

// handlePaperMiss pulls an unknown paper from the upstream API, records
// it, and embeds it so later similarity queries can see it. Embedding
// failure is logged but does not fail the request.
func (s *Server) handlePaperMiss(c *gin.Context, id string) {
	ctx := c.Request.Context()

	if s.fetchMeta == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Paper with ID " + id + " not found"})
		return
	}

	paper, err := s.fetchMeta(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("paper", id).Msg("upstream paper fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if paper == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Paper with ID " + id + " not found in database or upstream",
		})
		return
	}

	if err := s.store.Upsert(ctx, paper); err != nil {
		s.log.Error().Err(err).Str("paper", paper.ID).Msg("storing fetched paper failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	if s.embedder != nil && paper.HasAbstract() {
		err := s.embedder.EmbedPaper(ctx, paper.ID, paper.Title, paper.Abstract,
			paper.Authors, paper.Categories, paper.Year)
		if err != nil {
			s.log.Error().Err(err).Str("paper", paper.ID).Msg("embedding fetched paper failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"id":               paper.ID,
		"title":            paper.Title,
		"authors":          paper.Authors,
		"abstract":         paper.Abstract,
		"categories":       paper.Categories,
		"year":             paper.Year,
		"connected_papers": []connectedPaper{},
	})
}

func (s *Server) getConnections(c *gin.Context) {
	ref := c.Param("id")
	ctx := c.Request.Context()

	degree := 3
	if d, err := strconv.Atoi(c.Query("degree")); err == nil {
		degree = d
	}

	// The path segment may be a title fragment rather than an id.
	id := ref
	if hits, err := s.store.Search(ctx, ref, 1); err == nil && len(hits) > 0 {
		id = hits[0].ID
	}

	report, err := s.conns.Expand(ctx, id, degree)
	if err != nil {
		s.log.Error().Err(err).Str("paper", id).Msg("expanding connections failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) updateCorpus(c *gin.Context) {
	if s.update == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "corpus updates not configured"})
		return
	}
	if err := s.update(c.Request.Context()); err != nil {
		s.log.Error().Err(err).Msg("corpus update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

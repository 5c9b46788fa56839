// Package server exposes the search service's JSON API: query execution
// with caching and enrichment, index stats, cache administration, and
// catalog reindexing.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/docstack/docsearch/internal/analytics"
	"github.com/docstack/docsearch/internal/coordinator"
	"github.com/docstack/docsearch/internal/index/tokenizer"
	"github.com/docstack/docsearch/internal/navigation"
	"github.com/docstack/docsearch/internal/search"
	"github.com/docstack/docsearch/internal/search/cache"
	"github.com/docstack/docsearch/internal/source"
	"github.com/docstack/docsearch/pkg/config"
	apperrors "github.com/docstack/docsearch/pkg/errors"
	"github.com/docstack/docsearch/pkg/logger"
	"github.com/docstack/docsearch/pkg/metrics"
)

// SearchResponse is the JSON body of a search request.
type SearchResponse struct {
	Query     string          `json:"query"`
	TotalHits int             `json:"total_hits"`
	Results   []search.Result `json:"results"`
}

// Handler serves the service's API endpoints. Cache, navigation resolver,
// collector, and catalog are all optional; a nil value disables the
// corresponding behaviour.
type Handler struct {
	coord     *coordinator.Coordinator
	cache     *cache.QueryCache
	nav       navigation.Resolver
	collector *analytics.Collector
	catalog   source.Catalog
	metrics   *metrics.Metrics
	searchCfg config.SearchConfig
	logger    *slog.Logger
}

func New(
	coord *coordinator.Coordinator,
	queryCache *cache.QueryCache,
	nav navigation.Resolver,
	collector *analytics.Collector,
	catalog source.Catalog,
	m *metrics.Metrics,
	searchCfg config.SearchConfig,
) *Handler {
	return &Handler{
		coord:     coord,
		cache:     queryCache,
		nav:       nav,
		collector: collector,
		catalog:   catalog,
		metrics:   m,
		searchCfg: searchCfg,
		logger:    slog.Default().With("component", "search-handler"),
	}
}

// Search executes a query. Empty and whitespace-only queries return an
// empty result list, mirroring the core contract.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	params := r.URL.Query()
	query := params.Get("q")

	limit := h.searchCfg.DefaultLimit
	if limitStr := params.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.searchCfg.MaxResults {
			parsed = h.searchCfg.MaxResults
		}
		limit = parsed
	}

	opts := search.Options{
		Categories:     splitMulti(params["category"]),
		Tags:           splitMulti(params["tags"]),
		Fuzzy:          params.Get("fuzzy") == "true" || params.Get("fuzzy") == "1",
		Limit:          limit,
		DefaultDocFreq: h.searchCfg.DefaultDocFreq,
	}

	compute := func() (*cache.Entry, error) {
		results, err := h.coord.Search(ctx, query, opts)
		if err != nil {
			return nil, err
		}
		h.enrich(results)
		return &cache.Entry{Query: query, Results: results}, nil
	}

	var entry *cache.Entry
	var err error
	cacheHit := false
	if h.cache != nil {
		entry, cacheHit, err = h.cache.GetOrCompute(ctx, query, opts, compute)
	} else {
		entry, err = compute()
	}
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "search failed")
		return
	}

	latencyMs := time.Since(start).Milliseconds()
	if h.metrics != nil {
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		}
		h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
		if h.cache != nil {
			if cacheHit {
				h.metrics.CacheHitsTotal.Inc()
			} else {
				h.metrics.CacheMissesTotal.Inc()
			}
		}
	}
	log.Info("search completed",
		"query", query,
		"results", len(entry.Results),
		"fuzzy", opts.Fuzzy,
		"cache_hit", cacheHit,
		"latency_ms", latencyMs,
	)
	if h.collector != nil {
		h.collector.Track(analytics.QueryEvent{
			Query:     query,
			Terms:     tokenizer.UniqueTerms(query),
			Hits:      len(entry.Results),
			Fuzzy:     opts.Fuzzy,
			CacheHit:  cacheHit,
			LatencyMs: latencyMs,
			RequestID: logger.RequestID(ctx),
			Timestamp: time.Now().UTC(),
		})
	}

	h.writeJSON(w, http.StatusOK, SearchResponse{
		Query:     query,
		TotalHits: len(entry.Results),
		Results:   entry.Results,
	})
}

// Stats returns the coordinator's index snapshot counters.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.coord.Stats(r.Context())
	if err != nil {
		h.logger.Error("stats request failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "stats unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// Reindex reloads the catalog and queues a full index rebuild.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		h.writeError(w, http.StatusServiceUnavailable, "no catalog configured")
		return
	}
	docs, err := h.catalog.Load(r.Context())
	if err != nil {
		h.logger.Error("catalog load failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "catalog load failed")
		return
	}
	if err := h.coord.Rebuild(r.Context(), docs); err != nil {
		h.logger.Error("rebuild enqueue failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "rebuild failed")
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "rebuilding",
		"documents": len(docs),
	})
}

// CacheStats reports query-cache hit/miss counters.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate drops all cached query results.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, apperrors.HTTPStatusCode(err), "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// enrich attaches breadcrumbs to results. Scores and ids are never
// touched here.
func (h *Handler) enrich(results []search.Result) {
	if h.nav == nil {
		return
	}
	for i := range results {
		results[i].Breadcrumbs = h.nav.Breadcrumbs(results[i].Path)
	}
}

// splitMulti accepts repeated parameters and comma-separated lists.
func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

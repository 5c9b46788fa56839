// Package coordinator serialises all access to one Index behind a single
// worker goroutine. Search and stats are synchronous request/response
// operations; mutations are queued and applied in strict arrival order.
// Because every operation runs to completion before the next one starts, a
// search always observes a fully pre- or fully post-mutation index, never
// a partial state.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/docstack/docsearch/internal/index"
	"github.com/docstack/docsearch/internal/search"
	apperrors "github.com/docstack/docsearch/pkg/errors"
	"github.com/docstack/docsearch/pkg/metrics"
)

const defaultQueueSize = 64

// Stats is a point-in-time snapshot of the index.
type Stats struct {
	DocumentCount        int       `json:"document_count"`
	DistinctTermCount    int       `json:"distinct_term_count"`
	ApproximateSizeBytes int64     `json:"approximate_size_bytes"`
	LastUpdated          time.Time `json:"last_updated"`
}

// Config tunes the coordinator. All fields are optional.
type Config struct {
	// QueueSize is the request channel capacity.
	QueueSize int
	// Metrics, when set, receives search and mutation counters and the
	// index gauges.
	Metrics *metrics.Metrics
	// OnMutation runs after each applied mutation, e.g. to invalidate
	// the query cache. It runs on the worker goroutine and so delays
	// the queue; keep it fast.
	OnMutation func()
}

type opKind int

const (
	opSearch opKind = iota
	opStats
	opAdd
	opRemove
	opUpdate
	opBatch
	opRebuild
)

var opNames = map[opKind]string{
	opAdd:     "add",
	opRemove:  "remove",
	opUpdate:  "update",
	opBatch:   "batch",
	opRebuild: "rebuild",
}

type request struct {
	kind  opKind
	raw   index.RawDocument
	raws  []index.RawDocument
	id    string
	query string
	opts  search.Options
	reply chan response // nil for queued mutations
}

type response struct {
	results []search.Result
	stats   Stats
}

// Coordinator owns one Index, the source collection it was last rebuilt
// from, and the last-updated timestamp.
type Coordinator struct {
	cfg         Config
	requests    chan request
	idx         *index.Index
	source      []index.RawDocument
	lastUpdated time.Time
	logger      *slog.Logger
	stopped     chan struct{}
}

// New builds the index from source synchronously and returns a coordinator
// ready to Start.
func New(cfg Config, source []index.RawDocument) *Coordinator {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	c := &Coordinator{
		cfg:         cfg,
		requests:    make(chan request, cfg.QueueSize),
		idx:         index.Build(source),
		source:      source,
		lastUpdated: time.Now().UTC(),
		logger:      slog.Default().With("component", "index-coordinator"),
		stopped:     make(chan struct{}),
	}
	c.logger.Info("index built",
		"documents", c.idx.DocumentCount(),
		"distinct_terms", c.idx.DistinctTermCount(),
		"approx_size_bytes", c.idx.ApproximateSize(),
	)
	c.publishGauges()
	return c
}

// Start launches the worker goroutine. It returns immediately; the worker
// runs until ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	go c.run(ctx)
}

// Search blocks until the worker reaches this request and returns the
// scored, ordered results.
func (c *Coordinator) Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	reply := make(chan response, 1)
	if err := c.enqueue(ctx, request{kind: opSearch, query: query, opts: opts, reply: reply}); err != nil {
		return nil, err
	}
	resp, err := c.await(ctx, reply)
	if err != nil {
		return nil, err
	}
	return resp.results, nil
}

// Stats blocks until the worker reaches this request and returns the index
// snapshot counters.
func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan response, 1)
	if err := c.enqueue(ctx, request{kind: opStats, reply: reply}); err != nil {
		return Stats{}, err
	}
	resp, err := c.await(ctx, reply)
	if err != nil {
		return Stats{}, err
	}
	return resp.stats, nil
}

// Add queues a document insert. It returns once the request is accepted;
// the mutation itself is applied in arrival order.
func (c *Coordinator) Add(ctx context.Context, raw index.RawDocument) error {
	return c.enqueue(ctx, request{kind: opAdd, raw: raw})
}

// Remove queues a document removal. Removing an unknown id is a no-op.
func (c *Coordinator) Remove(ctx context.Context, id string) error {
	return c.enqueue(ctx, request{kind: opRemove, id: id})
}

// Update queues a document replacement. An unknown id behaves like Add.
func (c *Coordinator) Update(ctx context.Context, raw index.RawDocument) error {
	return c.enqueue(ctx, request{kind: opUpdate, raw: raw})
}

// BatchUpdate queues a batch of document replacements applied as one
// operation.
func (c *Coordinator) BatchUpdate(ctx context.Context, raws []index.RawDocument) error {
	return c.enqueue(ctx, request{kind: opBatch, raws: raws})
}

// Rebuild queues a full rebuild from a new source collection, replacing
// the index and the stored source.
func (c *Coordinator) Rebuild(ctx context.Context, raws []index.RawDocument) error {
	return c.enqueue(ctx, request{kind: opRebuild, raws: raws})
}

func (c *Coordinator) enqueue(ctx context.Context, req request) error {
	select {
	case <-c.stopped:
		return apperrors.ErrCoordinatorStopped
	default:
	}
	select {
	case c.requests <- req:
		return nil
	case <-c.stopped:
		return apperrors.ErrCoordinatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) await(ctx context.Context, reply chan response) (response, error) {
	select {
	case resp := <-reply:
		return resp, nil
	case <-c.stopped:
		return response{}, apperrors.ErrCoordinatorStopped
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.stopped)
	c.logger.Info("coordinator started", "queue_size", cap(c.requests))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopping", "reason", ctx.Err())
			return
		case req := <-c.requests:
			c.handle(req)
		}
	}
}

func (c *Coordinator) handle(req request) {
	switch req.kind {
	case opSearch:
		results := search.Query(c.idx, req.query, req.opts)
		c.observeSearch(req, results)
		req.reply <- response{results: results}
	case opStats:
		req.reply <- response{stats: Stats{
			DocumentCount:        c.idx.DocumentCount(),
			DistinctTermCount:    c.idx.DistinctTermCount(),
			ApproximateSizeBytes: c.idx.ApproximateSize(),
			LastUpdated:          c.lastUpdated,
		}}
	case opAdd:
		c.idx.Add(req.raw)
		c.afterMutation(req.kind, 1)
	case opRemove:
		c.idx.Remove(req.id)
		c.afterMutation(req.kind, 1)
	case opUpdate:
		c.idx.Update(req.raw)
		c.afterMutation(req.kind, 1)
	case opBatch:
		for _, raw := range req.raws {
			c.idx.Update(raw)
		}
		c.afterMutation(req.kind, len(req.raws))
	case opRebuild:
		c.idx = index.Build(req.raws)
		c.source = req.raws
		c.afterMutation(req.kind, len(req.raws))
	}
}

func (c *Coordinator) afterMutation(kind opKind, docs int) {
	c.lastUpdated = time.Now().UTC()
	c.logger.Debug("mutation applied",
		"operation", opNames[kind],
		"documents", docs,
		"index_documents", c.idx.DocumentCount(),
	)
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.IndexMutationsTotal.WithLabelValues(opNames[kind]).Inc()
	}
	c.publishGauges()
	if c.cfg.OnMutation != nil {
		c.cfg.OnMutation()
	}
}

func (c *Coordinator) observeSearch(req request, results []search.Result) {
	if c.cfg.Metrics == nil {
		return
	}
	resultType := "hit"
	if len(results) == 0 {
		resultType = "zero_result"
	}
	c.cfg.Metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	c.cfg.Metrics.SearchResultsCount.Observe(float64(len(results)))
	if req.opts.Fuzzy {
		c.cfg.Metrics.FuzzySearchesTotal.Inc()
	}
}

func (c *Coordinator) publishGauges() {
	if c.cfg.Metrics == nil {
		return
	}
	c.cfg.Metrics.IndexDocuments.Set(float64(c.idx.DocumentCount()))
	c.cfg.Metrics.IndexDistinctTerms.Set(float64(c.idx.DistinctTermCount()))
	c.cfg.Metrics.IndexSizeBytes.Set(float64(c.idx.ApproximateSize()))
}

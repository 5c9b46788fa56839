// Package analytics accumulates query events in memory and flushes them to
// Kafka in bulk, so search latency never waits on the broker.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/docstack/docsearch/pkg/kafka"
)

// QueryEvent describes one executed search.
type QueryEvent struct {
	Query     string    `json:"query"`
	Terms     []string  `json:"terms,omitempty"`
	Hits      int       `json:"hits"`
	Fuzzy     bool      `json:"fuzzy"`
	CacheHit  bool      `json:"cache_hit"`
	LatencyMs int64     `json:"latency_ms"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Collector buffers query events and flushes them to Kafka when the buffer
// reaches batchSize or after flushInterval, whichever comes first.
type Collector struct {
	producer      *kafka.Producer
	mu            sync.Mutex
	buffer        []kafka.Event
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

// NewCollector creates a Collector. batchSize and flushInterval fall back
// to 100 events and 5 seconds.
func NewCollector(producer *kafka.Producer, batchSize int, flushInterval time.Duration) *Collector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		producer:      producer,
		buffer:        make([]kafka.Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the background flush loop, which runs until ctx is
// cancelled and then performs a final flush.
func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.flush(ctx)
			case <-ctx.Done():
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				c.flush(flushCtx)
				cancel()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started",
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

// Track buffers an event, triggering an asynchronous flush if the buffer
// is full. It never blocks the caller on Kafka.
func (c *Collector) Track(event QueryEvent) {
	c.mu.Lock()
	c.buffer = append(c.buffer, kafka.Event{Key: event.Query, Value: event})
	shouldFlush := len(c.buffer) >= c.batchSize
	c.mu.Unlock()
	if shouldFlush {
		go c.flush(context.Background())
	}
}

// BufferLen returns the current number of buffered events.
func (c *Collector) BufferLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Close waits for the background flush loop to finish.
func (c *Collector) Close() {
	<-c.done
}

func (c *Collector) flush(ctx context.Context) {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]kafka.Event, 0, c.batchSize)
	c.mu.Unlock()

	if err := c.producer.PublishBatch(ctx, batch); err != nil {
		c.logger.Error("analytics flush failed", "events", len(batch), "error", err)
		// Re-queue up to three batches worth; beyond that events drop.
		c.mu.Lock()
		c.buffer = append(batch, c.buffer...)
		if limit := c.batchSize * 3; len(c.buffer) > limit {
			dropped := len(c.buffer) - limit
			c.buffer = c.buffer[:limit]
			c.logger.Warn("analytics buffer overflow, events dropped", "dropped", dropped)
		}
		c.mu.Unlock()
		return
	}
	c.logger.Debug("analytics batch flushed", "events", len(batch))
}

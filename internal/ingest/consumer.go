// Package ingest bridges the document-events Kafka topic to the index
// coordinator. Events are applied in partition order, which the
// coordinator's FIFO queue preserves end to end.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docstack/docsearch/internal/coordinator"
	"github.com/docstack/docsearch/internal/index"
	"github.com/docstack/docsearch/pkg/kafka"
)

// Operations accepted on the document events topic.
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpUpdate  = "update"
	OpBatch   = "batch"
	OpRebuild = "rebuild"
)

// DocumentEvent is the JSON payload of a document mutation event.
type DocumentEvent struct {
	Op        string              `json:"op"`
	ID        string              `json:"id,omitempty"`
	Document  *index.RawDocument  `json:"document,omitempty"`
	Documents []index.RawDocument `json:"documents,omitempty"`
}

// Handler returns a kafka.MessageHandler that decodes document events and
// forwards them to the coordinator. Malformed events are logged and
// skipped rather than blocking the partition.
func Handler(coord *coordinator.Coordinator) kafka.MessageHandler {
	logger := slog.Default().With("component", "ingest")
	return func(ctx context.Context, key, value []byte) error {
		event, err := kafka.DecodeJSON[DocumentEvent](value)
		if err != nil {
			logger.Warn("skipping undecodable document event", "key", string(key), "error", err)
			return nil
		}
		if err := apply(ctx, coord, event); err != nil {
			return fmt.Errorf("applying %s event: %w", event.Op, err)
		}
		logger.Debug("document event applied", "op", event.Op, "key", string(key))
		return nil
	}
}

func apply(ctx context.Context, coord *coordinator.Coordinator, event DocumentEvent) error {
	switch event.Op {
	case OpAdd:
		if event.Document == nil {
			return fmt.Errorf("add event without document")
		}
		return coord.Add(ctx, *event.Document)
	case OpRemove:
		if event.ID == "" {
			return fmt.Errorf("remove event without id")
		}
		return coord.Remove(ctx, event.ID)
	case OpUpdate:
		if event.Document == nil {
			return fmt.Errorf("update event without document")
		}
		return coord.Update(ctx, *event.Document)
	case OpBatch:
		return coord.BatchUpdate(ctx, event.Documents)
	case OpRebuild:
		return coord.Rebuild(ctx, event.Documents)
	default:
		slog.Default().Warn("unknown document event op", "op", event.Op)
		return nil
	}
}

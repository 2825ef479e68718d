// Package feed connects the engine to Kafka: portfolio updates in, risk
// reports out. Payloads are JSON.
package feed

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/quantedge/options-risk-engine/internal/engine"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

// InputHandler processes one decoded portfolio update.
type InputHandler func(ctx context.Context, input *engine.AnalysisInput) error

// Consumer reads portfolio updates from Kafka and hands them to a handler.
type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// NewConsumer creates a consumer in the given group.
func NewConsumer(brokers []string, topic, group string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  group,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		log: logger.GetLogger("feed.consumer"),
	}
}

// Run consumes until the context is canceled. Messages that fail to decode
// are logged and skipped; handler errors are logged but do not stop the loop.
func (c *Consumer) Run(ctx context.Context, handler InputHandler) error {
	c.log.Infow("consumer started", "topic", c.reader.Config().Topic)
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "reading portfolio update")
		}

		var input engine.AnalysisInput
		if err := json.Unmarshal(msg.Value, &input); err != nil {
			c.log.Warnw("skipping malformed portfolio update",
				"offset", msg.Offset, "error", err)
			continue
		}

		if err := handler(ctx, &input); err != nil {
			c.log.Errorw("analysis of portfolio update failed",
				"offset", msg.Offset, "error", err)
		}
	}
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

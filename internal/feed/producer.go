package feed

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/quantedge/options-risk-engine/pkg/models"
	"github.com/quantedge/options-risk-engine/pkg/utils/errors"
	"github.com/quantedge/options-risk-engine/pkg/utils/logger"
)

// Producer publishes finished risk reports.
type Producer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewProducer creates a producer for the report topic.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
		},
		log: logger.GetLogger("feed.producer"),
	}
}

// PublishReport writes one report, keyed by its ID.
func (p *Producer) PublishReport(ctx context.Context, report *models.RiskReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "encoding risk report")
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.ID),
		Value: payload,
	})
	if err != nil {
		return errors.Wrap(err, "publishing risk report")
	}
	p.log.Debugw("report published", "report_id", report.ID)
	return nil
}

// Close releases the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Package events publishes model lifecycle and prediction events to Kafka.
// Publishing is optional and best-effort: a disabled or failing publisher
// never blocks the request path.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/groupbuy/procurement-analytics/internal/config"
	"github.com/groupbuy/procurement-analytics/internal/models"
)

// Publisher writes events to the configured topics. A nil *Publisher is a
// valid no-op publisher.
type Publisher struct {
	modelWriter      *kafka.Writer
	predictionWriter *kafka.Writer
	logger           *zap.Logger
}

// NewPublisher creates a Kafka publisher, or nil when eventing is disabled.
func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) *Publisher {
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		return nil
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		}
	}

	return &Publisher{
		modelWriter:      newWriter(cfg.Topics.ModelUpdates),
		predictionWriter: newWriter(cfg.Topics.Predictions),
		logger:           logger,
	}
}

// ModelUpdated publishes a trained-model lifecycle change.
func (p *Publisher) ModelUpdated(ctx context.Context, model *models.MLModel) {
	if p == nil {
		return
	}
	p.publish(ctx, p.modelWriter, model.ID.String(), map[string]interface{}{
		"event":       "model_updated",
		"model_id":    model.ID,
		"model_type":  model.Type,
		"status":      model.Status,
		"performance": model.Performance,
		"occurred_at": time.Now().UTC(),
	})
}

// PredictionCreated publishes a new prediction record.
func (p *Publisher) PredictionCreated(ctx context.Context, prediction *models.Prediction) {
	if p == nil {
		return
	}
	p.publish(ctx, p.predictionWriter, prediction.ProcurementID.String(), map[string]interface{}{
		"event":           "prediction_created",
		"prediction_id":   prediction.ID,
		"procurement_id":  prediction.ProcurementID,
		"prediction_type": prediction.Type,
		"predicted_value": prediction.PredictedValue,
		"confidence":      prediction.Confidence,
		"occurred_at":     time.Now().UTC(),
	})
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, key string, payload map[string]interface{}) {
	value, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("topic", writer.Topic),
			zap.Error(err))
	}
}

// Close flushes and closes the underlying writers.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.modelWriter.Close(); err != nil {
		return err
	}
	return p.predictionWriter.Close()
}

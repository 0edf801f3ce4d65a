package repository

import (
	"context"
	"time"

	"MineWatch/internal/domain/models"
	domrepo "MineWatch/internal/domain/repository"
	pkgkafka "MineWatch/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaPublisher announces each ranked commodity as one message keyed by
// commodity name.
type KafkaPublisher struct {
	producer batchProducer
	topic    string
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

// ForecastMessage is the payload of one published ranking entry.
type ForecastMessage struct {
	RunID       string    `json:"run_id"`
	PublishedAt time.Time `json:"published_at"`
	models.Forecast
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishForecasts(ctx context.Context, runID string, forecasts []models.Forecast) error {
	if len(forecasts) == 0 {
		return nil
	}
	now := time.Now().UTC()
	msgs := make([]pkgkafka.Message, len(forecasts))
	for i, f := range forecasts {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(f.Commodity.String()),
			Value: ForecastMessage{RunID: runID, PublishedAt: now, Forecast: f},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

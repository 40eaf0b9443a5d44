package rabbitmq

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"worker-recording/config"
	"worker-recording/dto"
)

// EnrichmentSpec carries post-ingest transcription work.
var EnrichmentSpec = Spec{
	ExchangeName: "enrichment_exchange",
	QueueName:    "enrichment_queue",
	RoutingKey:   "recording.enrichment.request",
}

// EnrichmentPublisher is the pipeline's fire-and-forget handoff to the
// transcription workers. Messages carry a pointer to the stored media, not
// the bytes; the worker streams them back out of the object store.
type EnrichmentPublisher struct {
	ch   *amqp.Channel
	spec Spec
}

func NewEnrichmentPublisher(conn *amqp.Connection, cfg *config.RabbitMQ) (*EnrichmentPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	err = ch.ExchangeDeclare(EnrichmentSpec.ExchangeName, cfg.Kind, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}

	return &EnrichmentPublisher{
		ch:   ch,
		spec: EnrichmentSpec,
	}, nil
}

func (p *EnrichmentPublisher) Enqueue(ctx context.Context, msg dto.EnrichmentMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx, p.spec.ExchangeName, p.spec.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *EnrichmentPublisher) Close() error {
	return p.ch.Close()
}

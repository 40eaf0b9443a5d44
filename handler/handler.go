package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"worker-recording/conference"
	"worker-recording/dto"
	"worker-recording/service"
)

type ServiceDependencies struct {
	Tracker           *conference.Tracker
	IngestService     service.IngestService
	EnrichmentService service.EnrichmentService
}

// ConferenceEventHandler feeds conference join/leave lifecycle events into
// the session tracker. Partial events are silent no-ops inside the tracker;
// only undecodable payloads are reported.
func ConferenceEventHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var event dto.ConferenceEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal conference event")
		return err
	}

	switch event.Event {
	case dto.ConferenceEventLeave:
		deps.Tracker.RecordLeave(event.ConferenceInstanceId, event.CallId)
	default:
		deps.Tracker.RecordJoin(event.ConferenceInstanceId, event.CallId, event.PhoneNumber)
	}

	return nil
}

func RecordingReadyHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var notification dto.RecordingNotification
	if err := json.Unmarshal(msg.Body, &notification); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal recording notification")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("provider_recording_id", notification.ProviderRecordingId).
		Str("conference_instance_id", notification.ConferenceInstanceId).
		Msg("received recording notification")

	err := deps.IngestService.Ingest(ctx, notification)
	if err != nil {
		return err
	}

	return nil
}

func EnrichmentHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var enrichment dto.EnrichmentMessage
	if err := json.Unmarshal(msg.Body, &enrichment); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal enrichment message")
		return err
	}

	err := deps.EnrichmentService.Process(ctx, enrichment)
	if err != nil {
		return err
	}

	return nil
}

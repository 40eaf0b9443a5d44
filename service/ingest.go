package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"worker-recording/conference"
	"worker-recording/constant"
	"worker-recording/dto"
	"worker-recording/entities"
	"worker-recording/repository"
	"worker-recording/storage"
)

// Enqueuer schedules transcription enrichment for a stored recording.
// Submission is fire-and-forget from the pipeline's point of view.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg dto.EnrichmentMessage) error
}

// IngestService is the single authoritative path from "provider says a
// recording is ready" to "a consistent recording row exists".
type IngestService interface {
	Ingest(ctx context.Context, notification dto.RecordingNotification) error
}

type ingestService struct {
	repo     repository.RecordingRepository
	tracker  *conference.Tracker
	fetcher  MediaFetcher
	store    storage.ObjectStore
	enqueuer Enqueuer
	classify Classifier

	mu    sync.Mutex
	gates map[string]*gate
}

type gate struct {
	mu   sync.Mutex
	refs int
}

// NewIngestService wires the pipeline. A nil classifier falls back to
// DefaultClassifier.
func NewIngestService(
	repo repository.RecordingRepository,
	tracker *conference.Tracker,
	fetcher MediaFetcher,
	store storage.ObjectStore,
	enqueuer Enqueuer,
	classify Classifier,
) IngestService {
	if classify == nil {
		classify = DefaultClassifier
	}
	return &ingestService{
		repo:     repo,
		tracker:  tracker,
		fetcher:  fetcher,
		store:    store,
		enqueuer: enqueuer,
		classify: classify,
		gates:    make(map[string]*gate),
	}
}

func (s *ingestService) Ingest(ctx context.Context, notification dto.RecordingNotification) (err error) {
	if notification.ProviderRecordingId == "" || notification.MediaURL == "" {
		return errors.Join(ErrNonRetryable, ErrMalformedNotification)
	}

	log := zerolog.Ctx(ctx).With().Str("provider_recording_id", notification.ProviderRecordingId).Logger()

	// Concurrent deliveries of the same recording serialize here, so at most
	// one of them can pass the dedup check below before a row exists. The
	// unique constraint on provider_recording_id backstops other processes.
	release := s.acquire(notification.ProviderRecordingId)
	defer release()

	existing, err := s.repo.FindByProviderId(ctx, notification.ProviderRecordingId)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Info().Msg("duplicate recording notification, already ingested")
		return nil
	}

	kind := s.classify(notification)

	media, contentType, err := s.fetcher.Fetch(ctx, notification.MediaURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch media")
		return err
	}

	objectName := mediaObjectName(notification.ProviderRecordingId, contentType)
	if err = s.store.Put(ctx, objectName, bytes.NewReader(media), int64(len(media)), contentType); err != nil {
		log.Error().Err(err).Str("object_name", objectName).Msg("failed to store media")
		return errors.Join(ErrStorageFailure, err)
	}

	recording := &entities.Recording{
		ID:                  uuid.New(),
		ProviderRecordingId: notification.ProviderRecordingId,
		MediaLocation:       objectName,
		DurationSeconds:     notification.DurationSeconds,
		RecordingKind:       kind,
		TranscriptionStatus: constant.TranscriptionStatusPending,
	}
	if notification.ConferenceInstanceId != "" {
		conferenceId := notification.ConferenceInstanceId
		recording.ConferenceInstanceId = &conferenceId
	}

	s.resolveParticipants(recording, notification, kind)

	if err = s.repo.Insert(ctx, recording); err != nil {
		if errors.Is(err, repository.ErrDuplicateRecording) {
			// Lost a cross-process race to a concurrent successful ingest.
			log.Info().Msg("recording persisted concurrently elsewhere")
			return nil
		}
		log.Error().Err(err).Msg("failed to persist recording")
		return err
	}

	log.Info().
		Str("recording_id", recording.ID.String()).
		Str("kind", kind.String()).
		Int("participant_count", recording.ParticipantCount).
		Msg("recording ingested")

	// The recording exists from here on; a scheduling failure must not undo
	// that, it only leaves the row Pending for a later re-drive.
	enqueueErr := s.enqueuer.Enqueue(ctx, dto.EnrichmentMessage{
		RecordingId: recording.ID,
		ObjectName:  objectName,
	})
	if enqueueErr != nil {
		log.Warn().Err(enqueueErr).Msg("failed to schedule transcription enrichment")
	}

	return nil
}

// resolveParticipants fills participant metadata from the session tracker.
// A mixed ingest consumes the session; stems only read it, since sibling stems
// of the same conference may still need the call mapping. Missing sessions
// fall back to empty metadata: a fetched recording is never dropped for want
// of ancillary data.
func (s *ingestService) resolveParticipants(recording *entities.Recording, notification dto.RecordingNotification, kind constant.RecordingKind) {
	switch kind {
	case constant.RecordingKindStem:
		recording.ParticipantCount = 1
		recording.ParticipantPhoneNumbers = []string{}
		if notification.OriginatingCallId != "" {
			callId := notification.OriginatingCallId
			recording.OriginatingCallId = &callId
		}
		if notification.ConferenceInstanceId == "" || notification.OriginatingCallId == "" {
			return
		}
		snap := s.tracker.Snapshot(notification.ConferenceInstanceId)
		if number, ok := snap.CallPhoneNumber[notification.OriginatingCallId]; ok {
			recording.ParticipantPhoneNumbers = []string{number}
		}
	default:
		recording.ParticipantPhoneNumbers = []string{}
		if notification.ConferenceInstanceId == "" {
			return
		}
		snap := s.tracker.Consume(notification.ConferenceInstanceId)
		recording.ParticipantCount = snap.PeakConcurrency
		recording.ParticipantPhoneNumbers = snap.PhoneNumbers
	}
}

func (s *ingestService) acquire(providerRecordingId string) func() {
	s.mu.Lock()
	g, ok := s.gates[providerRecordingId]
	if !ok {
		g = &gate{}
		s.gates[providerRecordingId] = g
	}
	g.refs++
	s.mu.Unlock()

	g.mu.Lock()
	return func() {
		g.mu.Unlock()
		s.mu.Lock()
		g.refs--
		if g.refs == 0 {
			delete(s.gates, providerRecordingId)
		}
		s.mu.Unlock()
	}
}

// mediaObjectName derives the storage key deterministically from the provider
// recording id, so a retried ingest overwrites rather than duplicates.
func mediaObjectName(providerRecordingId, contentType string) string {
	return fmt.Sprintf("recordings/%s%s", providerRecordingId, extensionForContentType(contentType))
}

func extensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".audio"
	}
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".audio"
	}
}

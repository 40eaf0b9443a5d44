package service

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"worker-recording/constant"
	"worker-recording/dto"
	"worker-recording/repository"
	"worker-recording/storage"
)

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, media io.Reader) (string, error)
}

// EnrichmentService walks a recording through
// Pending -> Processing -> {Completed, Failed}. It runs out-of-band from the
// ingest and never touches the recording's core fields.
type EnrichmentService interface {
	Process(ctx context.Context, msg dto.EnrichmentMessage) error
}

type enrichmentService struct {
	repo        repository.RecordingRepository
	store       storage.ObjectStore
	transcriber Transcriber
}

func NewEnrichmentService(repo repository.RecordingRepository, store storage.ObjectStore, transcriber Transcriber) EnrichmentService {
	return &enrichmentService{
		repo:        repo,
		store:       store,
		transcriber: transcriber,
	}
}

func (s *enrichmentService) Process(ctx context.Context, msg dto.EnrichmentMessage) error {
	log := zerolog.Ctx(ctx).With().Str("recording_id", msg.RecordingId.String()).Logger()

	recording, err := s.repo.FindById(ctx, msg.RecordingId)
	if err != nil {
		log.Error().Err(err).Msg("failed to load recording for enrichment")
		return err
	}

	// Only a Pending recording gets an attempt. This keeps redelivered
	// messages from starting a second attempt for the same recording, and
	// makes Failed terminal.
	if recording.TranscriptionStatus != constant.TranscriptionStatusPending {
		log.Info().Str("status", recording.TranscriptionStatus.String()).Msg("skipping enrichment, recording is not pending")
		return nil
	}

	if err = s.repo.UpdateTranscription(ctx, recording.ID, constant.TranscriptionStatusProcessing, nil); err != nil {
		log.Error().Err(err).Msg("failed to mark recording processing")
		return err
	}

	media, err := s.store.Get(ctx, msg.ObjectName)
	if err != nil {
		log.Error().Err(err).Str("object_name", msg.ObjectName).Msg("failed to read media for enrichment")
		s.markFailed(ctx, msg, &log)
		return nil
	}
	defer media.Close()

	text, err := s.transcriber.Transcribe(ctx, media)
	if err != nil {
		log.Error().Err(err).Msg("transcription failed")
		s.markFailed(ctx, msg, &log)
		return nil
	}

	if err = s.repo.UpdateTranscription(ctx, recording.ID, constant.TranscriptionStatusCompleted, &text); err != nil {
		log.Error().Err(err).Msg("failed to store transcription")
		return err
	}

	log.Info().Msg("transcription completed")
	return nil
}

// markFailed records the terminal Failed state. Operators surface stuck
// recordings from this status; there is no automatic retry.
func (s *enrichmentService) markFailed(ctx context.Context, msg dto.EnrichmentMessage, log *zerolog.Logger) {
	if err := s.repo.UpdateTranscription(ctx, msg.RecordingId, constant.TranscriptionStatusFailed, nil); err != nil {
		log.Error().Err(err).Msg("failed to mark recording failed")
	}
}

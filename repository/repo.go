package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"worker-recording/constant"
	"worker-recording/entities"
)

// ErrDuplicateRecording is returned by Insert when another row already holds
// the same provider recording id. Callers treat it as a lost-but-harmless race.
var ErrDuplicateRecording = errors.New("duplicate provider recording id")

type RecordingRepository interface {
	FindByProviderId(ctx context.Context, providerRecordingId string) (*entities.Recording, error)
	FindById(ctx context.Context, id uuid.UUID) (*entities.Recording, error)
	Insert(ctx context.Context, recording *entities.Recording) error
	UpdateTranscription(ctx context.Context, id uuid.UUID, status constant.TranscriptionStatus, text *string) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) RecordingRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
		},
	)
	return &repo{
		db: gormDB,
	}
}

// FindByProviderId returns nil without error when no row matches, so the
// pipeline can treat "unseen" and "seen" as plain branches.
func (r *repo) FindByProviderId(ctx context.Context, providerRecordingId string) (*entities.Recording, error) {
	recording := &entities.Recording{}
	err := r.db.WithContext(ctx).First(recording, "provider_recording_id = ?", providerRecordingId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return recording, nil
}

func (r *repo) FindById(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	recording := &entities.Recording{}
	err := r.db.WithContext(ctx).First(recording, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return recording, nil
}

func (r *repo) Insert(ctx context.Context, recording *entities.Recording) error {
	err := r.db.WithContext(ctx).Create(recording).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateRecording
	}
	if err != nil {
		return err
	}

	return nil
}

func (r *repo) UpdateTranscription(ctx context.Context, id uuid.UUID, status constant.TranscriptionStatus, text *string) error {
	updates := map[string]interface{}{
		"transcription_status": status,
		"transcription_text":   text,
	}
	err := r.db.WithContext(ctx).Model(&entities.Recording{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return err
	}
	return nil
}

package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"worker-recording/constant"
)

type Recording struct {
	ID                      uuid.UUID                    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProviderRecordingId     string                       `json:"provider_recording_id" gorm:"type:varchar(64);not null;uniqueIndex:unique_provider_recording_id"`
	ConferenceInstanceId    *string                      `json:"conference_instance_id" gorm:"type:varchar(64);index:idx_recordings_conference_instance"`
	MediaLocation           string                       `json:"media_location" gorm:"type:varchar(500);not null"`
	DurationSeconds         *int                         `json:"duration_seconds" gorm:"type:integer"`
	ParticipantCount        int                          `json:"participant_count" gorm:"type:integer;not null;default:0"`
	ParticipantPhoneNumbers pq.StringArray               `json:"participant_phone_numbers" gorm:"type:text[]"`
	RecordingKind           constant.RecordingKind       `json:"recording_kind" gorm:"type:varchar(10);not null"`
	OriginatingCallId       *string                      `json:"originating_call_id" gorm:"type:varchar(64)"`
	Archived                bool                         `json:"archived" gorm:"not null;default:false"`
	TranscriptionStatus     constant.TranscriptionStatus `json:"transcription_status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	TranscriptionText       *string                      `json:"transcription_text" gorm:"type:text"`
	CreatedAt               time.Time                    `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt               time.Time                    `json:"updated_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (Recording) TableName() string {
	return "recordings"
}

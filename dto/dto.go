package dto

import "github.com/google/uuid"

// RecordingNotification is a "recording is ready" webhook payload after
// boundary validation. Track and Source carry the provider's classification
// signals; everything else in the raw payload is dropped at the edge.
type RecordingNotification struct {
	ProviderRecordingId  string `json:"providerRecordingId"`
	MediaURL             string `json:"mediaUrl"`
	ConferenceInstanceId string `json:"conferenceInstanceId,omitempty"`
	OriginatingCallId    string `json:"originatingCallId,omitempty"`
	DurationSeconds      *int   `json:"durationSeconds,omitempty"`
	Track                string `json:"track,omitempty"`
	Source               string `json:"source,omitempty"`
}

type ConferenceEventKind string

const (
	ConferenceEventJoin  ConferenceEventKind = "join"
	ConferenceEventLeave ConferenceEventKind = "leave"
)

// ConferenceEvent is a parsed conference lifecycle notification.
type ConferenceEvent struct {
	Event                ConferenceEventKind `json:"event"`
	ConferenceInstanceId string              `json:"conferenceInstanceId"`
	CallId               string              `json:"callId"`
	PhoneNumber          string              `json:"phoneNumber,omitempty"`
}

// EnrichmentMessage points the transcription worker at a stored recording.
type EnrichmentMessage struct {
	RecordingId uuid.UUID `json:"recordingId"`
	ObjectName  string    `json:"objectName"`
}

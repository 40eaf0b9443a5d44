package service

import (
	"strings"

	"worker-recording/constant"
	"worker-recording/dto"
)

// Classifier decides whether a notification describes a per-participant stem
// capture or the full conference mix, using only fields on the notification.
// It is a swappable policy: the provider signals observed so far are not
// assumed to be exhaustive across all configurations.
type Classifier func(notification dto.RecordingNotification) constant.RecordingKind

// DefaultClassifier treats per-leg channel captures (inbound/outbound track)
// and recordings sourced from the dial verb or outbound API as stems;
// everything else is the conference mix.
func DefaultClassifier(notification dto.RecordingNotification) constant.RecordingKind {
	switch strings.ToLower(notification.Track) {
	case "inbound", "outbound":
		return constant.RecordingKindStem
	}

	switch notification.Source {
	case "DialVerb", "OutboundAPI":
		return constant.RecordingKindStem
	}

	return constant.RecordingKindMixed
}

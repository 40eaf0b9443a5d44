package constant

type RecordingKind string

const (
	RecordingKindMixed RecordingKind = "MIXED"
	RecordingKindStem  RecordingKind = "STEM"
)

func (k RecordingKind) String() string {
	return string(k)
}

type TranscriptionStatus string

const (
	TranscriptionStatusPending    TranscriptionStatus = "PENDING"
	TranscriptionStatusProcessing TranscriptionStatus = "PROCESSING"
	TranscriptionStatusCompleted  TranscriptionStatus = "COMPLETED"
	TranscriptionStatusFailed     TranscriptionStatus = "FAILED"
)

func (s TranscriptionStatus) String() string {
	return string(s)
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

package domain

// SourceStrategy identifies which acquisition strategy produced a transcript.
type SourceStrategy string

const (
	SourceCaptionFetch      SourceStrategy = "CaptionFetch"
	SourceLocalSpeechToText SourceStrategy = "LocalSpeechToText"
)

// TranscriptResult is the outcome of a successful transcript acquisition.
// Text is never empty: an empty fetch is a failure, not a result.
type TranscriptResult struct {
	Text           string         `json:"text"`
	SourceStrategy SourceStrategy `json:"sourceStrategy"`
	CharLength     int            `json:"charLength"`
}

// NewTranscriptResult builds a result with CharLength derived from Text.
func NewTranscriptResult(text string, strategy SourceStrategy) *TranscriptResult {
	return &TranscriptResult{
		Text:           text,
		SourceStrategy: strategy,
		CharLength:     len([]rune(text)),
	}
}

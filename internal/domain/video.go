package domain

import (
	"regexp"

	"github.com/kapu/lessonlens/pkg/errors"
)

// VideoReference is an immutable, validated pointer to a video. ID is the
// 11-character identifier extracted from RawURL.
type VideoReference struct {
	RawURL string
	ID     string
}

// Accepted URL shapes, tried in order; the first match wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/live/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([A-Za-z0-9_-]{11})`),
}

// ParseVideoURL validates a raw URL against the accepted shapes and extracts
// the video identifier. No match is a terminal validation failure, never a
// retryable condition.
func ParseVideoURL(rawURL string) (*VideoReference, error) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return &VideoReference{RawURL: rawURL, ID: m[1]}, nil
		}
	}
	return nil, errors.NewInvalidVideoReference(rawURL)
}

// VideoMetadata is best-effort enrichment. Title always has a value; the
// placeholder is used when the lookup fails or is not configured.
type VideoMetadata struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Duration    string `json:"duration,omitempty"`
	ChannelName string `json:"channelName,omitempty"`
}

const PlaceholderTitle = "Video Title Not Available"

// PlaceholderMetadata is the degraded metadata record used whenever
// resolution fails. Metadata is enrichment, never a gate.
func PlaceholderMetadata(id string) *VideoMetadata {
	return &VideoMetadata{ID: id, Title: PlaceholderTitle}
}

package domain

import (
	"testing"

	apperrors "github.com/kapu/lessonlens/pkg/errors"
)

func TestParseVideoURLExtractsID(t *testing.T) {
	cases := []struct {
		name string
		url  string
		id   string
	}{
		{"watch", "https://www.youtube.com/watch?v=abc12345678", "abc12345678"},
		{"watch with extra params", "https://www.youtube.com/watch?list=PL123&v=abc12345678&t=42s", "abc12345678"},
		{"short link", "https://youtu.be/abc12345678", "abc12345678"},
		{"short link with timestamp", "https://youtu.be/abc12345678?t=120", "abc12345678"},
		{"embed", "https://www.youtube.com/embed/abc12345678", "abc12345678"},
		{"shorts", "https://www.youtube.com/shorts/abc12345678", "abc12345678"},
		{"live", "https://www.youtube.com/live/abc12345678", "abc12345678"},
		{"legacy v path", "https://www.youtube.com/v/abc12345678", "abc12345678"},
		{"nocookie embed", "https://www.youtube-nocookie.com/embed/abc12345678", "abc12345678"},
		{"no scheme", "youtube.com/watch?v=abc12345678", "abc12345678"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ParseVideoURL(tc.url)
			if err != nil {
				t.Fatalf("ParseVideoURL(%q) returned error: %v", tc.url, err)
			}
			if ref.ID != tc.id {
				t.Errorf("ID = %q, want %q", ref.ID, tc.id)
			}
			if ref.RawURL != tc.url {
				t.Errorf("RawURL = %q, want %q", ref.RawURL, tc.url)
			}
		})
	}
}

func TestParseVideoURLRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"not a url", "watch this great video"},
		{"wrong host", "https://vimeo.com/123456789"},
		{"id too short", "https://www.youtube.com/watch?v=short"},
		{"channel page", "https://www.youtube.com/@somechannel"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseVideoURL(tc.url)
			if err == nil {
				t.Fatalf("ParseVideoURL(%q) succeeded, want error", tc.url)
			}
			if !apperrors.IsKind(err, apperrors.KindInvalidVideoReference) {
				t.Errorf("error kind = %v, want InvalidVideoReference", apperrors.KindOf(err))
			}
			if apperrors.StatusOf(err) != 400 {
				t.Errorf("status = %d, want 400", apperrors.StatusOf(err))
			}
		})
	}
}

func TestPlaceholderMetadata(t *testing.T) {
	meta := PlaceholderMetadata("abc12345678")
	if meta.ID != "abc12345678" {
		t.Errorf("ID = %q, want abc12345678", meta.ID)
	}
	if meta.Title != PlaceholderTitle {
		t.Errorf("Title = %q, want placeholder", meta.Title)
	}
	if meta.Duration != "" || meta.ChannelName != "" {
		t.Errorf("optional fields should be empty, got %+v", meta)
	}
}

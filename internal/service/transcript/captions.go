package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/constants"
	"github.com/kapu/lessonlens/internal/domain"
)

const (
	watchPageURLFormat = "https://www.youtube.com/watch?v=%s"
	browserUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	playerResponseVar  = "ytInitialPlayerResponse"
)

// playerResponse is the slice of the watch-page player config we care about:
// playability and the caption track list.
type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
	} `json:"playabilityStatus"`
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" marks auto-generated tracks
}

// json3Transcript is the caption payload format requested via fmt=json3.
type json3Transcript struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// CaptionFetcher acquires transcripts from published caption tracks by
// scraping the watch page for the player config and downloading the best
// matching track.
type CaptionFetcher struct {
	pageClient  *http.Client
	trackClient *http.Client
	languages   []string
	logger      *zap.Logger
}

func NewCaptionFetcher(languages []string, logger *zap.Logger) *CaptionFetcher {
	if len(languages) == 0 {
		languages = constants.CaptionConfig.Languages
	}
	return &CaptionFetcher{
		pageClient:  &http.Client{Timeout: constants.CaptionConfig.WatchPageTimeout},
		trackClient: &http.Client{Timeout: constants.CaptionConfig.HTTPTimeout},
		languages:   languages,
		logger:      logger,
	}
}

func (f *CaptionFetcher) Source() domain.SourceStrategy {
	return domain.SourceCaptionFetch
}

func (f *CaptionFetcher) Fetch(ctx context.Context, videoID string) (string, error) {
	player, err := f.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return "", err
	}

	switch player.PlayabilityStatus.Status {
	case "", "OK", "CONTENT_CHECK_REQUIRED":
	case "LOGIN_REQUIRED", "UNPLAYABLE", "ERROR":
		return "", fmt.Errorf("%w: playability status %s", ErrVideoUnavailable, player.PlayabilityStatus.Status)
	}

	track := pickCaptionTrack(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, f.languages)
	if track == nil {
		return "", ErrNoCaptions
	}

	f.logger.Debug("Caption track selected",
		zap.String("video_id", videoID),
		zap.String("language", track.LanguageCode),
		zap.String("kind", track.Kind))

	return f.fetchTrack(ctx, track.BaseURL)
}

// fetchPlayerResponse loads the watch page and digs the player config out of
// the inline script that assigns ytInitialPlayerResponse.
func (f *CaptionFetcher) fetchPlayerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf(watchPageURLFormat, videoID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.pageClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watch page request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse watch page: %w", err)
	}

	var rawPlayer string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		script := s.Text()
		idx := strings.Index(script, playerResponseVar)
		if idx < 0 {
			return true
		}
		if extracted, ok := extractJSONObject(script[idx:]); ok {
			rawPlayer = extracted
			return false
		}
		return true
	})
	if rawPlayer == "" {
		return nil, fmt.Errorf("player config not found in watch page")
	}

	var player playerResponse
	if err := json.Unmarshal([]byte(rawPlayer), &player); err != nil {
		return nil, fmt.Errorf("failed to decode player config: %w", err)
	}
	return &player, nil
}

// extractJSONObject returns the balanced {...} object starting at the first
// open brace in s, respecting string literals.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// pickCaptionTrack applies the language preference order: a manually
// published track in a preferred language wins, then an auto-generated track
// in a preferred language, then any auto-generated track.
func pickCaptionTrack(tracks []captionTrack, languages []string) *captionTrack {
	for _, lang := range languages {
		for i := range tracks {
			if tracks[i].LanguageCode == lang && tracks[i].Kind != "asr" {
				return &tracks[i]
			}
		}
	}
	for _, lang := range languages {
		for i := range tracks {
			if tracks[i].LanguageCode == lang {
				return &tracks[i]
			}
		}
	}
	for i := range tracks {
		if tracks[i].Kind == "asr" {
			return &tracks[i]
		}
	}
	return nil
}

// fetchTrack downloads a caption track in json3 format with retries and
// joins its segments into plain text.
func (f *CaptionFetcher) fetchTrack(ctx context.Context, baseURL string) (string, error) {
	trackURL := baseURL
	if !strings.Contains(trackURL, "fmt=") {
		trackURL += "&fmt=json3"
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", browserUserAgent)

		resp, err := f.trackClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("caption track returned HTTP %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(500*time.Millisecond),
			backoff.WithMaxInterval(5*time.Second),
		), constants.CaptionConfig.MaxFetchRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("caption track fetch failed: %w", err)
	}

	var transcript json3Transcript
	if err := json.Unmarshal(body, &transcript); err != nil {
		return "", fmt.Errorf("failed to decode caption track: %w", err)
	}

	var sb strings.Builder
	for _, event := range transcript.Events {
		for _, seg := range event.Segs {
			sb.WriteString(seg.UTF8)
		}
		sb.WriteByte(' ')
	}
	return sb.String(), nil
}

package transcript

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/domain"
	apperrors "github.com/kapu/lessonlens/pkg/errors"
)

type fakeStrategy struct {
	source domain.SourceStrategy
	text   string
	err    error
	calls  int
}

func (f *fakeStrategy) Source() domain.SourceStrategy { return f.source }

func (f *fakeStrategy) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestAcquireStopsAtFirstSuccess(t *testing.T) {
	captions := &fakeStrategy{source: domain.SourceCaptionFetch, text: "caption text here"}
	stt := &fakeStrategy{source: domain.SourceLocalSpeechToText, text: "should not run"}
	svc := NewService([]Strategy{captions, stt}, nil, zap.NewNop())

	result, err := svc.Acquire(context.Background(), "abc12345678")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if result.SourceStrategy != domain.SourceCaptionFetch {
		t.Errorf("SourceStrategy = %v, want CaptionFetch", result.SourceStrategy)
	}
	if result.Text != "caption text here" {
		t.Errorf("Text = %q", result.Text)
	}
	if result.CharLength != len([]rune(result.Text)) {
		t.Errorf("CharLength = %d", result.CharLength)
	}
	if stt.calls != 0 {
		t.Error("fallback strategy must not run after a success")
	}
}

func TestAcquireFallsThroughToSpeechToText(t *testing.T) {
	captions := &fakeStrategy{source: domain.SourceCaptionFetch, err: ErrNoCaptions}
	stt := &fakeStrategy{source: domain.SourceLocalSpeechToText, text: "spoken words"}
	svc := NewService([]Strategy{captions, stt}, nil, zap.NewNop())

	result, err := svc.Acquire(context.Background(), "abc12345678")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if result.SourceStrategy != domain.SourceLocalSpeechToText {
		t.Errorf("SourceStrategy = %v, want LocalSpeechToText", result.SourceStrategy)
	}
	if captions.calls != 1 || stt.calls != 1 {
		t.Errorf("call counts: captions=%d stt=%d", captions.calls, stt.calls)
	}
}

func TestAcquireFailsWhenAllStrategiesFail(t *testing.T) {
	captions := &fakeStrategy{source: domain.SourceCaptionFetch, err: ErrNoCaptions}
	stt := &fakeStrategy{source: domain.SourceLocalSpeechToText, err: errors.New("whisper exploded")}
	svc := NewService([]Strategy{captions, stt}, nil, zap.NewNop())

	_, err := svc.Acquire(context.Background(), "abc12345678")
	if err == nil {
		t.Fatal("Acquire should fail when every strategy fails")
	}
	if !apperrors.IsKind(err, apperrors.KindTranscriptUnavailable) {
		t.Errorf("kind = %v, want TranscriptUnavailable", apperrors.KindOf(err))
	}
	if apperrors.StatusOf(err) != 422 {
		t.Errorf("status = %d, want 422", apperrors.StatusOf(err))
	}
}

func TestAcquireTreatsEmptyTextAsFailure(t *testing.T) {
	empty := &fakeStrategy{source: domain.SourceCaptionFetch, text: "   \n  "}
	svc := NewService([]Strategy{empty}, nil, zap.NewNop())

	_, err := svc.Acquire(context.Background(), "abc12345678")
	if err == nil {
		t.Fatal("whitespace-only transcript must not count as success")
	}
	if !apperrors.IsKind(err, apperrors.KindTranscriptUnavailable) {
		t.Errorf("kind = %v, want TranscriptUnavailable", apperrors.KindOf(err))
	}
}

func TestAcquireCollapsesWhitespace(t *testing.T) {
	strategy := &fakeStrategy{source: domain.SourceCaptionFetch, text: "hello\n\nworld  again\t"}
	svc := NewService([]Strategy{strategy}, nil, zap.NewNop())

	result, err := svc.Acquire(context.Background(), "abc12345678")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if result.Text != "hello world again" {
		t.Errorf("Text = %q", result.Text)
	}
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	strategy := &fakeStrategy{source: domain.SourceCaptionFetch, text: "never reached"}
	svc := NewService([]Strategy{strategy}, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Acquire(ctx, "abc12345678")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if strategy.calls != 0 {
		t.Error("no strategy should run on a dead context")
	}
}

func TestPickCaptionTrackPreferenceOrder(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "u1", LanguageCode: "ko"},
		{BaseURL: "u2", LanguageCode: "en", Kind: "asr"},
		{BaseURL: "u3", LanguageCode: "en"},
	}
	if got := pickCaptionTrack(tracks, []string{"en", "en-US"}); got == nil || got.BaseURL != "u3" {
		t.Errorf("manual en track should win, got %+v", got)
	}

	asrOnly := []captionTrack{
		{BaseURL: "u1", LanguageCode: "ja"},
		{BaseURL: "u2", LanguageCode: "de", Kind: "asr"},
	}
	if got := pickCaptionTrack(asrOnly, []string{"en"}); got == nil || got.BaseURL != "u2" {
		t.Errorf("any asr track should be the last resort, got %+v", got)
	}

	if got := pickCaptionTrack([]captionTrack{{BaseURL: "u1", LanguageCode: "fr"}}, []string{"en"}); got != nil {
		t.Errorf("no preferred or asr track should yield nil, got %+v", got)
	}
}

func TestExtractJSONObjectBalancesBraces(t *testing.T) {
	script := `var ytInitialPlayerResponse = {"a": {"b": "val}ue"}, "c": [1]};var next = 2;`
	got, ok := extractJSONObject(script)
	if !ok {
		t.Fatal("object not found")
	}
	want := `{"a": {"b": "val}ue"}, "c": [1]}`
	if got != want {
		t.Errorf("extracted %q, want %q", got, want)
	}

	if _, ok := extractJSONObject("no braces at all"); ok {
		t.Error("extraction should fail without an object")
	}
	if _, ok := extractJSONObject(`{"never": "closed`); ok {
		t.Error("unbalanced object must not extract")
	}
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/domain"
	"github.com/kapu/lessonlens/internal/service/ai"
	"github.com/kapu/lessonlens/internal/service/dedup"
	apperrors "github.com/kapu/lessonlens/pkg/errors"
)

type fakeTranscripts struct {
	result *domain.TranscriptResult
	err    error
	calls  int
}

func (f *fakeTranscripts) Acquire(_ context.Context, _ string) (*domain.TranscriptResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeEngine struct {
	result          *domain.AnalysisResult
	meta            *ai.GenerateMetadata
	err             error
	fullPrompts     []string
	degradedPrompts []string
}

func (f *fakeEngine) Analyze(_ context.Context, fullPrompt, degradedPrompt string) (*domain.AnalysisResult, *ai.GenerateMetadata, error) {
	f.fullPrompts = append(f.fullPrompts, fullPrompt)
	f.degradedPrompts = append(f.degradedPrompts, degradedPrompt)
	return f.result, f.meta, f.err
}

type fakeMetadata struct {
	meta *domain.VideoMetadata
}

func (f *fakeMetadata) Resolve(_ context.Context, _ string) *domain.VideoMetadata {
	return f.meta
}

func validResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		MatchScore:      80,
		Recommendation:  domain.RecommendationNormal,
		KeyPoints:       []string{"k"},
		Insights:        []string{"i"},
		Reasoning:       "r",
		Timestamps:      []domain.Timestamp{},
		DifficultyLevel: domain.DifficultyIntermediate,
		GeneratedAt:     time.Now(),
	}
}

const (
	testURL       = "https://www.youtube.com/watch?v=abc12345678"
	testIntention = "I want to learn how Go channels work in practice"
)

func newTestAnalyzer(transcripts *fakeTranscripts, engine *fakeEngine, meta MetadataResolver, store dedup.Store) *Analyzer {
	if store == nil {
		store = dedup.NewMemoryStore()
	}
	return NewAnalyzer(AnalyzerDeps{
		Transcripts: transcripts,
		Metadata:    meta,
		Engine:      engine,
		Inflight:    store,
	}, zap.NewNop())
}

func TestAnalyzeHappyPath(t *testing.T) {
	transcripts := &fakeTranscripts{
		result: domain.NewTranscriptResult("go channels explained. buffered and unbuffered.", domain.SourceCaptionFetch),
	}
	engine := &fakeEngine{
		result: validResult(),
		meta:   &ai.GenerateMetadata{Provider: "gemini", Model: "gemini-2.5-flash"},
	}
	meta := &fakeMetadata{meta: &domain.VideoMetadata{
		ID: "abc12345678", Title: "Go Concurrency Talk", ChannelName: "GopherCon",
	}}
	store := dedup.NewMemoryStore()
	analyzer := newTestAnalyzer(transcripts, engine, meta, store)

	response, err := analyzer.Analyze(context.Background(), testURL, testIntention)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if response.MatchScore != 80 {
		t.Errorf("MatchScore = %d", response.MatchScore)
	}
	if response.VideoMetadata.Title != "Go Concurrency Talk" {
		t.Errorf("metadata title = %q", response.VideoMetadata.Title)
	}
	if response.ProcessingTimeMs < 0 {
		t.Errorf("ProcessingTimeMs = %d", response.ProcessingTimeMs)
	}
	if transcripts.calls != 1 {
		t.Errorf("transcript calls = %d", transcripts.calls)
	}
	if len(engine.fullPrompts) != 1 {
		t.Fatalf("engine calls = %d", len(engine.fullPrompts))
	}
	if !strings.Contains(engine.fullPrompts[0], testIntention) {
		t.Error("full prompt must embed the learning intention")
	}
	if !strings.Contains(engine.fullPrompts[0], "Go Concurrency Talk") {
		t.Error("full prompt must embed the video title")
	}
	if store.Len() != 0 {
		t.Errorf("deduplication key leaked, store holds %d keys", store.Len())
	}
}

func TestAnalyzeRejectsShortIntention(t *testing.T) {
	transcripts := &fakeTranscripts{}
	analyzer := newTestAnalyzer(transcripts, &fakeEngine{}, nil, nil)

	_, err := analyzer.Analyze(context.Background(), testURL, "too short")
	if !apperrors.IsKind(err, apperrors.KindLearningIntentionTooShort) {
		t.Fatalf("kind = %v, want LearningIntentionTooShort", apperrors.KindOf(err))
	}
	if transcripts.calls != 0 {
		t.Error("no transcript work should happen on invalid input")
	}
}

func TestAnalyzeRejectsWhitespacePaddedShortIntention(t *testing.T) {
	analyzer := newTestAnalyzer(&fakeTranscripts{}, &fakeEngine{}, nil, nil)

	_, err := analyzer.Analyze(context.Background(), testURL, "   short    \n\t ")
	if !apperrors.IsKind(err, apperrors.KindLearningIntentionTooShort) {
		t.Fatalf("kind = %v, want LearningIntentionTooShort", apperrors.KindOf(err))
	}
}

func TestAnalyzeRejectsInvalidURL(t *testing.T) {
	analyzer := newTestAnalyzer(&fakeTranscripts{}, &fakeEngine{}, nil, nil)

	_, err := analyzer.Analyze(context.Background(), "https://example.com/not-a-video", testIntention)
	if !apperrors.IsKind(err, apperrors.KindInvalidVideoReference) {
		t.Fatalf("kind = %v, want InvalidVideoReference", apperrors.KindOf(err))
	}
}

func TestAnalyzeRejectsDuplicateRequest(t *testing.T) {
	store := dedup.NewMemoryStore()
	key := dedup.Key(testURL, testIntention)
	if ok, _ := store.Acquire(context.Background(), key); !ok {
		t.Fatal("test setup: could not pre-acquire key")
	}

	analyzer := newTestAnalyzer(&fakeTranscripts{}, &fakeEngine{}, nil, store)
	_, err := analyzer.Analyze(context.Background(), testURL, testIntention)
	if !apperrors.IsKind(err, apperrors.KindAnalysisInProgress) {
		t.Fatalf("kind = %v, want AnalysisInProgress", apperrors.KindOf(err))
	}
	if apperrors.StatusOf(err) != 409 {
		t.Errorf("status = %d, want 409", apperrors.StatusOf(err))
	}
}

func TestAnalyzePropagatesTranscriptFailure(t *testing.T) {
	transcripts := &fakeTranscripts{
		err: apperrors.NewTranscriptUnavailable("no transcript could be acquired for this video"),
	}
	engine := &fakeEngine{}
	store := dedup.NewMemoryStore()
	analyzer := newTestAnalyzer(transcripts, engine, nil, store)

	_, err := analyzer.Analyze(context.Background(), testURL, testIntention)
	if !apperrors.IsKind(err, apperrors.KindTranscriptUnavailable) {
		t.Fatalf("kind = %v, want TranscriptUnavailable", apperrors.KindOf(err))
	}
	if len(engine.fullPrompts) != 0 {
		t.Error("engine must not run without a transcript")
	}
	if store.Len() != 0 {
		t.Error("deduplication key must be released after failure")
	}
}

type downStore struct {
	releases int
}

func (s *downStore) Acquire(context.Context, string) (bool, error) {
	return false, errors.New("store unreachable")
}

func (s *downStore) Release(context.Context, string) error {
	s.releases++
	return nil
}

func TestAnalyzeAdmitsOnStoreErrorWithoutReleasing(t *testing.T) {
	// A request admitted because the store errored holds no key. Releasing
	// anyway could tear down another request's gate once the store recovers.
	transcripts := &fakeTranscripts{
		result: domain.NewTranscriptResult("text", domain.SourceCaptionFetch),
	}
	store := &downStore{}
	analyzer := newTestAnalyzer(transcripts, &fakeEngine{result: validResult()}, nil, store)

	response, err := analyzer.Analyze(context.Background(), testURL, testIntention)
	if err != nil {
		t.Fatalf("Analyze must admit the request on a store error: %v", err)
	}
	if response.MatchScore != 80 {
		t.Errorf("MatchScore = %d", response.MatchScore)
	}
	if store.releases != 0 {
		t.Errorf("Release called %d times for a key this request never held", store.releases)
	}
}

func TestAnalyzeUsesPlaceholderMetadataWithoutResolver(t *testing.T) {
	transcripts := &fakeTranscripts{
		result: domain.NewTranscriptResult("some transcript text", domain.SourceLocalSpeechToText),
	}
	analyzer := newTestAnalyzer(transcripts, &fakeEngine{result: validResult()}, nil, nil)

	response, err := analyzer.Analyze(context.Background(), testURL, testIntention)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if response.VideoMetadata.Title != domain.PlaceholderTitle {
		t.Errorf("title = %q, want placeholder", response.VideoMetadata.Title)
	}
	if response.VideoMetadata.ID != "abc12345678" {
		t.Errorf("metadata ID = %q", response.VideoMetadata.ID)
	}
}

func TestAnalyzeReleasesKeyAfterEngineError(t *testing.T) {
	transcripts := &fakeTranscripts{
		result: domain.NewTranscriptResult("text", domain.SourceCaptionFetch),
	}
	engine := &fakeEngine{err: apperrors.NewModelUnavailable("both providers failed")}
	store := dedup.NewMemoryStore()
	analyzer := newTestAnalyzer(transcripts, engine, nil, store)

	_, err := analyzer.Analyze(context.Background(), testURL, testIntention)
	if !apperrors.IsKind(err, apperrors.KindModelUnavailable) {
		t.Fatalf("kind = %v, want ModelUnavailable", apperrors.KindOf(err))
	}
	if store.Len() != 0 {
		t.Error("deduplication key must be released after engine failure")
	}

	// A retry after the failure is admitted.
	if _, err := analyzer.Analyze(context.Background(), testURL, testIntention); apperrors.IsKind(err, apperrors.KindAnalysisInProgress) {
		t.Error("retry after release must not be treated as duplicate")
	}
}

func TestAnalyzeTruncatesOverlongIntention(t *testing.T) {
	transcripts := &fakeTranscripts{
		result: domain.NewTranscriptResult("text", domain.SourceCaptionFetch),
	}
	engine := &fakeEngine{result: validResult()}
	analyzer := newTestAnalyzer(transcripts, engine, nil, nil)

	long := strings.Repeat("learn go deeply ", 200) // well past the cap
	if _, err := analyzer.Analyze(context.Background(), testURL, long); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(engine.fullPrompts) != 1 {
		t.Fatal("engine not called")
	}
	if strings.Contains(engine.fullPrompts[0], long) {
		t.Error("over-length intention must be truncated before prompting")
	}
}

func TestAnalyzeErrorPropagatesGenericEngineFailure(t *testing.T) {
	transcripts := &fakeTranscripts{
		result: domain.NewTranscriptResult("text", domain.SourceCaptionFetch),
	}
	engine := &fakeEngine{err: errors.New("boom")}
	analyzer := newTestAnalyzer(transcripts, engine, nil, nil)

	_, err := analyzer.Analyze(context.Background(), testURL, testIntention)
	if err == nil {
		t.Fatal("engine error must propagate")
	}
	if apperrors.StatusOf(err) != 500 {
		t.Errorf("unclassified error status = %d, want 500", apperrors.StatusOf(err))
	}
}

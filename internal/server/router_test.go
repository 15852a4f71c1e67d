package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/domain"
	"github.com/kapu/lessonlens/internal/service"
	"github.com/kapu/lessonlens/internal/service/ai"
	"github.com/kapu/lessonlens/internal/service/dedup"
)

type stubTranscripts struct {
	result *domain.TranscriptResult
	err    error
}

func (s *stubTranscripts) Acquire(_ context.Context, _ string) (*domain.TranscriptResult, error) {
	return s.result, s.err
}

type stubEngine struct {
	result *domain.AnalysisResult
	err    error
}

func (s *stubEngine) Analyze(_ context.Context, _, _ string) (*domain.AnalysisResult, *ai.GenerateMetadata, error) {
	return s.result, &ai.GenerateMetadata{Provider: "gemini"}, s.err
}

func newTestHandler(t *testing.T, engine service.AnalysisEngine) http.Handler {
	t.Helper()
	analyzer := service.NewAnalyzer(service.AnalyzerDeps{
		Transcripts: &stubTranscripts{
			result: domain.NewTranscriptResult("transcript text", domain.SourceCaptionFetch),
		},
		Engine:   engine,
		Inflight: dedup.NewMemoryStore(),
	}, zap.NewNop())
	return NewRouter(analyzer, nil, zap.NewNop())
}

func postAnalyze(handler http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t, &stubEngine{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAnalyzeEndpointReturnsResult(t *testing.T) {
	engine := &stubEngine{result: &domain.AnalysisResult{
		MatchScore:      77,
		Recommendation:  domain.RecommendationNormal,
		KeyPoints:       []string{"k"},
		Insights:        []string{"i"},
		Reasoning:       "r",
		Timestamps:      []domain.Timestamp{},
		DifficultyLevel: domain.DifficultyIntermediate,
		GeneratedAt:     time.Now(),
	}}
	handler := newTestHandler(t, engine)

	rec := postAnalyze(handler, `{
		"videoUrl": "https://www.youtube.com/watch?v=abc12345678",
		"learningIntention": "I want to learn how Go channels work"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id header")
	}

	var response struct {
		MatchScore    int                   `json:"matchScore"`
		VideoMetadata *domain.VideoMetadata `json:"videoMetadata"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("response not JSON: %v", err)
	}
	if response.MatchScore != 77 {
		t.Errorf("matchScore = %d", response.MatchScore)
	}
	if response.VideoMetadata == nil || response.VideoMetadata.Title != domain.PlaceholderTitle {
		t.Errorf("videoMetadata = %+v", response.VideoMetadata)
	}
}

func TestAnalyzeEndpointMapsValidationErrors(t *testing.T) {
	handler := newTestHandler(t, &stubEngine{})

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantKind   string
	}{
		{
			"invalid url",
			`{"videoUrl": "https://example.com/nope", "learningIntention": "a long enough intention"}`,
			400, "InvalidVideoReference",
		},
		{
			"short intention",
			`{"videoUrl": "https://youtu.be/abc12345678", "learningIntention": "short"}`,
			400, "LearningIntentionTooShort",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postAnalyze(handler, tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var payload struct {
				Error struct {
					Kind    string `json:"kind"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("error body not JSON: %v", err)
			}
			if payload.Error.Kind != tc.wantKind {
				t.Errorf("kind = %q, want %q", payload.Error.Kind, tc.wantKind)
			}
			if payload.Error.Message == "" {
				t.Error("error message must not be empty")
			}
		})
	}
}

func TestAnalyzeEndpointRejectsMalformedBody(t *testing.T) {
	handler := newTestHandler(t, &stubEngine{})
	rec := postAnalyze(handler, `{"videoUrl": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

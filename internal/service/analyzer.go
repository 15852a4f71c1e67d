package service

import (
	"context"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/constants"
	"github.com/kapu/lessonlens/internal/domain"
	"github.com/kapu/lessonlens/internal/prompt"
	"github.com/kapu/lessonlens/internal/service/ai"
	"github.com/kapu/lessonlens/internal/service/dedup"
	"github.com/kapu/lessonlens/internal/service/history"
	apperrors "github.com/kapu/lessonlens/pkg/errors"
)

// TranscriptAcquirer yields a transcript for a video.
type TranscriptAcquirer interface {
	Acquire(ctx context.Context, videoID string) (*domain.TranscriptResult, error)
}

// MetadataResolver resolves best-effort video metadata.
type MetadataResolver interface {
	Resolve(ctx context.Context, videoID string) *domain.VideoMetadata
}

// AnalysisEngine generates and normalizes one analysis.
type AnalysisEngine interface {
	Analyze(ctx context.Context, fullPrompt, degradedPrompt string) (*domain.AnalysisResult, *ai.GenerateMetadata, error)
}

// Analyzer orchestrates one analysis end to end: validate the inputs,
// deduplicate, gather transcript and metadata in parallel, build prompts,
// run the engine and assemble the response envelope.
type Analyzer struct {
	transcripts      TranscriptAcquirer
	metadata         MetadataResolver
	engine           AnalysisEngine
	inflight         dedup.Store
	history          *history.Store
	transcriptBudget int
	logger           *zap.Logger
}

// AnalyzerDeps wires the analyzer's collaborators. Metadata and History may
// be nil; both are optional enrichment.
type AnalyzerDeps struct {
	Transcripts      TranscriptAcquirer
	Metadata         MetadataResolver
	Engine           AnalysisEngine
	Inflight         dedup.Store
	History          *history.Store
	TranscriptBudget int
}

func NewAnalyzer(deps AnalyzerDeps, logger *zap.Logger) *Analyzer {
	budget := deps.TranscriptBudget
	if budget <= 0 {
		budget = constants.PromptLimits.TranscriptBudget
	}
	return &Analyzer{
		transcripts:      deps.Transcripts,
		metadata:         deps.Metadata,
		engine:           deps.Engine,
		inflight:         deps.Inflight,
		history:          deps.History,
		transcriptBudget: budget,
		logger:           logger,
	}
}

// Analyze runs the full pipeline for one URL and learning intention.
func (a *Analyzer) Analyze(ctx context.Context, rawURL, intention string) (*domain.AnalysisResponse, error) {
	started := time.Now()

	intention = strings.TrimSpace(intention)
	length := len([]rune(intention))
	if length < constants.InputLimits.IntentionMinLength {
		return nil, apperrors.NewIntentionTooShort(length, constants.InputLimits.IntentionMinLength)
	}
	if length > constants.InputLimits.IntentionMaxLength {
		a.logger.Debug("Truncating over-length intention", zap.Int("length", length))
		intention = string([]rune(intention)[:constants.InputLimits.IntentionMaxLength])
	}

	video, err := domain.ParseVideoURL(rawURL)
	if err != nil {
		return nil, err
	}

	key := dedup.Key(video.RawURL, intention)
	acquired, err := a.inflight.Acquire(ctx, key)
	if err != nil {
		a.logger.Warn("Deduplication store error, admitting request", zap.Error(err))
	} else if !acquired {
		a.logger.Info("Duplicate analysis rejected",
			zap.String("video_id", video.ID))
		return nil, apperrors.NewAnalysisInProgress()
	}
	if err == nil && acquired {
		// Release only a key this request actually holds. A request admitted
		// on a store error must not tear down another request's gate once
		// the store recovers.
		defer func() {
			// The request context may already be dead here; release on a
			// fresh one so the key cannot leak.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.inflight.Release(releaseCtx, key); err != nil {
				a.logger.Warn("Failed to release deduplication key", zap.Error(err))
			}
		}()
	}

	a.logger.Info("Analysis started",
		zap.String("video_id", video.ID),
		zap.Int("intention_length", length))

	var (
		meta          *domain.VideoMetadata
		transcriptRes *domain.TranscriptResult
		transcriptErr error
	)
	p := pool.New()
	p.Go(func() {
		meta = a.resolveMetadata(ctx, video.ID)
	})
	p.Go(func() {
		transcriptRes, transcriptErr = a.transcripts.Acquire(ctx, video.ID)
	})
	p.Wait()

	if transcriptErr != nil {
		return nil, transcriptErr
	}

	fullPrompt := prompt.BuildAnalysisPrompt(prompt.AnalysisPromptVars{
		Intention:         intention,
		VideoTitle:        meta.Title,
		ChannelName:       meta.ChannelName,
		TranscriptExcerpt: prompt.TruncateTranscript(transcriptRes.Text, a.transcriptBudget),
	})
	degradedPrompt := prompt.BuildDegradedPrompt(prompt.DegradedPromptVars{
		Intention:         intention,
		TranscriptExcerpt: prompt.TruncateTranscript(transcriptRes.Text, constants.PromptLimits.DegradedBudget),
	})

	result, genMeta, err := a.engine.Analyze(ctx, fullPrompt, degradedPrompt)
	if err != nil {
		return nil, err
	}

	response := &domain.AnalysisResponse{
		AnalysisResult:   result,
		VideoMetadata:    meta,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	}

	if a.history != nil {
		go a.recordHistory(video.ID, intention, response)
	}

	fields := []zap.Field{
		zap.String("video_id", video.ID),
		zap.Int("match_score", result.MatchScore),
		zap.String("recommendation", string(result.Recommendation)),
		zap.String("transcript_source", string(transcriptRes.SourceStrategy)),
		zap.Int64("processing_ms", response.ProcessingTimeMs),
	}
	if genMeta != nil {
		fields = append(fields,
			zap.String("provider", genMeta.Provider),
			zap.Bool("used_fallback", genMeta.UsedFallback))
	}
	a.logger.Info("Analysis completed", fields...)

	return response, nil
}

// resolveMetadata never fails; without a resolver or on any lookup error the
// placeholder record is used.
func (a *Analyzer) resolveMetadata(ctx context.Context, videoID string) *domain.VideoMetadata {
	if a.metadata == nil {
		return domain.PlaceholderMetadata(videoID)
	}
	return a.metadata.Resolve(ctx, videoID)
}

// recordHistory persists the result off the request path.
func (a *Analyzer) recordHistory(videoID, intention string, response *domain.AnalysisResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.history.Record(ctx, videoID, intention, response)
}

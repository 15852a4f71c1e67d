// Package transcript acquires the spoken text of a video through an ordered
// ladder of strategies: caption track fetch first, local speech-to-text as
// the fallback.
package transcript

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/constants"
	"github.com/kapu/lessonlens/internal/domain"
	"github.com/kapu/lessonlens/internal/service/cache"
	apperrors "github.com/kapu/lessonlens/pkg/errors"
)

var (
	ErrVideoUnavailable = errors.New("video is unavailable or private")
	ErrNoCaptions       = errors.New("video has no caption tracks")
	ErrTranscriptEmpty  = errors.New("transcript contained no text")
)

// Strategy is a single transcript acquisition method. Fetch returns the full
// transcript text or an error; returning empty text is treated as a failure
// by the caller.
type Strategy interface {
	Source() domain.SourceStrategy
	Fetch(ctx context.Context, videoID string) (string, error)
}

// Service runs the strategy ladder in order and stops at the first success.
// Results are cached in Redis when a cache is available so repeated requests
// for the same video do not refetch.
type Service struct {
	strategies []Strategy
	cache      *cache.Service
	logger     *zap.Logger
}

func NewService(strategies []Strategy, cacheService *cache.Service, logger *zap.Logger) *Service {
	return &Service{
		strategies: strategies,
		cache:      cacheService,
		logger:     logger,
	}
}

func transcriptCacheKey(videoID string) string {
	return "lessonlens:transcript:" + videoID
}

// Acquire returns the transcript for videoID. When every strategy fails the
// returned error carries the TranscriptUnavailable kind with the last
// strategy failure as its cause.
func (s *Service) Acquire(ctx context.Context, videoID string) (*domain.TranscriptResult, error) {
	if s.cache != nil {
		var cached domain.TranscriptResult
		found, err := s.cache.Get(ctx, transcriptCacheKey(videoID), &cached)
		if err != nil {
			s.logger.Warn("Transcript cache lookup failed", zap.Error(err))
		} else if found && cached.Text != "" {
			s.logger.Debug("Transcript cache hit",
				zap.String("video_id", videoID),
				zap.String("source", string(cached.SourceStrategy)))
			return &cached, nil
		}
	}

	var lastErr error
	for _, strategy := range s.strategies {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		text, err := strategy.Fetch(ctx, videoID)
		if err != nil {
			s.logger.Warn("Transcript strategy failed",
				zap.String("video_id", videoID),
				zap.String("strategy", string(strategy.Source())),
				zap.Error(err))
			lastErr = err
			continue
		}

		text = collapseWhitespace(text)
		if text == "" {
			s.logger.Warn("Transcript strategy returned empty text",
				zap.String("video_id", videoID),
				zap.String("strategy", string(strategy.Source())))
			lastErr = ErrTranscriptEmpty
			continue
		}

		result := domain.NewTranscriptResult(text, strategy.Source())
		s.logger.Info("Transcript acquired",
			zap.String("video_id", videoID),
			zap.String("strategy", string(strategy.Source())),
			zap.Int("char_length", result.CharLength))

		if s.cache != nil {
			if err := s.cache.Set(ctx, transcriptCacheKey(videoID), result, constants.CacheTTL.Transcript); err != nil {
				s.logger.Warn("Transcript cache write failed", zap.Error(err))
			}
		}
		return result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no transcript strategies configured")
	}
	return nil, apperrors.NewTranscriptUnavailable(
		"no transcript could be acquired for this video").WithCause(lastErr)
}

// collapseWhitespace flattens runs of whitespace to single spaces so caption
// line breaks and STT segment gaps do not bloat the prompt.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

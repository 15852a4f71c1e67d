package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/constants"
	"github.com/kapu/lessonlens/internal/domain"
	"github.com/kapu/lessonlens/internal/service/ai"
	"github.com/kapu/lessonlens/internal/service/normalizer"
	apperrors "github.com/kapu/lessonlens/pkg/errors"
)

// Engine races the model call against the analysis deadline and normalizes
// whatever text comes back. The degraded prompt is handed to the normalizer
// as its single re-generation attempt.
type Engine struct {
	models     *ai.ModelManager
	normalizer *normalizer.Normalizer
	timeout    time.Duration
	logger     *zap.Logger
}

func NewEngine(models *ai.ModelManager, norm *normalizer.Normalizer, timeout time.Duration, logger *zap.Logger) *Engine {
	if timeout <= 0 {
		timeout = constants.AnalysisTimeouts.Full
	}
	return &Engine{
		models:     models,
		normalizer: norm,
		timeout:    timeout,
		logger:     logger,
	}
}

// Analyze generates and normalizes one analysis. The returned result is
// always schema-valid when err is nil.
func (e *Engine) Analyze(ctx context.Context, fullPrompt, degradedPrompt string) (*domain.AnalysisResult, *ai.GenerateMetadata, error) {
	genCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, meta, err := e.models.GenerateText(genCtx, fullPrompt, ai.PresetPrecise, &ai.GenerateOptions{JSONMode: true})
	if err != nil {
		return nil, nil, e.mapGenerateError(err)
	}

	degrade := func(ctx context.Context) (string, error) {
		degCtx, cancel := context.WithTimeout(ctx, constants.AnalysisTimeouts.Degraded)
		defer cancel()
		e.logger.Info("Re-running analysis with degraded prompt")
		text, _, err := e.models.GenerateText(degCtx, degradedPrompt, ai.PresetPrecise, &ai.GenerateOptions{JSONMode: true})
		return text, err
	}

	return e.normalizer.Normalize(genCtx, raw, degrade), meta, nil
}

func (e *Engine) mapGenerateError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewAnalysisTimeout(
			"analysis did not complete before the deadline").WithCause(err)
	case errors.Is(err, context.Canceled):
		return err
	case apperrors.IsKind(err, apperrors.KindModelUnavailable):
		return err
	default:
		return apperrors.NewModelUnavailable("analysis model request failed").WithCause(err)
	}
}

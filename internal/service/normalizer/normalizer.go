// Package normalizer turns arbitrary model output into a schema-valid
// AnalysisResult. It never returns an error: every input, including empty
// strings and pure prose, yields a fully populated result through a ladder
// of progressively more forgiving repair stages.
package normalizer

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/lessonlens/internal/domain"
)

// DegradeFunc re-runs the analysis with a reduced prompt. It is invoked at
// most once per Normalize call, only after every repair stage has failed on
// the original response.
type DegradeFunc func(ctx context.Context) (string, error)

type Normalizer struct {
	logger *zap.Logger
	nowFn  func() time.Time
}

func New(logger *zap.Logger) *Normalizer {
	return &Normalizer{
		logger: logger,
		nowFn:  time.Now,
	}
}

// Normalize converts raw model output into an AnalysisResult. Structured
// parsing is attempted first, then one degraded re-generation via degrade
// (when non-nil), and finally a heuristic result synthesized from the raw
// text. A nil result is never returned.
func (n *Normalizer) Normalize(ctx context.Context, raw string, degrade DegradeFunc) *domain.AnalysisResult {
	if result := n.tryStructured(raw); result != nil {
		return result
	}

	n.logger.Warn("Model response failed structured parsing",
		zap.Int("response_length", len(raw)))

	if degrade != nil && ctx.Err() == nil {
		smaller, err := degrade(ctx)
		if err != nil {
			n.logger.Warn("Degraded re-generation failed", zap.Error(err))
		} else if result := n.tryStructured(smaller); result != nil {
			n.logger.Info("Degraded re-generation parsed successfully")
			return result
		}
	}

	n.logger.Warn("Falling back to heuristic result extraction")
	return n.heuristicResult(raw)
}

// tryStructured runs the repair ladder on one response: strip reasoning
// markup, locate the JSON span, repair truncation, decode. A second decode
// is attempted with plain closing-delimiter completion when the targeted
// repair discarded too much. Returns nil when no stage produces a decodable
// object.
func (n *Normalizer) tryStructured(raw string) *domain.AnalysisResult {
	span, ok := extractStructuredSpan(stripReasoningBlocks(raw))
	if !ok {
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(repairTruncation(span)), &obj); err != nil {
		if err := json.Unmarshal([]byte(forceCloseSpan(span)), &obj); err != nil {
			return nil
		}
	}
	return buildResult(obj, n.nowFn())
}

// heuristicResult is the last tier: scrape a score out of the prose and
// synthesize the rest, disclosing in the output that structured parsing
// failed.
func (n *Normalizer) heuristicResult(raw string) *domain.AnalysisResult {
	score := scoreFromText(raw)
	return &domain.AnalysisResult{
		MatchScore:     score,
		Recommendation: domain.RecommendationForScore(score),
		KeyPoints: []string{
			"The analysis response could not be fully parsed.",
			"The match score shown is an estimate extracted from the raw response.",
		},
		Insights: []string{
			"Consider reviewing the video directly to judge its relevance.",
		},
		Reasoning:       "The analysis model returned an unstructured response, so this result was reconstructed heuristically and may miss detail.",
		Timestamps:      []domain.Timestamp{},
		DifficultyLevel: domain.DifficultyIntermediate,
		GeneratedAt:     n.nowFn(),
	}
}

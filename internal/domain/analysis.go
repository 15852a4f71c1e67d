package domain

import (
	"strings"
	"time"
)

// Recommendation is the ordinal bucket expressing how well a video matches
// the learning intention.
type Recommendation string

const (
	RecommendationHighly  Recommendation = "HIGHLY_RECOMMENDED"
	RecommendationNormal  Recommendation = "RECOMMENDED"
	RecommendationPartial Recommendation = "PARTIALLY_RELEVANT"
	RecommendationNot     Recommendation = "NOT_RECOMMENDED"
)

// CoerceRecommendation maps any raw string to a valid Recommendation.
// Unknown or empty input falls back to PARTIALLY_RELEVANT, the middle-ground
// default, so the schema invariant holds for every input.
func CoerceRecommendation(raw string) Recommendation {
	switch normalizeEnumToken(raw) {
	case "HIGHLY_RECOMMENDED", "HIGHLY":
		return RecommendationHighly
	case "RECOMMENDED", "RECOMMEND":
		return RecommendationNormal
	case "PARTIALLY_RELEVANT", "PARTIAL", "PARTIALLY":
		return RecommendationPartial
	case "NOT_RECOMMENDED", "NOT_RELEVANT", "SKIP":
		return RecommendationNot
	default:
		return RecommendationPartial
	}
}

// RecommendationForScore derives a coarse recommendation from a match score,
// used by the heuristic fallback tier.
func RecommendationForScore(score int) Recommendation {
	switch {
	case score >= 70:
		return RecommendationNormal
	case score >= 40:
		return RecommendationPartial
	default:
		return RecommendationNot
	}
}

// DifficultyLevel classifies the video's assumed audience.
type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "BEGINNER"
	DifficultyIntermediate DifficultyLevel = "INTERMEDIATE"
	DifficultyAdvanced     DifficultyLevel = "ADVANCED"
)

// CoerceDifficulty maps any raw string to a valid DifficultyLevel,
// defaulting to INTERMEDIATE.
func CoerceDifficulty(raw string) DifficultyLevel {
	switch normalizeEnumToken(raw) {
	case "BEGINNER", "BASIC", "EASY":
		return DifficultyBeginner
	case "INTERMEDIATE", "MEDIUM":
		return DifficultyIntermediate
	case "ADVANCED", "EXPERT", "HARD":
		return DifficultyAdvanced
	default:
		return DifficultyIntermediate
	}
}

// TimestampRelevance grades a single segment against the intention.
type TimestampRelevance string

const (
	RelevanceHigh   TimestampRelevance = "HIGH"
	RelevanceMedium TimestampRelevance = "MEDIUM"
	RelevanceLow    TimestampRelevance = "LOW"
)

// CoerceRelevance maps any raw string to a valid TimestampRelevance,
// defaulting to MEDIUM.
func CoerceRelevance(raw string) TimestampRelevance {
	switch normalizeEnumToken(raw) {
	case "HIGH":
		return RelevanceHigh
	case "MEDIUM", "MID":
		return RelevanceMedium
	case "LOW":
		return RelevanceLow
	default:
		return RelevanceMedium
	}
}

// SkipRecommendation is per-segment viewing guidance.
type SkipRecommendation string

const (
	SkipMustWatch   SkipRecommendation = "MUST_WATCH"
	SkipRecommended SkipRecommendation = "RECOMMENDED"
	SkipOptional    SkipRecommendation = "OPTIONAL"
	SkipSkip        SkipRecommendation = "SKIP"
)

// CoerceSkipRecommendation maps any raw string to a valid SkipRecommendation,
// defaulting to OPTIONAL.
func CoerceSkipRecommendation(raw string) SkipRecommendation {
	switch normalizeEnumToken(raw) {
	case "MUST_WATCH", "MUST":
		return SkipMustWatch
	case "RECOMMENDED", "RECOMMEND", "WATCH":
		return SkipRecommended
	case "OPTIONAL":
		return SkipOptional
	case "SKIP", "SKIPPABLE":
		return SkipSkip
	default:
		return SkipOptional
	}
}

func normalizeEnumToken(raw string) string {
	token := strings.ToUpper(strings.TrimSpace(raw))
	token = strings.ReplaceAll(token, " ", "_")
	token = strings.ReplaceAll(token, "-", "_")
	return token
}

// Timestamp marks a notable segment of the video.
type Timestamp struct {
	Time               string             `json:"time"` // MM:SS
	Topic              string             `json:"topic"`
	Description        string             `json:"description"`
	Relevance          TimestampRelevance `json:"relevance"`
	SkipRecommendation SkipRecommendation `json:"skipRecommendation"`
}

// AnalysisRequest is the validated input pair for one analysis run.
type AnalysisRequest struct {
	Video     *VideoReference
	Intention string
}

// AnalysisResult is the canonical output shape. Every field is always
// populated with a valid value regardless of model-response quality; no
// partial or null-shaped result is ever returned to a caller.
type AnalysisResult struct {
	MatchScore      int             `json:"matchScore"`
	Recommendation  Recommendation  `json:"recommendation"`
	KeyPoints       []string        `json:"keyPoints"`
	Insights        []string        `json:"insights"`
	Reasoning       string          `json:"reasoning"`
	Timestamps      []Timestamp     `json:"timestamps"`
	DifficultyLevel DifficultyLevel `json:"difficultyLevel"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

// AnalysisResponse is the caller-facing envelope: the normalized result plus
// metadata and timing.
type AnalysisResponse struct {
	*AnalysisResult
	VideoMetadata    *VideoMetadata `json:"videoMetadata"`
	ProcessingTimeMs int64          `json:"processingTimeMs"`
}

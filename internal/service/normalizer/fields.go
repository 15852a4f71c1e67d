package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/lessonlens/internal/constants"
	"github.com/kapu/lessonlens/internal/domain"
	"github.com/kapu/lessonlens/internal/util"
)

// buildResult normalizes a decoded object field by field into a fully
// populated AnalysisResult. Missing or malformed fields take their domain
// defaults, never an error.
func buildResult(obj map[string]any, now time.Time) *domain.AnalysisResult {
	result := &domain.AnalysisResult{
		MatchScore:      util.Clamp(intField(obj, "matchScore", "match_score", "score"), 0, 100),
		Recommendation:  domain.CoerceRecommendation(stringField(obj, "recommendation")),
		KeyPoints:       stringListField(obj, constants.NormalizerLimits.MaxKeyPoints, "keyPoints", "key_points"),
		Insights:        stringListField(obj, constants.NormalizerLimits.MaxInsights, "insights", "learningInsights"),
		Reasoning:       strings.TrimSpace(stringField(obj, "reasoning", "rationale")),
		Timestamps:      timestampsField(obj),
		DifficultyLevel: domain.CoerceDifficulty(stringField(obj, "difficultyLevel", "difficulty_level", "difficulty")),
		GeneratedAt:     now,
	}
	if result.Reasoning == "" {
		result.Reasoning = "No reasoning was provided for this analysis."
	}
	return result
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func intField(obj map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := obj[key].(type) {
		case float64:
			return int(v)
		case string:
			trimmed := strings.TrimSuffix(strings.TrimSpace(v), "%")
			if n, err := strconv.Atoi(trimmed); err == nil {
				return n
			}
		}
	}
	return 0
}

func stringListField(obj map[string]any, limit int, keys ...string) []string {
	for _, key := range keys {
		raw, ok := obj[key].([]any)
		if !ok {
			continue
		}
		items := make([]string, 0, util.Min(len(raw), limit))
		for _, entry := range raw {
			var text string
			switch v := entry.(type) {
			case string:
				text = strings.TrimSpace(v)
			case map[string]any:
				// Some models wrap list items in objects.
				text = strings.TrimSpace(stringField(v, "text", "point", "insight", "description"))
			}
			if text == "" {
				continue
			}
			items = append(items, text)
			if len(items) >= limit {
				break
			}
		}
		return items
	}
	return []string{}
}

func timestampsField(obj map[string]any) []domain.Timestamp {
	raw, ok := obj["timestamps"].([]any)
	if !ok {
		return []domain.Timestamp{}
	}

	stamps := make([]domain.Timestamp, 0, util.Min(len(raw), constants.NormalizerLimits.MaxTimestamps))
	for _, entry := range raw {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		stamps = append(stamps, domain.Timestamp{
			Time:               normalizeClock(stringField(item, "time", "timestamp")),
			Topic:              strings.TrimSpace(stringField(item, "topic", "title")),
			Description:        strings.TrimSpace(stringField(item, "description")),
			Relevance:          domain.CoerceRelevance(stringField(item, "relevance")),
			SkipRecommendation: domain.CoerceSkipRecommendation(stringField(item, "skipRecommendation", "skip_recommendation", "skip")),
		})
		if len(stamps) >= constants.NormalizerLimits.MaxTimestamps {
			break
		}
	}
	return stamps
}

var clockPattern = regexp.MustCompile(`^(?:(\d{1,2}):)?(\d{1,3}):(\d{2})$`)

// normalizeClock reshapes a model-supplied time marker into MM:SS. Hour
// components fold into minutes; anything unparseable becomes 00:00.
func normalizeClock(raw string) string {
	match := clockPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return "00:00"
	}

	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])
	if match[1] != "" {
		hours, _ := strconv.Atoi(match[1])
		minutes += hours * 60
	}
	if seconds > 59 {
		seconds = 59
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

package domain

import "testing"

func TestCoerceRecommendationAcceptsSloppyCasing(t *testing.T) {
	cases := []struct {
		raw  string
		want Recommendation
	}{
		{"HIGHLY_RECOMMENDED", RecommendationHighly},
		{"highly_recommended", RecommendationHighly},
		{"highly recommended", RecommendationHighly},
		{"Highly-Recommended", RecommendationHighly},
		{"recommended", RecommendationNormal},
		{"partially_relevant", RecommendationPartial},
		{"not_recommended", RecommendationNot},
		{"", RecommendationPartial},
		{"banana", RecommendationPartial},
	}
	for _, tc := range cases {
		if got := CoerceRecommendation(tc.raw); got != tc.want {
			t.Errorf("CoerceRecommendation(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestCoerceDifficultyDefaultsToIntermediate(t *testing.T) {
	cases := []struct {
		raw  string
		want DifficultyLevel
	}{
		{"beginner", DifficultyBeginner},
		{"BASIC", DifficultyBeginner},
		{"intermediate", DifficultyIntermediate},
		{"advanced", DifficultyAdvanced},
		{"expert", DifficultyAdvanced},
		{"", DifficultyIntermediate},
		{"ultra-nightmare", DifficultyIntermediate},
	}
	for _, tc := range cases {
		if got := CoerceDifficulty(tc.raw); got != tc.want {
			t.Errorf("CoerceDifficulty(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestCoerceRelevanceAndSkip(t *testing.T) {
	if got := CoerceRelevance("high"); got != RelevanceHigh {
		t.Errorf("CoerceRelevance(high) = %v", got)
	}
	if got := CoerceRelevance("nonsense"); got != RelevanceMedium {
		t.Errorf("CoerceRelevance default = %v, want MEDIUM", got)
	}
	if got := CoerceSkipRecommendation("must watch"); got != SkipMustWatch {
		t.Errorf("CoerceSkipRecommendation(must watch) = %v", got)
	}
	if got := CoerceSkipRecommendation("???"); got != SkipOptional {
		t.Errorf("CoerceSkipRecommendation default = %v, want OPTIONAL", got)
	}
}

func TestRecommendationForScoreThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  Recommendation
	}{
		{100, RecommendationNormal},
		{70, RecommendationNormal},
		{69, RecommendationPartial},
		{40, RecommendationPartial},
		{39, RecommendationNot},
		{0, RecommendationNot},
	}
	for _, tc := range cases {
		if got := RecommendationForScore(tc.score); got != tc.want {
			t.Errorf("RecommendationForScore(%d) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

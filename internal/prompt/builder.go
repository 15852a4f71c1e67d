package prompt

import "fmt"

// BuildAnalysisPrompt builds the full relevance-analysis prompt. The prompt
// mandates a fixed JSON schema and instructs the model to emit only that
// structure with no surrounding prose.
func BuildAnalysisPrompt(vars AnalysisPromptVars) string {
	return fmt.Sprintf(`You are an educational content analyst. Judge how well a video serves a learner's stated goal based on its transcript.

## Learner's Goal:
"%s"

## Video:
Title: %s
Channel: %s

## Transcript:
%s

## Response Format (JSON ONLY, no surrounding text, no markdown fences):
{
  "matchScore": number 0-100 (how well the video serves the goal),
  "recommendation": "HIGHLY_RECOMMENDED|RECOMMENDED|PARTIALLY_RELEVANT|NOT_RECOMMENDED",
  "keyPoints": ["up to 6 key points the video covers that relate to the goal"],
  "insights": ["up to 6 insights a learner with this goal would take away"],
  "reasoning": "2-4 sentence explanation of the score",
  "timestamps": [
    {
      "time": "MM:SS",
      "topic": "short topic label",
      "description": "what this segment covers",
      "relevance": "HIGH|MEDIUM|LOW",
      "skipRecommendation": "MUST_WATCH|RECOMMENDED|OPTIONAL|SKIP"
    }
  ],
  "difficultyLevel": "BEGINNER|INTERMEDIATE|ADVANCED"
}

**Rules**:
- matchScore reflects ONLY relevance to the stated goal, not production quality
- At most 10 timestamps, ordered by time
- Every enum value MUST be one of the listed members, uppercase
- Output the JSON object and nothing else`,
		vars.Intention,
		vars.VideoTitle,
		vars.ChannelName,
		vars.TranscriptExcerpt,
	)
}

// BuildDegradedPrompt builds the shorter, more constrained prompt used after
// the full response could not be parsed. Only the core fields are requested.
func BuildDegradedPrompt(vars DegradedPromptVars) string {
	return fmt.Sprintf(`Judge how well this video transcript serves the learner's goal.

Goal: "%s"

Transcript excerpt:
%s

Respond with ONLY this JSON, nothing else:
{
  "matchScore": number 0-100,
  "recommendation": "HIGHLY_RECOMMENDED|RECOMMENDED|PARTIALLY_RELEVANT|NOT_RECOMMENDED",
  "keyPoints": ["up to 4 short key points"],
  "reasoning": "1-2 sentences"
}`,
		vars.Intention,
		vars.TranscriptExcerpt,
	)
}

package prompt

import (
	"strings"

	"github.com/kapu/lessonlens/internal/constants"
)

// TruncationMarker is appended whenever a transcript excerpt was cut short.
const TruncationMarker = "\n[transcript truncated]"

var sentenceTerminators = []rune{'.', '!', '?', '。', '！', '？'}

// TruncateTranscript bounds a transcript to budget characters. When the text
// is oversized it scans backward from the budget boundary for the nearest
// sentence terminator or paragraph break; a break found within the last 20%
// of the budget wins, otherwise the text is hard-cut at the boundary. This
// avoids severing mid-sentence whenever a reasonable break point exists.
func TruncateTranscript(text string, budget int) string {
	if budget <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}

	windowStart := budget - int(float64(budget)*constants.PromptLimits.BoundaryWindow)
	cut := budget

	for i := budget - 1; i >= windowStart; i-- {
		if isBreakPoint(runes, i) {
			cut = i + 1
			break
		}
	}

	return strings.TrimRight(string(runes[:cut]), " \t") + TruncationMarker
}

func isBreakPoint(runes []rune, i int) bool {
	if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
		return true
	}
	for _, t := range sentenceTerminators {
		if runes[i] == t {
			return true
		}
	}
	return false
}

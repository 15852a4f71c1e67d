package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kapu/lessonlens/internal/constants"
	"github.com/kapu/lessonlens/internal/util"
)

var (
	reasoningBlockPattern = regexp.MustCompile(`(?is)<(think|thinking|reasoning)>.*?</\s*(think|thinking|reasoning)\s*>`)
	reasoningOpenPattern  = regexp.MustCompile(`(?is)<(think|thinking|reasoning)>.*$`)
	fencedBlockPattern    = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	fencedOpenPattern     = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*)$")

	percentScorePattern  = regexp.MustCompile(`(\d{1,3})\s*%`)
	fractionScorePattern = regexp.MustCompile(`(\d{1,3})\s*/\s*100`)
)

// stripReasoningBlocks removes chain-of-thought markup some models leak into
// their output. An opening tag with no close swallows the rest of the text.
func stripReasoningBlocks(raw string) string {
	cleaned := reasoningBlockPattern.ReplaceAllString(raw, "")
	cleaned = reasoningOpenPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// extractStructuredSpan locates the most plausible JSON object inside free
// text. Fenced code blocks win over bare braces. The returned span runs from
// the first open brace to its matching close, or to the end of the text when
// the object was cut off.
func extractStructuredSpan(text string) (string, bool) {
	for _, match := range fencedBlockPattern.FindAllStringSubmatch(text, -1) {
		if span, ok := braceSpan(match[1]); ok {
			return span, true
		}
	}
	// A fence that was never closed, usually because the response truncated
	// mid-block.
	if match := fencedOpenPattern.FindStringSubmatch(text); match != nil {
		if span, ok := braceSpan(match[1]); ok {
			return span, true
		}
	}
	return braceSpan(text)
}

// braceSpan returns text from the first '{' through its matching '}' when
// balanced, or through the end of the text when not.
func braceSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return text[start:], true
}

// scoreFromText pulls a match score out of unstructured prose. An explicit
// NN/100 fraction is the rating idiom and wins over bare percentages, which
// often describe content rather than the score. Absent either, the neutral
// default applies.
func scoreFromText(text string) int {
	if match := fractionScorePattern.FindStringSubmatch(text); match != nil {
		if score, err := strconv.Atoi(match[1]); err == nil {
			return util.Clamp(score, 0, 100)
		}
	}
	if match := percentScorePattern.FindStringSubmatch(text); match != nil {
		if score, err := strconv.Atoi(match[1]); err == nil {
			return util.Clamp(score, 0, 100)
		}
	}
	return constants.NormalizerLimits.HeuristicScore
}

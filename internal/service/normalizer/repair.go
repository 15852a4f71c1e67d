package normalizer

import "strings"

// frame tracks one unclosed delimiter during a scan. For array frames,
// lastEntryEnd records the index just past the most recent fully-closed
// object entry, which is where a truncated entry list can be cut back to.
type frame struct {
	open         byte
	lastEntryEnd int
}

// scanDelimiters walks the span tracking delimiter nesting outside string
// literals. It returns the stack of unclosed frames and whether the scan
// ended inside a string literal.
func scanDelimiters(s string) (stack []frame, inString bool) {
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

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
		case '{', '[':
			stack = append(stack, frame{open: c, lastEntryEnd: -1})
		case '}', ']':
			if len(stack) == 0 {
				continue
			}
			closed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if closed.open == '{' && len(stack) > 0 && stack[len(stack)-1].open == '[' {
				stack[len(stack)-1].lastEntryEnd = i + 1
			}
		}
	}

	return stack, inString
}

// repairTruncation repairs a response that was cut off mid-structure. When a
// list of object entries is open and its last entry is incomplete, the span
// is truncated back to the last fully-closed entry and the list re-closed;
// otherwise the exact count of missing closers is appended.
func repairTruncation(s string) string {
	stack, inString := scanDelimiters(s)
	if len(stack) == 0 && !inString {
		return stripTrailingCommas(s)
	}

	// Look for an unclosed array with at least one complete object entry and
	// an incomplete entry above it on the stack.
	for idx := len(stack) - 1; idx >= 0; idx-- {
		f := stack[idx]
		if f.open != '[' || f.lastEntryEnd < 0 {
			continue
		}
		if idx == len(stack)-1 && !inString {
			// The array itself is the innermost open frame: nothing is
			// mid-entry, closing delimiters are enough.
			break
		}

		repaired := strings.TrimRight(s[:f.lastEntryEnd], " \t\n\r,")
		repaired += "]"
		for j := idx - 1; j >= 0; j-- {
			repaired += closerFor(stack[j].open)
		}
		return stripTrailingCommas(repaired)
	}

	return stripTrailingCommas(forceClose(s, stack, inString))
}

// forceCloseSpan appends whatever closing delimiters are needed to balance
// the span, without discarding any content. Used as the single extra repair
// attempt when the targeted repair still does not decode.
func forceCloseSpan(s string) string {
	stack, inString := scanDelimiters(s)
	return stripTrailingCommas(forceClose(s, stack, inString))
}

func forceClose(s string, stack []frame, inString bool) string {
	repaired := strings.TrimRight(s, " \t\n\r")
	if inString {
		repaired += `"`
	}
	repaired = strings.TrimRight(repaired, ",")
	for i := len(stack) - 1; i >= 0; i-- {
		repaired += closerFor(stack[i].open)
	}
	return repaired
}

func closerFor(open byte) string {
	if open == '{' {
		return "}"
	}
	return "]"
}

// stripTrailingCommas removes commas immediately before a closing delimiter,
// a malformation models emit constantly. It tracks string literals the same
// way scanDelimiters does, so comma sequences inside field values survive
// untouched.
func stripTrailingCommas(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			out.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		out.WriteByte(c)
	}

	return out.String()
}

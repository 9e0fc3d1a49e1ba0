// Package jsonx locates JSON payloads inside free-form model output.
//
// Completion services are asked for strict JSON but routinely wrap it in
// prose, markdown fences, or cut it off mid-stream. Extract finds the first
// well-formed array or object; callers treat a miss as an empty payload,
// never as a turn failure.
package jsonx

import (
	"encoding/json"
	"regexp"
	"strings"
)

// span is a half-open [start, end) range into the scanned text. valid
// records whether the span parses as JSON; balanced-but-malformed spans
// are kept so Strip can remove them from the recovered reply.
type span struct {
	start int
	end   int
	valid bool
}

// scanSpans walks text left to right matching open against close at depth
// zero, returning every balanced span in order. Bracket characters inside
// string literals are ignored, with \" escapes handled.
func scanSpans(text string, open, close byte) []span {
	var spans []span
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			// Quotes outside a candidate span are just prose
			if start != -1 {
				inString = true
			}
		case open:
			if start == -1 {
				start = i
			}
			depth++
		case close:
			if start == -1 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, span{
					start: start,
					end:   i + 1,
					valid: json.Valid([]byte(text[start : i+1])),
				})
				start = -1
			}
		}
	}

	return spans
}

// firstValid returns the first span that parses as JSON
func firstValid(spans []span) (span, bool) {
	for _, s := range spans {
		if s.valid {
			return s, true
		}
	}
	return span{}, false
}

// Patterns used as a last resort when the bracket scan finds nothing.
// Each match is still validated with a parse attempt before being accepted.
var fallbackPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`),
	regexp.MustCompile(`(?s)\[.*?\]`),
	regexp.MustCompile(`(?s)\{.*?\}`),
}

// Extract returns the first well-formed JSON array or object embedded in
// text. Arrays take priority over objects. The second return value is false
// when no valid JSON is found.
func Extract(text string) (string, bool) {
	text = strings.TrimSpace(text)

	if s, ok := firstValid(scanSpans(text, '[', ']')); ok {
		return text[s.start:s.end], true
	}
	if s, ok := firstValid(scanSpans(text, '{', '}')); ok {
		return text[s.start:s.end], true
	}

	for _, re := range fallbackPatterns {
		if m := re.FindString(text); m != "" && json.Valid([]byte(m)) {
			return m, true
		}
	}

	return "", false
}

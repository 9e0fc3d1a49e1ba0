package jsonx

import (
	"regexp"
	"strings"
)

var (
	// Truncated object fragments, e.g. a decision cut off mid-stream
	truncatedObjectRe = regexp.MustCompile(`\{"[^"]+"\s*:[^{}]*`)
	// Residual key/value tails left after a span removal
	kvTailStringRe = regexp.MustCompile(`,\s*"[^"]+"\s*:\s*"[^"]*"[^}]*`)
	kvTailBareRe   = regexp.MustCompile(`,\s*"[^"]+"\s*:\s*[^,}]*`)
)

// Strip removes every syntactically detected JSON span from text, along
// with truncated object fragments and residual key/value tails, and trims
// fence markers, leading commas and a single unmatched trailing brace.
// It is used to recover the conversational reply that surrounds a decision
// payload. The result may be empty; the caller supplies the fallback.
func Strip(text string) string {
	// Remove one span at a time and re-scan, so nested spans never
	// produce stale offsets. Balanced-but-malformed spans (e.g. a
	// residue like [1,2,]) are removed the same as valid ones.
	for {
		spans := scanSpans(text, '[', ']')
		if len(spans) == 0 {
			spans = scanSpans(text, '{', '}')
		}
		if len(spans) == 0 {
			break
		}
		text = text[:spans[0].start] + text[spans[0].end:]
	}

	text = truncatedObjectRe.ReplaceAllString(text, "")
	text = kvTailStringRe.ReplaceAllString(text, "")
	text = kvTailBareRe.ReplaceAllString(text, "")

	text = strings.TrimSpace(text)
	for strings.HasPrefix(text, "```") || strings.HasPrefix(text, ",") {
		if strings.HasPrefix(text, "```") {
			text = text[3:]
		} else {
			text = text[1:]
		}
		text = strings.TrimSpace(text)
	}
	for strings.HasSuffix(text, "```") {
		text = strings.TrimSpace(text[:len(text)-3])
	}
	text = strings.TrimSuffix(text, "}")

	return strings.TrimSpace(text)
}

package agent

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/adapter"
	"github.com/m-mizutani/parlaplate/pkg/utils/jsonx"
	"github.com/m-mizutani/parlaplate/pkg/utils/logging"
	"google.golang.org/genai"
)

// extractKeywords asks the completion service for normalized
// food-preference keywords. Any failure, including missing or malformed
// JSON, yields an empty list: the ranker still works, just ungrounded by
// user phrasing.
func (s *Session) extractKeywords(ctx context.Context, message string) []string {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(keywordsPrompt, ""),
	}
	contents := []*genai.Content{genai.NewContentFromText(message, genai.RoleUser)}

	resp, err := s.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		logging.From(ctx).Warn("keyword extraction call failed", "error", err)
		return nil
	}

	text, err := adapter.ResponseText(resp)
	if err != nil {
		logging.From(ctx).Warn("keyword extraction returned no text", "error", err)
		return nil
	}

	payload, ok := jsonx.Extract(text)
	if !ok {
		logging.From(ctx).Warn("no JSON in keyword extraction response")
		return nil
	}

	var values []any
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		logging.From(ctx).Warn("keyword extraction JSON is not an array",
			"error", goerr.Wrap(err, "decode", goerr.V("json", payload)))
		return nil
	}

	keywords := make([]string, 0, len(values))
	for _, v := range values {
		if kw, ok := v.(string); ok && kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// Package extract builds menu documents from pre-rendered page images via
// the vision-capable completion call, then profiles the restaurant from
// the merged item list.
package extract

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/adapter"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/utils/jsonx"
	"github.com/m-mizutani/parlaplate/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/extraction.md
var extractionPrompt string

//go:embed prompt/profile.md
var profilePrompt string

const pageUserPrompt = "Read this menu page image and return ONLY a JSON ARRAY for THIS PAGE.\nIf this page is empty or not a menu page, return []."

// PageImage is one rendered menu page. Rasterization happens upstream;
// this package only consumes image bytes.
type PageImage struct {
	Data     []byte
	MIMEType string
}

type Extractor struct {
	gemini adapter.Gemini
}

func New(gemini adapter.Gemini) *Extractor {
	return &Extractor{gemini: gemini}
}

// ExtractMenu extracts items from each page, merges them with
// name-deduplication, and profiles the restaurant. Pages that yield no
// usable JSON are skipped; only a completely failed profile with zero
// items is an error for the caller to decide on.
func (x *Extractor) ExtractMenu(ctx context.Context, sourceName string, pages []PageImage) (*model.Menu, error) {
	if len(pages) == 0 {
		return nil, goerr.New("no page images given")
	}

	logger := logging.From(ctx)

	var pageItems [][]model.MenuItem
	emptyPages := 0
	for i, page := range pages {
		items := x.extractPage(ctx, page, i+1)
		if len(items) == 0 {
			emptyPages++
			continue
		}
		pageItems = append(pageItems, items)
	}
	logger.Info("processed menu pages", "pages", len(pages), "empty", emptyPages)

	merged := mergeItems(pageItems)
	logger.Info("merged menu items", "unique", len(merged))

	profile := x.profile(ctx, merged, sourceName)

	menu := &model.Menu{
		Restaurant: profile,
		Items:      merged,
	}
	if err := menu.Validate(); err != nil {
		return nil, err
	}

	return menu, nil
}

// extractPage runs the vision extraction call for one page. Every failure
// mode collapses to an empty item list: a bad page never fails the menu.
func (x *Extractor) extractPage(ctx context.Context, page PageImage, pageNum int) []model.MenuItem {
	logger := logging.From(ctx)

	mimeType := page.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(extractionPrompt, ""),
	}
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: pageUserPrompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: page.Data}},
		},
	}}

	resp, err := x.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		logger.Error("page extraction call failed", "page", pageNum, "error", err)
		return nil
	}
	text, err := adapter.ResponseText(resp)
	if err != nil {
		logger.Warn("page extraction returned no text", "page", pageNum, "error", err)
		return nil
	}

	payload, ok := jsonx.Extract(text)
	if !ok {
		logger.Warn("no JSON found in page response", "page", pageNum)
		return nil
	}

	var rawItems []map[string]any
	if err := json.Unmarshal([]byte(payload), &rawItems); err != nil {
		logger.Warn("page response is not a JSON array", "page", pageNum, "error", err)
		return nil
	}

	items := make([]model.MenuItem, 0, len(rawItems))
	for _, raw := range rawItems {
		item, err := decodeItem(raw)
		if err != nil {
			logger.Warn("skipping invalid item", "page", pageNum, "error", err)
			continue
		}
		items = append(items, item)
	}

	logger.Info("extracted page items", "page", pageNum, "items", len(items))
	return items
}

func decodeItem(raw map[string]any) (model.MenuItem, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return model.MenuItem{}, goerr.Wrap(err, "item is not encodable")
	}

	var item model.MenuItem
	if err := json.Unmarshal(data, &item); err != nil {
		return model.MenuItem{}, goerr.Wrap(err, "item does not match schema")
	}
	if err := item.Validate(); err != nil {
		return model.MenuItem{}, err
	}

	return item, nil
}

// mergeItems flattens per-page item lists, dropping later duplicates of
// the same normalized name. Page order is preserved.
func mergeItems(pageItems [][]model.MenuItem) []model.MenuItem {
	seen := map[string]bool{}
	var merged []model.MenuItem

	for _, items := range pageItems {
		for _, item := range items {
			key := strings.ToLower(strings.TrimSpace(item.Name))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, item)
		}
	}

	return merged
}

// profile asks the completion service to summarize the merged items into a
// restaurant profile. A failed call or unusable response degrades to a
// deterministic local profile so extraction still completes.
func (x *Extractor) profile(ctx context.Context, items []model.MenuItem, sourceName string) model.RestaurantProfile {
	logger := logging.From(ctx)

	p, err := x.profileCall(ctx, items)
	if err != nil {
		logger.Warn("restaurant profiling failed, using fallback", "error", err)
		p = model.RestaurantProfile{}
	}

	if p.Name == "" {
		p.Name = CleanName(sourceName)
	}
	if p.DisplayName == "" {
		p.DisplayName = displayName(p.Name)
	}
	if p.SummaryText == "" {
		p.SummaryText = fallbackSummary(p.DisplayName, items)
	}

	return p
}

func (x *Extractor) profileCall(ctx context.Context, items []model.MenuItem) (model.RestaurantProfile, error) {
	itemsJSON, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return model.RestaurantProfile{}, goerr.Wrap(err, "failed to encode items")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(profilePrompt, ""),
	}
	contents := []*genai.Content{
		genai.NewContentFromText("Menu items:\n"+string(itemsJSON), genai.RoleUser),
	}

	resp, err := x.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		return model.RestaurantProfile{}, goerr.Wrap(err, "profile call failed")
	}
	text, err := adapter.ResponseText(resp)
	if err != nil {
		return model.RestaurantProfile{}, err
	}

	payload, ok := jsonx.Extract(text)
	if !ok {
		return model.RestaurantProfile{}, goerr.New("no JSON in profile response")
	}

	var parsed any
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return model.RestaurantProfile{}, goerr.Wrap(err, "profile JSON is invalid")
	}

	// The model sometimes wraps the object in a one-element array
	obj, ok := parsed.(map[string]any)
	if !ok {
		if seq, isSeq := parsed.([]any); isSeq && len(seq) > 0 {
			obj, ok = seq[0].(map[string]any)
		}
	}
	if !ok {
		return model.RestaurantProfile{}, goerr.New("profile response is not an object")
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return model.RestaurantProfile{}, goerr.Wrap(err, "failed to re-encode profile")
	}
	var p model.RestaurantProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return model.RestaurantProfile{}, goerr.Wrap(err, "profile does not match schema")
	}

	return p, nil
}

// fallbackSummary builds a summary from the items themselves when the
// profiling call gave none
func fallbackSummary(displayName string, items []model.MenuItem) string {
	categories := make([]string, 0, 3)
	seen := map[string]bool{}
	for _, item := range items {
		c := strings.TrimSpace(item.Category)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
		if len(categories) >= 3 {
			break
		}
	}

	categoryText := "diverse cuisine"
	if len(categories) > 0 {
		categoryText = strings.Join(categories, ", ")
	}

	return fmt.Sprintf("%s offers %s. Features %d menu items across different categories.",
		displayName, categoryText, len(items))
}

func displayName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

package extract_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/usecase/extract"
	"google.golang.org/genai"
)

type mockGemini struct {
	replies []string
	calls   int
}

func (m *mockGemini) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.calls >= len(m.replies) {
		return nil, errors.New("unexpected completion call")
	}
	text := m.replies[m.calls]
	m.calls++
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
	}, nil
}

func (m *mockGemini) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

func page() extract.PageImage {
	return extract.PageImage{Data: []byte("fake-png"), MIMEType: "image/png"}
}

func TestExtractMenuMergesAndDeduplicates(t *testing.T) {
	gemini := &mockGemini{replies: []string{
		`[{"name": "Adana Kebap", "price": "45 TL", "ingredients": ["lamb"], "keywords": ["grilled"], "allergens": []}]`,
		`[{"name": "adana kebap", "price": "45 TL", "ingredients": [], "keywords": [], "allergens": []},
		  {"name": "Baklava", "price": "25 TL", "ingredients": ["walnut"], "keywords": ["sweet"], "allergens": ["nuts"]}]`,
		`{"name": "kebapci", "display_name": "Kebapçı", "cuisine_tags": ["turkish"], "price_level": "medium",
		  "service_style": ["casual"], "diet_coverage": [], "popular_categories": ["grill"],
		  "summary_text": "A casual Turkish grill house."}`,
	}}

	menu := gt.R1(extract.New(gemini).ExtractMenu(context.Background(), "kebapci.pdf", []extract.PageImage{page(), page()})).NoError(t)

	// the lowercase duplicate from page two is dropped
	gt.A(t, menu.Items).Length(2)
	gt.Equal(t, menu.Items[0].Name, "Adana Kebap")
	gt.Equal(t, menu.Items[1].Name, "Baklava")
	gt.Equal(t, menu.Restaurant.DisplayName, "Kebapçı")
	gt.Equal(t, menu.Restaurant.PriceLevel, model.PriceLevelMedium)
}

func TestExtractMenuSkipsBadPages(t *testing.T) {
	gemini := &mockGemini{replies: []string{
		`Sorry, I cannot read this page.`,
		`{"not": "an array"}`,
		`[{"name": "Mercimek Çorbası", "price": "15 TL", "ingredients": ["lentil"], "keywords": ["soup"], "allergens": []}]`,
		`{"cuisine_tags": ["turkish"], "summary_text": "Soup place."}`,
	}}

	menu := gt.R1(extract.New(gemini).ExtractMenu(context.Background(), "soups.pdf", []extract.PageImage{page(), page(), page()})).NoError(t)

	gt.A(t, menu.Items).Length(1)
	gt.Equal(t, menu.Items[0].Name, "Mercimek Çorbası")
}

func TestExtractMenuProfileFallback(t *testing.T) {
	gemini := &mockGemini{replies: []string{
		`[{"name": "Margherita", "price": "30 TL", "ingredients": ["tomato", "mozzarella"], "keywords": ["pizza"], "allergens": ["dairy"], "category": "pizza"}]`,
		`no json here at all`,
	}}

	menu := gt.R1(extract.New(gemini).ExtractMenu(context.Background(), "Pizza Palace!.pdf", []extract.PageImage{page()})).NoError(t)

	gt.Equal(t, menu.Restaurant.Name, "pizza_palace")
	gt.Equal(t, menu.Restaurant.DisplayName, "Pizza Palace")
	gt.S(t, menu.Restaurant.SummaryText).Contains("pizza")
	gt.S(t, menu.Restaurant.SummaryText).Contains("1 menu items")
}

func TestExtractMenuRejectsNoPages(t *testing.T) {
	gemini := &mockGemini{}
	_, err := extract.New(gemini).ExtractMenu(context.Background(), "menu.pdf", nil)
	gt.Error(t, err)
}

func TestMenuFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "menu.json")

	menu := &model.Menu{
		Restaurant: model.RestaurantProfile{Name: "lokanta"},
		Items: []model.MenuItem{
			{Name: "Pide", Price: "20 TL", Ingredients: []string{"cheese"}, Keywords: []string{"baked"}, Allergens: []string{"dairy", "gluten"}},
		},
	}

	gt.NoError(t, extract.SaveMenu(menu, path))

	loaded := gt.R1(extract.LoadMenu(path)).NoError(t)
	gt.Equal(t, loaded.Restaurant.Name, "lokanta")
	gt.A(t, loaded.Items).Length(1)
	gt.A(t, loaded.Items[0].Allergens).Length(2)
}

func TestLoadMenuMissingFile(t *testing.T) {
	_, err := extract.LoadMenu(filepath.Join(t.TempDir(), "nope.json"))
	gt.Error(t, err)
}

func TestCleanName(t *testing.T) {
	cases := map[string]string{
		"Pizza Palace!.pdf":  "pizza_palace",
		"menu.pdf":           "menu",
		"çorbacı.pdf":        "orbac",
		"already_clean.json": "already_clean",
		"___.pdf":            "menu",
	}

	for input, want := range cases {
		gt.Equal(t, extract.CleanName(input), want)
	}
}

package rank_test

import (
	"bytes"
	"context"
	"io"
	"math"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parlaplate/pkg/adapter"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/service/embcache"
	"github.com/m-mizutani/parlaplate/pkg/service/rank"
)

// nullStore never hits so every test run embeds fresh vectors
type nullStore struct{}

func (nullStore) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return nopWriteCloser{new(bytes.Buffer)}, nil
}

func (nullStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, goerr.Wrap(adapter.ErrBlobNotFound, "null store")
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// scriptedEmbedder returns fixed vectors per text, so item similarity is
// fully controlled by the test
type scriptedEmbedder struct {
	byText map[string][]float32
	query  []float32
}

func (s *scriptedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := s.byText[text]; ok {
			out[i] = v
		} else {
			out[i] = s.query
		}
	}
	return out, nil
}

func newRanker(e embcache.Embedder) *rank.Ranker {
	return rank.New(embcache.New(nullStore{}, e), e)
}

func item(name string, allergens []string, kw ...string) model.MenuItem {
	return model.MenuItem{Name: name, Allergens: allergens, Keywords: kw}
}

func TestAllergenNeverSurfaces(t *testing.T) {
	ctx := context.Background()

	// The nut dish is embedded identical to the query: maximal similarity
	nutDish := item("Nutty Baklava", []string{"Nuts"}, "sweet")
	safeDish := item("Fruit Plate", nil, "sweet")
	menu := &model.Menu{Items: []model.MenuItem{nutDish, safeDish}}

	embedder := &scriptedEmbedder{
		byText: map[string][]float32{
			nutDish.SearchText():  {1, 0},
			safeDish.SearchText(): {0.5, 0.5},
		},
		query: []float32{1, 0},
	}

	got := gt.R1(newRanker(embedder).Rank(ctx, menu, []string{"sweet"}, model.Constraints{
		AvoidAllergens: []string{"nuts"},
	}, 8)).NoError(t)

	gt.A(t, got).Length(1)
	gt.V(t, got[0].Name).Equal("Fruit Plate")
}

func TestDietExclusionNeverSurfaces(t *testing.T) {
	ctx := context.Background()

	chicken := item("Grilled Chicken", nil, "grilled", "chicken")
	salad := item("Shepherd Salad", nil, "fresh")
	menu := &model.Menu{Items: []model.MenuItem{chicken, salad}}

	embedder := &scriptedEmbedder{
		byText: map[string][]float32{
			chicken.SearchText(): {1, 0},
			salad.SearchText():   {0.9, 0.1},
		},
		query: []float32{1, 0},
	}

	for _, diet := range []string{"vegetarian", "vegan"} {
		t.Run(diet, func(t *testing.T) {
			got := gt.R1(newRanker(embedder).Rank(ctx, menu, []string{"grilled"}, model.Constraints{
				Diet: []string{diet},
			}, 8)).NoError(t)

			gt.A(t, got).Length(1)
			gt.V(t, got[0].Name).Equal("Shepherd Salad")
		})
	}
}

func TestTopKBoundAndStability(t *testing.T) {
	ctx := context.Background()

	a := item("First Tied", nil, "soup")
	b := item("Second Tied", nil, "soup")
	c := item("Third", nil, "salad")
	menu := &model.Menu{Items: []model.MenuItem{a, b, c}}

	// a and b score identically; c scores lower
	embedder := &scriptedEmbedder{
		byText: map[string][]float32{
			a.SearchText(): {1, 0},
			b.SearchText(): {1, 0},
			c.SearchText(): {0, 1},
		},
		query: []float32{1, 0},
	}

	got := gt.R1(newRanker(embedder).Rank(ctx, menu, []string{"soup"}, model.Constraints{}, 2)).NoError(t)

	gt.A(t, got).Length(2)
	gt.V(t, got[0].Name).Equal("First Tied")
	gt.V(t, got[1].Name).Equal("Second Tied")
}

func TestPricePenaltyReordersButNeverExcludes(t *testing.T) {
	ctx := context.Background()

	pricey := item("Tomahawk Steak", nil, "meat")
	pricey.Price = "95.00 TL"
	modest := item("Meatball Plate", nil, "meat")
	modest.Price = "18.00 TL"
	menu := &model.Menu{Items: []model.MenuItem{pricey, modest}}

	// pricey is slightly more similar, but 0.9*0.7 < 0.8
	embedder := &scriptedEmbedder{
		byText: map[string][]float32{
			pricey.SearchText(): {0.9, cf(0.9)},
			modest.SearchText(): {0.8, cf(0.8)},
		},
		query: []float32{1, 0},
	}

	got := gt.R1(newRanker(embedder).Rank(ctx, menu, []string{"meat"}, model.Constraints{
		PricePreference: model.PriceLevelLow,
	}, 8)).NoError(t)

	gt.A(t, got).Length(2)
	gt.V(t, got[0].Name).Equal("Meatball Plate")
	gt.V(t, got[1].Name).Equal("Tomahawk Steak")
}

func TestEmptyMenuReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	embedder := &scriptedEmbedder{query: []float32{1, 0}}

	got := gt.R1(newRanker(embedder).Rank(ctx, &model.Menu{}, []string{"soup"}, model.Constraints{}, 8)).NoError(t)
	gt.A(t, got).Length(0)
}

func TestEmptyQueryFallsBackToMenuOrder(t *testing.T) {
	ctx := context.Background()

	menu := &model.Menu{Items: []model.MenuItem{
		item("One", nil), item("Two", nil), item("Three", nil),
	}}
	embedder := &scriptedEmbedder{query: []float32{1, 0}}

	got := gt.R1(newRanker(embedder).Rank(ctx, menu, nil, model.Constraints{}, 2)).NoError(t)

	gt.A(t, got).Length(2)
	gt.V(t, got[0].Name).Equal("One")
	gt.V(t, got[1].Name).Equal("Two")
}

func TestPriceBucket(t *testing.T) {
	testCases := []struct {
		price  string
		bucket model.PriceLevel
		ok     bool
	}{
		{"15.99 TL", model.PriceLevelLow, true},
		{"$25.50", model.PriceLevelMedium, true},
		{"120 TL", model.PriceLevelHigh, true},
		{"market price", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.price, func(t *testing.T) {
			bucket, ok := rank.PriceBucket(tc.price)
			gt.V(t, ok).Equal(tc.ok)
			gt.V(t, bucket).Equal(tc.bucket)
		})
	}
}

// cf builds the second component so the vector is unit-length with the
// given first component, keeping cosine scores equal to that component.
func cf(x float64) float32 {
	return float32(math.Sqrt(1 - x*x))
}

// Package rank scores menu items against a free-text request under hard
// dietary constraints and soft price preferences. Allergen and diet
// violations never surface regardless of semantic relevance; price only
// re-weights scores.
package rank

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/service/embcache"
	"github.com/m-mizutani/parlaplate/pkg/utils/logging"
)

// HighPriceDamping is the score multiplier applied to high-bucket items
// when the caller prefers low prices.
var HighPriceDamping = 0.7

// sentinelScore marks items that failed a hard constraint. It sits below
// any valid cosine similarity so filtered items sort last and are dropped.
const sentinelScore = -2.0

// Ranker ranks menu items by embedding similarity. It reads item matrices
// through the embedding cache and never writes menu state.
type Ranker struct {
	cache    *embcache.Cache
	embedder embcache.Embedder
}

func New(cache *embcache.Cache, embedder embcache.Embedder) *Ranker {
	return &Ranker{
		cache:    cache,
		embedder: embedder,
	}
}

// Rank returns up to k menu items ordered by adjusted similarity to the
// query keywords, with ties broken by original menu order.
func (r *Ranker) Rank(ctx context.Context, menu *model.Menu, keywords []string, c model.Constraints, k int) ([]model.MenuItem, error) {
	if len(menu.Items) == 0 {
		return nil, nil
	}

	matrix, err := r.cache.GetOrCompute(ctx, menu)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get item embeddings")
	}

	scores, err := r.similarities(ctx, menu, keywords, c, matrix)
	if err != nil {
		return nil, err
	}

	mask := keepMask(menu.Items, c)

	if c.PricePreference == model.PriceLevelLow {
		for i := range menu.Items {
			if bucket, ok := PriceBucket(menu.Items[i].Price); ok && bucket == model.PriceLevelHigh {
				scores[i] *= HighPriceDamping
			}
		}
	}

	for i := range scores {
		if !mask[i] {
			scores[i] = sentinelScore
		}
	}

	indices := make([]int, len(menu.Items))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})

	result := make([]model.MenuItem, 0, k)
	for _, idx := range indices {
		if len(result) >= k {
			break
		}
		if scores[idx] <= sentinelScore {
			continue
		}
		result = append(result, menu.Items[idx])
	}

	logging.From(ctx).Debug("ranked menu candidates",
		"keywords", keywords, "returned", len(result), "items", len(menu.Items))

	return result, nil
}

// similarities computes one cosine similarity per item. An empty query
// yields a neutral baseline (all zero) so callers still get items in
// original menu order instead of a failure.
func (r *Ranker) similarities(ctx context.Context, menu *model.Menu, keywords []string, c model.Constraints, matrix [][]float32) ([]float64, error) {
	query := buildQuery(keywords, c)
	scores := make([]float64, len(menu.Items))

	if query == "" {
		return scores, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query", goerr.V("query", query))
	}
	if len(vectors) != 1 {
		return nil, goerr.New("unexpected query embedding count", goerr.V("count", len(vectors)))
	}

	for i, row := range matrix {
		scores[i] = cosineSimilarity(vectors[0], row)
	}

	return scores, nil
}

// buildQuery joins the query keywords with constraint-derived hints
func buildQuery(keywords []string, c model.Constraints) string {
	parts := make([]string, 0, len(keywords)+len(c.Diet)+1)
	parts = append(parts, keywords...)
	parts = append(parts, c.Diet...)
	if c.PricePreference != "" {
		parts = append(parts, "price-"+string(c.PricePreference))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// cosineSimilarity is the dot product of the L2-normalized vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Package embcache persists per-item menu embeddings keyed by a content
// hash of the menu, so identical menu content never pays embedding cost
// twice. Entries are invalidated implicitly: any item change produces a
// new key, and stale entries are simply orphaned.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/parlaplate/pkg/adapter"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/utils/logging"
)

// Embedder is the slice of the completion service the cache needs
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Cache computes and stores item embedding matrices. It is the sole
// writer to its storage; rankers only read through GetOrCompute.
type Cache struct {
	store    adapter.Storage
	embedder Embedder
}

func New(store adapter.Storage, embedder Embedder) *Cache {
	return &Cache{
		store:    store,
		embedder: embedder,
	}
}

// entry is the persisted matrix format: one matrix per key
type entry struct {
	Rows    int         `json:"rows"`
	Dim     int         `json:"dim"`
	Vectors [][]float32 `json:"vectors"`
}

// Key derives the storage key for a menu. The hash covers a canonical
// (sorted-key) serialization of the item list in menu order, so two menus
// with identical item content share a key regardless of file name, while
// a single renamed item produces a new one.
func Key(menu *model.Menu) (string, error) {
	raw, err := json.Marshal(menu.Items)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal menu items")
	}

	// Round-trip through maps so keys serialize sorted
	var generic []map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", goerr.Wrap(err, "failed to canonicalize menu items")
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal canonical items")
	}

	sum := sha256.Sum256(canonical)
	hash := hex.EncodeToString(sum[:])[:16]

	return sanitizeName(menu.Restaurant.Name) + "_" + hash + ".emb.json", nil
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}

// GetOrCompute returns the item embedding matrix for the menu, loading it
// from storage when a valid entry exists and computing plus persisting it
// otherwise. The persist step is best-effort: a failed write still returns
// the freshly computed matrix. Concurrent first-writers of one key may
// race, but writes are idempotent for identical content, so no locking.
func (c *Cache) GetOrCompute(ctx context.Context, menu *model.Menu) ([][]float32, error) {
	key, err := Key(menu)
	if err != nil {
		return nil, err
	}

	if vectors, ok := c.load(ctx, key, len(menu.Items)); ok {
		return vectors, nil
	}

	texts := make([]string, 0, len(menu.Items))
	for i := range menu.Items {
		texts = append(texts, menu.Items[i].SearchText())
	}

	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed menu items", goerr.V("key", key))
	}

	c.save(ctx, key, vectors)

	return vectors, nil
}

// load returns ok=false for any miss, read error, or invariant violation.
// A corrupt entry is treated as absent, never as partially valid.
func (c *Cache) load(ctx context.Context, key string, itemCount int) ([][]float32, bool) {
	r, err := c.store.Get(ctx, key)
	if err != nil {
		logging.From(ctx).Debug("embedding cache miss", "key", key, "error", err)
		return nil, false
	}
	defer r.Close()

	var e entry
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		logging.From(ctx).Warn("broken embedding cache entry", "key", key, "error", err)
		return nil, false
	}

	if e.Rows != itemCount || len(e.Vectors) != itemCount {
		logging.From(ctx).Warn("embedding cache row count mismatch",
			"key", key, "rows", e.Rows, "items", itemCount)
		return nil, false
	}
	for _, v := range e.Vectors {
		if len(v) != e.Dim {
			logging.From(ctx).Warn("embedding cache dimension mismatch", "key", key)
			return nil, false
		}
	}

	return e.Vectors, true
}

func (c *Cache) save(ctx context.Context, key string, vectors [][]float32) {
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	e := entry{
		Rows:    len(vectors),
		Dim:     dim,
		Vectors: vectors,
	}

	w, err := c.store.Put(ctx, key)
	if err != nil {
		logging.From(ctx).Warn("failed to open embedding cache for write", "key", key, "error", err)
		return
	}

	if err := json.NewEncoder(w).Encode(&e); err != nil {
		logging.From(ctx).Warn("failed to write embedding cache", "key", key, "error", err)
		_ = w.Close()
		return
	}
	if err := w.Close(); err != nil {
		logging.From(ctx).Warn("failed to close embedding cache writer", "key", key, "error", err)
	}
}

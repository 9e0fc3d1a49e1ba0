package embcache_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parlaplate/pkg/adapter"
	"github.com/m-mizutani/parlaplate/pkg/model"
	"github.com/m-mizutani/parlaplate/pkg/service/embcache"
)

// mockStore is an in-memory adapter.Storage
type mockStore struct {
	mu     sync.Mutex
	blobs  map[string][]byte
	putErr error
}

func newMockStore() *mockStore {
	return &mockStore{blobs: make(map[string][]byte)}
}

type blobWriter struct {
	buf   bytes.Buffer
	key   string
	store *mockStore
}

func (w *blobWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *blobWriter) Close() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.blobs[w.key] = w.buf.Bytes()
	return nil
}

func (m *mockStore) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	return &blobWriter{key: key, store: m}, nil
}

func (m *mockStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.blobs[key]
	if !ok {
		return nil, goerr.Wrap(adapter.ErrBlobNotFound, "missing", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

// mockEmbedder counts calls and returns fixed unit vectors
type mockEmbedder struct {
	calls   int
	vectors [][]float32
	err     error
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.vectors != nil {
		return m.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func testMenu(itemNames ...string) *model.Menu {
	menu := &model.Menu{
		Restaurant: model.RestaurantProfile{Name: "Test Place"},
	}
	for _, name := range itemNames {
		menu.Items = append(menu.Items, model.MenuItem{
			Name:     name,
			Keywords: []string{"tasty"},
		})
	}
	return menu
}

func TestGetOrComputeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	embedder := &mockEmbedder{}
	cache := embcache.New(store, embedder)

	menu := testMenu("Lentil Soup", "Grilled Halloumi")

	first := gt.R1(cache.GetOrCompute(ctx, menu)).NoError(t)
	gt.A(t, first).Length(2)
	gt.V(t, embedder.calls).Equal(1)

	// Second call with identical content must hit the cache
	second := gt.R1(cache.GetOrCompute(ctx, menu)).NoError(t)
	gt.V(t, embedder.calls).Equal(1)
	gt.V(t, second).Equal(first)
}

func TestKeyChangesOnItemRename(t *testing.T) {
	a := gt.R1(embcache.Key(testMenu("Lentil Soup", "Baklava"))).NoError(t)
	b := gt.R1(embcache.Key(testMenu("Lentil Soup", "Kunefe"))).NoError(t)
	gt.V(t, a == b).Equal(false)
}

func TestKeyIndependentOfRestaurantDisplayFields(t *testing.T) {
	m1 := testMenu("Lentil Soup")
	m2 := testMenu("Lentil Soup")
	m2.Restaurant.SummaryText = "a different blurb"

	a := gt.R1(embcache.Key(m1)).NoError(t)
	b := gt.R1(embcache.Key(m2)).NoError(t)
	gt.V(t, a).Equal(b)
}

func TestCorruptEntryTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	embedder := &mockEmbedder{}
	cache := embcache.New(store, embedder)

	menu := testMenu("Pide")
	key := gt.R1(embcache.Key(menu)).NoError(t)
	store.blobs[key] = []byte("not json at all")

	vectors := gt.R1(cache.GetOrCompute(ctx, menu)).NoError(t)
	gt.A(t, vectors).Length(1)
	gt.V(t, embedder.calls).Equal(1)
}

func TestRowCountMismatchTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	embedder := &mockEmbedder{}
	cache := embcache.New(store, embedder)

	// Seed the cache for a one-item menu, then query a two-item menu that
	// happens to collide -- simulated by copying the blob across keys.
	one := testMenu("Ayran")
	gt.R1(cache.GetOrCompute(ctx, one)).NoError(t)
	oneKey := gt.R1(embcache.Key(one)).NoError(t)

	two := testMenu("Ayran", "Salep")
	twoKey := gt.R1(embcache.Key(two)).NoError(t)
	store.blobs[twoKey] = store.blobs[oneKey]

	vectors := gt.R1(cache.GetOrCompute(ctx, two)).NoError(t)
	gt.A(t, vectors).Length(2)
	gt.V(t, embedder.calls).Equal(2)
}

func TestPersistFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.putErr = goerr.New("read-only filesystem")
	embedder := &mockEmbedder{}
	cache := embcache.New(store, embedder)

	vectors := gt.R1(cache.GetOrCompute(ctx, testMenu("Manti"))).NoError(t)
	gt.A(t, vectors).Length(1)
}

func TestEmbedFailurePropagates(t *testing.T) {
	ctx := context.Background()
	embedder := &mockEmbedder{err: goerr.New("quota exceeded")}
	cache := embcache.New(newMockStore(), embedder)

	_, err := cache.GetOrCompute(ctx, testMenu("Iskender"))
	gt.Error(t, err)
}

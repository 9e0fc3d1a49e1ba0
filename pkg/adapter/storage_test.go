package adapter_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/parlaplate/pkg/adapter"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store := gt.R1(adapter.NewLocalStorage(t.TempDir())).NoError(t)
	ctx := context.Background()

	w := gt.R1(store.Put(ctx, "menus/lokanta.emb.json")).NoError(t)
	gt.R1(w.Write([]byte("payload"))).NoError(t)
	gt.NoError(t, w.Close())

	r := gt.R1(store.Get(ctx, "menus/lokanta.emb.json")).NoError(t)
	defer r.Close()

	data := gt.R1(io.ReadAll(r)).NoError(t)
	gt.Equal(t, string(data), "payload")
}

func TestLocalStorageMissingKey(t *testing.T) {
	store := gt.R1(adapter.NewLocalStorage(t.TempDir())).NoError(t)

	_, err := store.Get(context.Background(), "nope.json")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, adapter.ErrBlobNotFound))
}

package recordstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storepos/backend/internal/recordstore"
	"storepos/backend/internal/recordstore/memory"
)

type note struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func TestLoadNeverWrittenKeyIsEmpty(t *testing.T) {
	store := memory.New()

	for _, key := range []string{recordstore.ProductsKey("mangas"), recordstore.CustomersKey, recordstore.PurchasesKey, recordstore.OrdersKey} {
		got, err := recordstore.Load[note](context.Background(), store, key)
		require.NoError(t, err, key)
		assert.NotNil(t, got, key)
		assert.Empty(t, got, key)
	}
}

func TestSaveReplacesWholeCollection(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, recordstore.Save(ctx, store, "notes", []note{{ID: "a"}, {ID: "b"}}))
	require.NoError(t, recordstore.Save(ctx, store, "notes", []note{{ID: "c"}}))

	got, err := recordstore.Load[note](ctx, store, "notes")
	require.NoError(t, err)
	assert.Equal(t, []note{{ID: "c"}}, got)
}

func TestSaveNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, recordstore.Save[note](ctx, store, "notes", nil))

	raw, err := store.Get(ctx, "notes")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestLoadRejectsNonArrayPayload(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, "notes", []byte(`{"id":"a"}`)))

	_, err := recordstore.Load[note](ctx, store, "notes")
	require.Error(t, err)
	assert.True(t, errors.Is(err, recordstore.ErrCorrupt))
}

func TestLoadWrapsBackendErrors(t *testing.T) {
	store := memory.New()
	boom := errors.New("connection refused")
	store.SetError(boom)

	_, err := recordstore.Load[note](context.Background(), store, "notes")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestUnavailableAlwaysFails(t *testing.T) {
	ctx := context.Background()
	var store recordstore.Store = recordstore.Unavailable{}

	_, err := store.Get(ctx, "orders")
	assert.ErrorIs(t, err, recordstore.ErrUnavailable)
	assert.ErrorIs(t, store.Set(ctx, "orders", []byte(`[]`)), recordstore.ErrUnavailable)
}

func TestPrefixedNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	base := memory.New()
	store := recordstore.Prefixed(base, "pos:")

	require.NoError(t, recordstore.Save(ctx, store, recordstore.OrdersKey, []note{{ID: "o1"}}))
	assert.Equal(t, []string{"pos:orders"}, base.Keys())

	assert.Equal(t, "order:o1", recordstore.OrderKey("o1"))
	assert.Equal(t, "orders:day:2024-01-15", recordstore.OrdersDayKey("2024-01-15"))
}

func TestLookupReportsWhetherKeyWasWritten(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	_, found, err := recordstore.Lookup[note](ctx, store, "orders:day:2024-01-15")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, recordstore.Save[note](ctx, store, "orders:day:2024-01-15", nil))
	got, found, err := recordstore.Lookup[note](ctx, store, "orders:day:2024-01-15")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, got)
}

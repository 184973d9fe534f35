package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(t.TempDir(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func itemsSchema() Schema {
	return Schema{{
		Name:    "items",
		KeyPath: "id",
		Indexes: []IndexDefinition{
			{Name: "nameIndex", KeyPath: "name"},
		},
	}}
}

func openItems(t *testing.T, reg *Registry) *Handle {
	t.Helper()
	h, err := reg.Open(context.Background(), "testdb", 1, itemsSchema())
	require.NoError(t, err)
	return h
}

func TestHandleAddGet(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	ctx := context.Background()

	item := Item{"id": float64(1), "name": "A", "tags": []any{"x", "y"}}
	key, err := h.Add(ctx, "items", item)
	require.NoError(t, err)
	assert.Equal(t, float64(1), key)

	got, ok, err := h.Get(ctx, "items", float64(1))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, item, got)

	t.Run("integer and float keys are interchangeable", func(t *testing.T) {
		got, ok, err := h.Get(ctx, "items", 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "A", got["name"])
	})

	t.Run("duplicate key is a constraint violation", func(t *testing.T) {
		_, err := h.Add(ctx, "items", Item{"id": float64(1), "name": "dup"})
		assert.ErrorIs(t, err, ErrKeyExists)
		var storeErr *StoreError
		assert.ErrorAs(t, err, &storeErr)
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := h.Add(ctx, "nope", Item{"id": float64(9)})
		assert.ErrorIs(t, err, ErrNoSuchStore)
	})

	t.Run("missing key without auto increment", func(t *testing.T) {
		_, err := h.Add(ctx, "items", Item{"name": "keyless"})
		assert.ErrorIs(t, err, ErrMissingKey)
	})
}

func TestHandleGetNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)

	got, ok, err := h.Get(context.Background(), "items", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestHandlePutSemantics(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	ctx := context.Background()

	_, err := h.Put(ctx, "items", Item{"id": float64(1), "name": "A"})
	require.NoError(t, err)

	n, err := h.Count(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Replacing an existing key leaves count unchanged.
	_, err = h.Put(ctx, "items", Item{"id": float64(1), "name": "A2"})
	require.NoError(t, err)
	n, err = h.Count(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok, err := h.Get(ctx, "items", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A2", got["name"])

	// A new key increases count by one.
	_, err = h.Put(ctx, "items", Item{"id": float64(2), "name": "B"})
	require.NoError(t, err)
	n, err = h.Count(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestHandleDelete(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	ctx := context.Background()

	_, err := h.Add(ctx, "items", Item{"id": "k1", "name": "A"})
	require.NoError(t, err)

	require.NoError(t, h.Delete(ctx, "items", "k1"))

	_, ok, err := h.Get(ctx, "items", "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	assert.NoError(t, h.Delete(ctx, "items", "k1"))
}

func TestHandleClear(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := h.Add(ctx, "items", Item{"id": float64(i), "name": "n"})
		require.NoError(t, err)
	}

	require.NoError(t, h.Clear(ctx, "items"))

	n, err := h.Count(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	all, err := h.GetAll(ctx, "items")
	require.NoError(t, err)
	assert.Empty(t, all)

	// Index entries are gone too.
	byName, err := h.GetAllByIndex(ctx, "items", "nameIndex", "n")
	require.NoError(t, err)
	assert.Empty(t, byName)
}

func TestHandleGetAll(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	ctx := context.Background()

	_, err := h.AddMany(ctx, "items", []Item{
		{"id": float64(1), "name": "A"},
		{"id": float64(2), "name": "B"},
		{"id": float64(3), "name": "B"},
	})
	require.NoError(t, err)

	all, err := h.GetAll(ctx, "items")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0]["name"])
}

func TestHandleGetAllByIndex(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	ctx := context.Background()

	_, err := h.Add(ctx, "items", Item{"id": float64(1), "name": "A"})
	require.NoError(t, err)
	_, err = h.Add(ctx, "items", Item{"id": float64(2), "name": "B"})
	require.NoError(t, err)

	matched, err := h.GetAllByIndex(ctx, "items", "nameIndex", "B")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, Item{"id": float64(2), "name": "B"}, matched[0])

	t.Run("no matches", func(t *testing.T) {
		matched, err := h.GetAllByIndex(ctx, "items", "nameIndex", "C")
		require.NoError(t, err)
		assert.Empty(t, matched)
	})

	t.Run("unknown index", func(t *testing.T) {
		_, err := h.GetAllByIndex(ctx, "items", "noSuchIndex", "B")
		assert.ErrorIs(t, err, ErrNoSuchIndex)
	})

	t.Run("similar values stay distinct", func(t *testing.T) {
		_, err := h.Add(ctx, "items", Item{"id": float64(3), "name": "Bb"})
		require.NoError(t, err)
		matched, err := h.GetAllByIndex(ctx, "items", "nameIndex", "B")
		require.NoError(t, err)
		assert.Len(t, matched, 1)
	})
}

func TestHandleIndexMaintenance(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	ctx := context.Background()

	_, err := h.Add(ctx, "items", Item{"id": float64(1), "name": "old"})
	require.NoError(t, err)

	_, err = h.Put(ctx, "items", Item{"id": float64(1), "name": "new"})
	require.NoError(t, err)

	matched, err := h.GetAllByIndex(ctx, "items", "nameIndex", "old")
	require.NoError(t, err)
	assert.Empty(t, matched)

	matched, err = h.GetAllByIndex(ctx, "items", "nameIndex", "new")
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	require.NoError(t, h.Delete(ctx, "items", 1))
	matched, err = h.GetAllByIndex(ctx, "items", "nameIndex", "new")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestHandleUniqueIndex(t *testing.T) {
	reg := newTestRegistry(t)
	schema := Schema{{
		Name:    "users",
		KeyPath: "id",
		Indexes: []IndexDefinition{
			{Name: "emailIndex", KeyPath: "email", Unique: true},
		},
	}}
	h, err := reg.Open(context.Background(), "uniquedb", 1, schema)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = h.Add(ctx, "users", Item{"id": float64(1), "email": "a@example.com"})
	require.NoError(t, err)

	_, err = h.Add(ctx, "users", Item{"id": float64(2), "email": "a@example.com"})
	assert.ErrorIs(t, err, ErrUniqueConstraint)

	// The failed add must not leave a record behind.
	n, err := h.Count(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Replacing a record with its own email is fine.
	_, err = h.Put(ctx, "users", Item{"id": float64(1), "email": "a@example.com", "note": "same"})
	require.NoError(t, err)

	// Moving the email to a different record's put is still a violation.
	_, err = h.Put(ctx, "users", Item{"id": float64(2), "email": "a@example.com"})
	assert.ErrorIs(t, err, ErrUniqueConstraint)
}

func TestHandleAutoIncrement(t *testing.T) {
	reg := newTestRegistry(t)
	schema := Schema{{Name: "events", KeyPath: "seq", AutoIncrement: true}}
	h, err := reg.Open(context.Background(), "autodb", 1, schema)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		item := Item{"payload": "p"}
		key, err := h.Add(ctx, "events", item)
		require.NoError(t, err)
		assert.Equal(t, float64(i), key)
		// The assigned key is written back into the record.
		assert.Equal(t, float64(i), item["seq"])
	}

	t.Run("explicit keys are respected", func(t *testing.T) {
		key, err := h.Add(ctx, "events", Item{"seq": float64(100), "payload": "x"})
		require.NoError(t, err)
		assert.Equal(t, float64(100), key)
	})

	t.Run("clear preserves the key generator", func(t *testing.T) {
		require.NoError(t, h.Clear(ctx, "events"))
		key, err := h.Add(ctx, "events", Item{"payload": "after clear"})
		require.NoError(t, err)
		assert.Equal(t, float64(4), key)
	})
}

func TestHandleAddManyAtomic(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	ctx := context.Background()

	_, err := h.AddMany(ctx, "items", []Item{
		{"id": float64(1), "name": "ok"},
		{"id": float64(1), "name": "dup"},
	})
	assert.ErrorIs(t, err, ErrKeyExists)

	n, err := h.Count(ctx, "items")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHandleClosed(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	require.NoError(t, h.Close())

	_, err := h.Add(context.Background(), "items", Item{"id": float64(1)})
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = h.Get(context.Background(), "items", 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.Begin(context.Background(), []string{"items"}, ReadWrite)
	assert.ErrorIs(t, err, ErrClosed)

	// Close is idempotent.
	assert.NoError(t, h.Close())
}

func TestHandleCreateIndexOutsideUpgrade(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)

	err := h.CreateIndex("items", "tagIndex", "tag", false)
	assert.ErrorIs(t, err, ErrUpgradeRequired)
}

func TestStringKeys(t *testing.T) {
	reg := newTestRegistry(t)
	h := openItems(t, reg)
	ctx := context.Background()

	_, err := h.Add(ctx, "items", Item{"id": "alpha", "name": "A"})
	require.NoError(t, err)
	_, err = h.Add(ctx, "items", Item{"id": float64(7), "name": "N"})
	require.NoError(t, err)

	got, ok, err := h.Get(ctx, "items", "alpha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", got["name"])

	got, ok, err = h.Get(ctx, "items", 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "N", got["name"])
}

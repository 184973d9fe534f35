package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync/atomic"

	bolt "go.etcd.io/bbolt"
)

// Bucket layout inside one database file:
//
//	__meta           version and the JSON StoreDefinition per store
//	<store>          records, keyed by the encoded key-path value
//	idx!<store>!<i>  index entries: uvarint(len(ik)) ik pk -> pk
const (
	metaBucket     = "__meta"
	metaVersionKey = "version"
	metaStorePfx   = "store!"
	indexBucketPfx = "idx!"
)

// Handle is an open connection to one named, versioned database. Handles are
// obtained from a Registry and are safe for concurrent use; bbolt serializes
// conflicting write transactions underneath.
type Handle struct {
	name    string
	version uint64
	db      *bolt.DB
	defs    map[string]StoreDefinition
	closed  atomic.Bool
	onClose func(*Handle)
}

// Name returns the database name.
func (h *Handle) Name() string { return h.name }

// Version returns the database version the handle was opened at.
func (h *Handle) Version() uint64 { return h.version }

// Stores returns the names of the object stores the database declares.
func (h *Handle) Stores() []string {
	names := make([]string, 0, len(h.defs))
	for name := range h.defs {
		names = append(names, name)
	}
	return names
}

// Close releases the underlying connection. Further calls through the handle
// fail with ErrClosed. In-flight transactions are not cancelled.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	if h.onClose != nil {
		h.onClose(h)
	}
	return h.db.Close()
}

// guard validates that the handle is usable and the store exists.
func (h *Handle) guard(ctx context.Context, op, storeName string) (StoreDefinition, error) {
	if err := ctx.Err(); err != nil {
		return StoreDefinition{}, storeErr(op, storeName, err)
	}
	if h.closed.Load() {
		return StoreDefinition{}, storeErr(op, storeName, ErrClosed)
	}
	def, ok := h.defs[storeName]
	if !ok {
		return StoreDefinition{}, storeErr(op, storeName, fmt.Errorf("%w: %q", ErrNoSuchStore, storeName))
	}
	return def, nil
}

// Add inserts a new record and returns its key. Inserting a key that already
// exists fails with a StoreError wrapping ErrKeyExists.
func (h *Handle) Add(ctx context.Context, storeName string, item Item) (any, error) {
	def, err := h.guard(ctx, "add", storeName)
	if err != nil {
		return nil, err
	}
	var key any
	err = h.db.Update(func(tx *bolt.Tx) error {
		key, err = addItem(tx, def, item)
		return err
	})
	if err != nil {
		return nil, storeErr("add", storeName, err)
	}
	return key, nil
}

// AddMany inserts all records in one write transaction; either every record is
// stored or none is.
func (h *Handle) AddMany(ctx context.Context, storeName string, items []Item) ([]any, error) {
	def, err := h.guard(ctx, "addMany", storeName)
	if err != nil {
		return nil, err
	}
	keys := make([]any, 0, len(items))
	err = h.db.Update(func(tx *bolt.Tx) error {
		for _, item := range items {
			key, err := addItem(tx, def, item)
			if err != nil {
				return err
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("addMany", storeName, err)
	}
	return keys, nil
}

// Get retrieves one record by key. Absence is not an error: ok reports whether
// the key was found.
func (h *Handle) Get(ctx context.Context, storeName string, key any) (Item, bool, error) {
	def, err := h.guard(ctx, "get", storeName)
	if err != nil {
		return nil, false, err
	}
	var (
		item Item
		ok   bool
	)
	err = h.db.View(func(tx *bolt.Tx) error {
		item, ok, err = getItem(tx, def, key)
		return err
	})
	if err != nil {
		return nil, false, storeErr("get", storeName, err)
	}
	return item, ok, nil
}

// GetAll returns every record in the store, in key order.
func (h *Handle) GetAll(ctx context.Context, storeName string) ([]Item, error) {
	def, err := h.guard(ctx, "getAll", storeName)
	if err != nil {
		return nil, err
	}
	var items []Item
	err = h.db.View(func(tx *bolt.Tx) error {
		items, err = getAllItems(tx, def)
		return err
	})
	if err != nil {
		return nil, storeErr("getAll", storeName, err)
	}
	return items, nil
}

// GetAllByIndex returns every record whose indexed field equals value.
func (h *Handle) GetAllByIndex(ctx context.Context, storeName, indexName string, value any) ([]Item, error) {
	def, err := h.guard(ctx, "getAllByIndex", storeName)
	if err != nil {
		return nil, err
	}
	idx, ok := def.index(indexName)
	if !ok {
		return nil, storeErr("getAllByIndex", storeName, fmt.Errorf("%w: %q", ErrNoSuchIndex, indexName))
	}
	var items []Item
	err = h.db.View(func(tx *bolt.Tx) error {
		items, err = itemsByIndex(tx, def, idx, value)
		return err
	})
	if err != nil {
		return nil, storeErr("getAllByIndex", storeName, err)
	}
	return items, nil
}

// Put stores a record, replacing any existing record with the same key, and
// returns the key.
func (h *Handle) Put(ctx context.Context, storeName string, item Item) (any, error) {
	def, err := h.guard(ctx, "put", storeName)
	if err != nil {
		return nil, err
	}
	var key any
	err = h.db.Update(func(tx *bolt.Tx) error {
		key, err = putItem(tx, def, item)
		return err
	})
	if err != nil {
		return nil, storeErr("put", storeName, err)
	}
	return key, nil
}

// Delete removes the record with the given key. Deleting an absent key is not
// an error.
func (h *Handle) Delete(ctx context.Context, storeName string, key any) error {
	def, err := h.guard(ctx, "delete", storeName)
	if err != nil {
		return err
	}
	err = h.db.Update(func(tx *bolt.Tx) error {
		return deleteItem(tx, def, key)
	})
	if err != nil {
		return storeErr("delete", storeName, err)
	}
	return nil
}

// Count returns the number of records in the store.
func (h *Handle) Count(ctx context.Context, storeName string) (int, error) {
	def, err := h.guard(ctx, "count", storeName)
	if err != nil {
		return 0, err
	}
	var n int
	err = h.db.View(func(tx *bolt.Tx) error {
		n, err = countItems(tx, def)
		return err
	})
	if err != nil {
		return 0, storeErr("count", storeName, err)
	}
	return n, nil
}

// Clear removes every record from the store. The key generator is preserved.
func (h *Handle) Clear(ctx context.Context, storeName string) error {
	def, err := h.guard(ctx, "clear", storeName)
	if err != nil {
		return err
	}
	err = h.db.Update(func(tx *bolt.Tx) error {
		return clearItems(tx, def)
	})
	if err != nil {
		return storeErr("clear", storeName, err)
	}
	return nil
}

// CreateIndex always fails: indexes only come into being during a version
// upgrade. Declare the index in the schema and reopen at version+1.
func (h *Handle) CreateIndex(storeName, indexName, keyPath string, unique bool) error {
	return storeErr("createIndex", storeName, fmt.Errorf(
		"%w: declare index %q on store %q in the schema and reopen %q at version %d",
		ErrUpgradeRequired, indexName, storeName, h.name, h.version+1))
}

// Record-level operations, shared by Handle methods and transactions. Each
// takes an open bbolt transaction.

func storeBucket(tx *bolt.Tx, def StoreDefinition) (*bolt.Bucket, error) {
	bkt := tx.Bucket([]byte(def.Name))
	if bkt == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchStore, def.Name)
	}
	return bkt, nil
}

func indexBucketName(storeName, indexName string) []byte {
	return []byte(indexBucketPfx + storeName + "!" + indexName)
}

func addItem(tx *bolt.Tx, def StoreDefinition, item Item) (any, error) {
	bkt, err := storeBucket(tx, def)
	if err != nil {
		return nil, err
	}
	kv, ok := keyValue(item, def.KeyPath)
	if !ok {
		if !def.AutoIncrement {
			return nil, fmt.Errorf("%w: %q", ErrMissingKey, def.KeyPath)
		}
		seq, err := bkt.NextSequence()
		if err != nil {
			return nil, err
		}
		// Assigned keys round-trip through JSON as float64.
		kv = float64(seq)
		item[def.KeyPath] = kv
	}
	pk, err := encodeKey(kv)
	if err != nil {
		return nil, err
	}
	if bkt.Get(pk) != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyExists, kv)
	}
	if err := writeIndexEntries(tx, def, item, pk); err != nil {
		return nil, err
	}
	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	if err := bkt.Put(pk, data); err != nil {
		return nil, err
	}
	return kv, nil
}

func putItem(tx *bolt.Tx, def StoreDefinition, item Item) (any, error) {
	bkt, err := storeBucket(tx, def)
	if err != nil {
		return nil, err
	}
	kv, ok := keyValue(item, def.KeyPath)
	if !ok {
		if !def.AutoIncrement {
			return nil, fmt.Errorf("%w: %q", ErrMissingKey, def.KeyPath)
		}
		seq, err := bkt.NextSequence()
		if err != nil {
			return nil, err
		}
		kv = float64(seq)
		item[def.KeyPath] = kv
	}
	pk, err := encodeKey(kv)
	if err != nil {
		return nil, err
	}
	if old := bkt.Get(pk); old != nil {
		var oldItem Item
		if err := json.Unmarshal(old, &oldItem); err != nil {
			return nil, fmt.Errorf("decode stored record: %w", err)
		}
		if err := deleteIndexEntries(tx, def, oldItem, pk); err != nil {
			return nil, err
		}
	}
	if err := writeIndexEntries(tx, def, item, pk); err != nil {
		return nil, err
	}
	data, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	if err := bkt.Put(pk, data); err != nil {
		return nil, err
	}
	return kv, nil
}

func getItem(tx *bolt.Tx, def StoreDefinition, key any) (Item, bool, error) {
	bkt, err := storeBucket(tx, def)
	if err != nil {
		return nil, false, err
	}
	pk, err := encodeKey(key)
	if err != nil {
		return nil, false, err
	}
	data := bkt.Get(pk)
	if data == nil {
		return nil, false, nil
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, false, fmt.Errorf("decode stored record: %w", err)
	}
	return item, true, nil
}

func getAllItems(tx *bolt.Tx, def StoreDefinition) ([]Item, error) {
	bkt, err := storeBucket(tx, def)
	if err != nil {
		return nil, err
	}
	items := []Item{}
	err = bkt.ForEach(func(k, v []byte) error {
		var item Item
		if err := json.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("decode stored record: %w", err)
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func itemsByIndex(tx *bolt.Tx, def StoreDefinition, idx IndexDefinition, value any) ([]Item, error) {
	bkt, err := storeBucket(tx, def)
	if err != nil {
		return nil, err
	}
	ibkt := tx.Bucket(indexBucketName(def.Name, idx.Name))
	if ibkt == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchIndex, idx.Name)
	}
	prefix, err := indexKeyPrefix(value)
	if err != nil {
		return nil, err
	}
	var items []Item
	c := ibkt.Cursor()
	for k, pk := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, pk = c.Next() {
		data := bkt.Get(pk)
		if data == nil {
			continue
		}
		var item Item
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("decode stored record: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func deleteItem(tx *bolt.Tx, def StoreDefinition, key any) error {
	bkt, err := storeBucket(tx, def)
	if err != nil {
		return err
	}
	pk, err := encodeKey(key)
	if err != nil {
		return err
	}
	old := bkt.Get(pk)
	if old == nil {
		return nil
	}
	var oldItem Item
	if err := json.Unmarshal(old, &oldItem); err != nil {
		return fmt.Errorf("decode stored record: %w", err)
	}
	if err := deleteIndexEntries(tx, def, oldItem, pk); err != nil {
		return err
	}
	return bkt.Delete(pk)
}

func countItems(tx *bolt.Tx, def StoreDefinition) (int, error) {
	bkt, err := storeBucket(tx, def)
	if err != nil {
		return 0, err
	}
	n := 0
	c := bkt.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n, nil
}

func clearItems(tx *bolt.Tx, def StoreDefinition) error {
	bkt, err := storeBucket(tx, def)
	if err != nil {
		return err
	}
	seq := bkt.Sequence()
	if err := tx.DeleteBucket([]byte(def.Name)); err != nil {
		return err
	}
	fresh, err := tx.CreateBucket([]byte(def.Name))
	if err != nil {
		return err
	}
	if err := fresh.SetSequence(seq); err != nil {
		return err
	}
	for _, idx := range def.Indexes {
		name := indexBucketName(def.Name, idx.Name)
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		if _, err := tx.CreateBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// indexKeyPrefix builds the length-prefixed encoded index value that every
// entry for that value starts with.
func indexKeyPrefix(value any) ([]byte, error) {
	ik, err := encodeKey(value)
	if err != nil {
		return nil, err
	}
	prefix := binary.AppendUvarint(nil, uint64(len(ik)))
	return append(prefix, ik...), nil
}

// writeIndexEntries inserts one entry per declared index that the item has an
// indexable value for, enforcing unique constraints. Fields holding values
// that cannot serve as keys (objects, arrays, booleans, null) are skipped.
func writeIndexEntries(tx *bolt.Tx, def StoreDefinition, item Item, pk []byte) error {
	for _, idx := range def.Indexes {
		v, present := item[idx.KeyPath]
		if !present || v == nil {
			continue
		}
		prefix, err := indexKeyPrefix(v)
		if err != nil {
			continue
		}
		ibkt := tx.Bucket(indexBucketName(def.Name, idx.Name))
		if ibkt == nil {
			return fmt.Errorf("%w: %q", ErrNoSuchIndex, idx.Name)
		}
		if idx.Unique {
			c := ibkt.Cursor()
			for k, existing := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, existing = c.Next() {
				if !bytes.Equal(existing, pk) {
					return fmt.Errorf("%w: index %q value %v", ErrUniqueConstraint, idx.Name, v)
				}
			}
		}
		entry := append(append([]byte{}, prefix...), pk...)
		if err := ibkt.Put(entry, pk); err != nil {
			return err
		}
	}
	return nil
}

// deleteIndexEntries removes the entries a stored item contributed.
func deleteIndexEntries(tx *bolt.Tx, def StoreDefinition, item Item, pk []byte) error {
	for _, idx := range def.Indexes {
		v, present := item[idx.KeyPath]
		if !present || v == nil {
			continue
		}
		prefix, err := indexKeyPrefix(v)
		if err != nil {
			continue
		}
		ibkt := tx.Bucket(indexBucketName(def.Name, idx.Name))
		if ibkt == nil {
			continue
		}
		entry := append(append([]byte{}, prefix...), pk...)
		if err := ibkt.Delete(entry); err != nil {
			return err
		}
	}
	return nil
}

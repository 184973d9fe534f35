package store

import (
	"context"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

// Mode selects the access mode of an explicit transaction.
type Mode int

const (
	ReadOnly Mode = iota
	ReadWrite
)

func (m Mode) String() string {
	if m == ReadWrite {
		return "readwrite"
	}
	return "readonly"
}

// Txn is an explicit transaction over a declared set of object stores.
// Operations on stores the transaction did not declare fail, writes in a
// read-only transaction fail, and a finished transaction rejects everything.
// A Txn must end in exactly one Commit or Rollback.
type Txn struct {
	handle *Handle
	tx     *bolt.Tx
	mode   Mode

	mu     sync.Mutex
	stores map[string]StoreDefinition
	done   bool
}

// Begin starts a transaction covering the named stores. bbolt allows one
// writable transaction at a time; a second ReadWrite Begin blocks until the
// first finishes.
func (h *Handle) Begin(ctx context.Context, storeNames []string, mode Mode) (*Txn, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("beginTransaction", "", err)
	}
	if h.closed.Load() {
		return nil, storeErr("beginTransaction", "", ErrClosed)
	}
	if len(storeNames) == 0 {
		return nil, storeErr("beginTransaction", "", fmt.Errorf("transaction declares no stores"))
	}
	stores := make(map[string]StoreDefinition, len(storeNames))
	for _, name := range storeNames {
		def, ok := h.defs[name]
		if !ok {
			return nil, storeErr("beginTransaction", name, fmt.Errorf("%w: %q", ErrNoSuchStore, name))
		}
		stores[name] = def
	}

	tx, err := h.db.Begin(mode == ReadWrite)
	if err != nil {
		return nil, storeErr("beginTransaction", "", err)
	}
	return &Txn{handle: h, tx: tx, mode: mode, stores: stores}, nil
}

// guard validates transaction state and resolves the store definition.
func (t *Txn) guard(op, storeName string, write bool) (StoreDefinition, error) {
	if t.done {
		return StoreDefinition{}, storeErr(op, storeName, ErrTxnDone)
	}
	if write && t.mode != ReadWrite {
		return StoreDefinition{}, storeErr(op, storeName, ErrReadOnlyTxn)
	}
	def, ok := t.stores[storeName]
	if !ok {
		return StoreDefinition{}, storeErr(op, storeName, fmt.Errorf("%w: %q", ErrStoreNotInTxn, storeName))
	}
	return def, nil
}

// Add inserts a new record and returns its key.
func (t *Txn) Add(storeName string, item Item) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, err := t.guard("add", storeName, true)
	if err != nil {
		return nil, err
	}
	key, err := addItem(t.tx, def, item)
	if err != nil {
		return nil, storeErr("add", storeName, err)
	}
	return key, nil
}

// Get retrieves one record by key; ok reports whether it was found.
func (t *Txn) Get(storeName string, key any) (Item, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, err := t.guard("get", storeName, false)
	if err != nil {
		return nil, false, err
	}
	item, ok, err := getItem(t.tx, def, key)
	if err != nil {
		return nil, false, storeErr("get", storeName, err)
	}
	return item, ok, nil
}

// GetAll returns every record in the store.
func (t *Txn) GetAll(storeName string) ([]Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, err := t.guard("getAll", storeName, false)
	if err != nil {
		return nil, err
	}
	items, err := getAllItems(t.tx, def)
	if err != nil {
		return nil, storeErr("getAll", storeName, err)
	}
	return items, nil
}

// GetAllByIndex returns every record whose indexed field equals value.
func (t *Txn) GetAllByIndex(storeName, indexName string, value any) ([]Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, err := t.guard("getAllByIndex", storeName, false)
	if err != nil {
		return nil, err
	}
	idx, ok := def.index(indexName)
	if !ok {
		return nil, storeErr("getAllByIndex", storeName, fmt.Errorf("%w: %q", ErrNoSuchIndex, indexName))
	}
	items, err := itemsByIndex(t.tx, def, idx, value)
	if err != nil {
		return nil, storeErr("getAllByIndex", storeName, err)
	}
	return items, nil
}

// Put stores a record, replacing any existing record with the same key.
func (t *Txn) Put(storeName string, item Item) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, err := t.guard("put", storeName, true)
	if err != nil {
		return nil, err
	}
	key, err := putItem(t.tx, def, item)
	if err != nil {
		return nil, storeErr("put", storeName, err)
	}
	return key, nil
}

// Delete removes the record with the given key.
func (t *Txn) Delete(storeName string, key any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, err := t.guard("delete", storeName, true)
	if err != nil {
		return err
	}
	if err := deleteItem(t.tx, def, key); err != nil {
		return storeErr("delete", storeName, err)
	}
	return nil
}

// Count returns the number of records in the store.
func (t *Txn) Count(storeName string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, err := t.guard("count", storeName, false)
	if err != nil {
		return 0, err
	}
	n, err := countItems(t.tx, def)
	if err != nil {
		return 0, storeErr("count", storeName, err)
	}
	return n, nil
}

// Clear removes every record from the store.
func (t *Txn) Clear(storeName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	def, err := t.guard("clear", storeName, true)
	if err != nil {
		return err
	}
	if err := clearItems(t.tx, def); err != nil {
		return storeErr("clear", storeName, err)
	}
	return nil
}

// Commit makes the transaction's writes durable.
func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return storeErr("commitTransaction", "", ErrTxnDone)
	}
	t.done = true
	if t.mode != ReadWrite {
		return t.tx.Rollback()
	}
	if err := t.tx.Commit(); err != nil {
		return storeErr("commitTransaction", "", err)
	}
	return nil
}

// Rollback discards the transaction.
func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return storeErr("rollbackTransaction", "", err)
	}
	return nil
}

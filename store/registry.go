package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const dbFileExt = ".db"

// DatabaseInfo names one database on disk together with its stored version.
type DatabaseInfo struct {
	Name    string `json:"name"`
	Version uint64 `json:"version"`
}

// Registry owns every open database handle. It is the application's single
// connection cache: at most one handle exists per database name, and a second
// Open racing a pending one awaits the first caller's result instead of
// issuing a second native open. Construct one Registry in the composition
// root and pass it down.
type Registry struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	opens map[string]*openCall
}

// openCall is the shared result of one native open. It doubles as the cache
// entry once done is closed.
type openCall struct {
	done   chan struct{}
	handle *Handle
	err    error
}

// NewRegistry creates a registry storing database files under dir.
func NewRegistry(dir string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Registry{
		dir:    dir,
		logger: logger,
		opens:  make(map[string]*openCall),
	}, nil
}

// Open returns a handle to the named database at the requested version,
// creating the file on first use. When the stored version is lower than
// requested, the schema is applied inside the same write transaction that
// bumps the version. Opening at a version lower than stored fails with an
// OpenError wrapping ErrVersionConflict. Concurrent opens of the same name
// share one native open.
func (r *Registry) Open(ctx context.Context, name string, version uint64, schema Schema) (*Handle, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, &OpenError{Database: name, Err: fmt.Errorf("invalid database name")}
	}
	if version == 0 {
		return nil, &OpenError{Database: name, Err: fmt.Errorf("version must be at least 1")}
	}
	if err := schema.Validate(); err != nil {
		return nil, &OpenError{Database: name, Err: err}
	}

	for {
		r.mu.Lock()
		if c, ok := r.opens[name]; ok {
			r.mu.Unlock()
			select {
			case <-c.done:
			case <-ctx.Done():
				return nil, &OpenError{Database: name, Err: ctx.Err()}
			}
			if c.err != nil {
				return nil, c.err
			}
			h := c.handle
			if h.closed.Load() {
				// Stale cache entry, reopen.
				r.evict(name, c)
				continue
			}
			if h.version == version {
				return h, nil
			}
			if h.version > version {
				return nil, &OpenError{Database: name, Err: fmt.Errorf("%w: stored %d, requested %d", ErrVersionConflict, h.version, version)}
			}
			// Upgrade requested: release the current connection and reopen.
			r.evict(name, c)
			if err := h.Close(); err != nil {
				return nil, &OpenError{Database: name, Err: err}
			}
			continue
		}

		c := &openCall{done: make(chan struct{})}
		r.opens[name] = c
		r.mu.Unlock()

		h, err := r.openDatabase(name, version, schema)
		c.handle, c.err = h, err
		close(c.done)
		if err != nil {
			r.evict(name, c)
			return nil, err
		}
		r.logger.Debug("database opened",
			slog.String("database", name),
			slog.Uint64("version", h.version))
		return h, nil
	}
}

// evict drops the cache entry if it still belongs to c.
func (r *Registry) evict(name string, c *openCall) {
	r.mu.Lock()
	if r.opens[name] == c {
		delete(r.opens, name)
	}
	r.mu.Unlock()
}

func (r *Registry) path(name string) string {
	return filepath.Join(r.dir, name+dbFileExt)
}

// openDatabase performs the native open and, when needed, the version upgrade.
func (r *Registry) openDatabase(name string, version uint64, schema Schema) (*Handle, error) {
	db, err := bolt.Open(r.path(name), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, &OpenError{Database: name, Err: err}
	}

	var (
		stored uint64
		defs   map[string]StoreDefinition
	)
	err = db.View(func(tx *bolt.Tx) error {
		stored, defs, err = readMeta(tx)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &OpenError{Database: name, Err: err}
	}

	if version < stored {
		db.Close()
		return nil, &OpenError{Database: name, Err: fmt.Errorf("%w: stored %d, requested %d", ErrVersionConflict, stored, version)}
	}

	if version > stored {
		err = db.Update(func(tx *bolt.Tx) error {
			defs, err = applySchema(tx, schema, defs, version)
			return err
		})
		if err != nil {
			db.Close()
			return nil, &UpgradeError{Database: name, Version: version, Err: err}
		}
		r.logger.Info("database upgraded",
			slog.String("database", name),
			slog.Uint64("from", stored),
			slog.Uint64("to", version))
	}

	h := &Handle{
		name:    name,
		version: version,
		db:      db,
		defs:    defs,
	}
	h.onClose = func(closed *Handle) {
		r.mu.Lock()
		if c, ok := r.opens[name]; ok && c.handle == closed {
			delete(r.opens, name)
		}
		r.mu.Unlock()
	}
	return h, nil
}

// Databases lists every database file under the registry directory with its
// stored version.
func (r *Registry) Databases(ctx context.Context) ([]DatabaseInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}

	var infos []DatabaseInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), dbFileExt) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), dbFileExt)
		version, err := r.storedVersion(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, DatabaseInfo{Name: name, Version: version})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// storedVersion reads a database version, preferring a cached open handle over
// touching the file.
func (r *Registry) storedVersion(name string) (uint64, error) {
	r.mu.Lock()
	c, ok := r.opens[name]
	r.mu.Unlock()
	if ok {
		select {
		case <-c.done:
			if c.err == nil && !c.handle.closed.Load() {
				return c.handle.version, nil
			}
		default:
		}
	}

	db, err := bolt.Open(r.path(name), 0o600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return 0, &OpenError{Database: name, Err: err}
	}
	defer db.Close()

	var version uint64
	err = db.View(func(tx *bolt.Tx) error {
		version, _, err = readMeta(tx)
		return err
	})
	if err != nil {
		return 0, &OpenError{Database: name, Err: err}
	}
	return version, nil
}

// DeleteDatabase closes any cached handle for the database and removes its
// file. Deleting an absent database is not an error.
func (r *Registry) DeleteDatabase(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	c, ok := r.opens[name]
	if ok {
		delete(r.opens, name)
	}
	r.mu.Unlock()
	if ok {
		<-c.done
		if c.err == nil {
			if err := c.handle.Close(); err != nil {
				return err
			}
		}
	}
	if err := os.Remove(r.path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete database %q: %w", name, err)
	}
	return nil
}

// Close releases every cached handle.
func (r *Registry) Close() error {
	r.mu.Lock()
	calls := make([]*openCall, 0, len(r.opens))
	for name, c := range r.opens {
		delete(r.opens, name)
		calls = append(calls, c)
	}
	r.mu.Unlock()

	var firstErr error
	for _, c := range calls {
		<-c.done
		if c.err != nil {
			continue
		}
		if err := c.handle.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// readMeta loads the stored version and store definitions, tolerating a
// freshly created file with no meta bucket yet.
func readMeta(tx *bolt.Tx) (uint64, map[string]StoreDefinition, error) {
	defs := make(map[string]StoreDefinition)
	meta := tx.Bucket([]byte(metaBucket))
	if meta == nil {
		return 0, defs, nil
	}
	var version uint64
	if v := meta.Get([]byte(metaVersionKey)); len(v) == 8 {
		version = binary.BigEndian.Uint64(v)
	}
	err := meta.ForEach(func(k, v []byte) error {
		if !strings.HasPrefix(string(k), metaStorePfx) {
			return nil
		}
		var def StoreDefinition
		if err := json.Unmarshal(v, &def); err != nil {
			return fmt.Errorf("decode store definition %q: %w", k, err)
		}
		defs[def.Name] = def
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return version, defs, nil
}

// applySchema runs the upgrade: it creates missing stores, reconciles index
// sets (new indexes are backfilled from existing records, omitted ones are
// dropped), persists the definitions, and bumps the version. Stores absent
// from the schema are left untouched.
func applySchema(tx *bolt.Tx, schema Schema, prev map[string]StoreDefinition, version uint64) (map[string]StoreDefinition, error) {
	meta, err := tx.CreateBucketIfNotExists([]byte(metaBucket))
	if err != nil {
		return nil, err
	}

	defs := make(map[string]StoreDefinition, len(prev)+len(schema))
	for name, def := range prev {
		defs[name] = def
	}

	for _, def := range schema {
		old, existed := prev[def.Name]
		if existed && old.KeyPath != def.KeyPath {
			return nil, fmt.Errorf("store %q: key path cannot change (was %q, now %q)", def.Name, old.KeyPath, def.KeyPath)
		}
		bkt, err := tx.CreateBucketIfNotExists([]byte(def.Name))
		if err != nil {
			return nil, err
		}

		oldIndexes := make(map[string]IndexDefinition)
		if existed {
			for _, idx := range old.Indexes {
				oldIndexes[idx.Name] = idx
			}
		}
		for _, idx := range def.Indexes {
			name := indexBucketName(def.Name, idx.Name)
			prevIdx, had := oldIndexes[idx.Name]
			delete(oldIndexes, idx.Name)
			if had && prevIdx == idx {
				continue
			}
			if had {
				// Redefined index: rebuild from scratch.
				if err := tx.DeleteBucket(name); err != nil {
					return nil, err
				}
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return nil, err
			}
			if err := backfillIndex(tx, def, idx, bkt); err != nil {
				return nil, err
			}
		}
		// Indexes dropped from the declaration go away with their buckets.
		for name := range oldIndexes {
			if err := tx.DeleteBucket(indexBucketName(def.Name, name)); err != nil {
				return nil, err
			}
		}

		data, err := json.Marshal(def)
		if err != nil {
			return nil, err
		}
		if err := meta.Put([]byte(metaStorePfx+def.Name), data); err != nil {
			return nil, err
		}
		defs[def.Name] = def
	}

	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, version)
	if err := meta.Put([]byte(metaVersionKey), buf); err != nil {
		return nil, err
	}
	return defs, nil
}

// backfillIndex populates a new index from records already in the store.
func backfillIndex(tx *bolt.Tx, def StoreDefinition, idx IndexDefinition, bkt *bolt.Bucket) error {
	one := StoreDefinition{Name: def.Name, KeyPath: def.KeyPath, Indexes: []IndexDefinition{idx}}
	return bkt.ForEach(func(pk, data []byte) error {
		var item Item
		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("decode stored record: %w", err)
		}
		return writeIndexEntries(tx, one, item, pk)
	})
}

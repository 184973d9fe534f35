package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Repository binds one (database, store) pair to entity type T. It derives the
// store definition from T's struct tags once, opens the database through the
// registry on demand (the registry caches the handle), and serializes T to and
// from the generic item shape.
type Repository[T any] struct {
	reg      *Registry
	database string
	version  uint64
	def      StoreDefinition
}

// NewRepository creates a typed repository for T. The database is opened
// lazily on first use at the given version, with T's derived definition as
// its schema.
func NewRepository[T any](reg *Registry, database, storeName string, version uint64) (*Repository[T], error) {
	def, err := DefinitionFor[T](storeName)
	if err != nil {
		return nil, err
	}
	return &Repository[T]{
		reg:      reg,
		database: database,
		version:  version,
		def:      def,
	}, nil
}

// Definition returns the derived store definition.
func (r *Repository[T]) Definition() StoreDefinition { return r.def }

func (r *Repository[T]) handle(ctx context.Context) (*Handle, error) {
	return r.reg.Open(ctx, r.database, r.version, Schema{r.def})
}

// Add inserts a new entity. A nil entity fails with an ArgumentError; when the
// store auto-increments, the assigned key is written back into the entity.
func (r *Repository[T]) Add(ctx context.Context, entity *T) error {
	if entity == nil {
		return &ArgumentError{Name: "entity", Message: "must not be nil"}
	}
	h, err := r.handle(ctx)
	if err != nil {
		return err
	}
	item, err := toItem(entity)
	if err != nil {
		return err
	}
	if _, err := h.Add(ctx, r.def.Name, item); err != nil {
		return err
	}
	return fromItem(item, entity)
}

// AddMany inserts all entities atomically.
func (r *Repository[T]) AddMany(ctx context.Context, entities []*T) error {
	items := make([]Item, len(entities))
	for i, e := range entities {
		if e == nil {
			return &ArgumentError{Name: "entities", Message: fmt.Sprintf("element %d must not be nil", i)}
		}
		item, err := toItem(e)
		if err != nil {
			return err
		}
		items[i] = item
	}
	h, err := r.handle(ctx)
	if err != nil {
		return err
	}
	if _, err := h.AddMany(ctx, r.def.Name, items); err != nil {
		return err
	}
	for i := range entities {
		if err := fromItem(items[i], entities[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetOne retrieves an entity by key; found reports whether it exists.
func (r *Repository[T]) GetOne(ctx context.Context, key any) (*T, bool, error) {
	h, err := r.handle(ctx)
	if err != nil {
		return nil, false, err
	}
	item, ok, err := h.Get(ctx, r.def.Name, key)
	if err != nil || !ok {
		return nil, false, err
	}
	entity := new(T)
	if err := fromItem(item, entity); err != nil {
		return nil, false, err
	}
	return entity, true, nil
}

// GetAll returns every stored entity.
func (r *Repository[T]) GetAll(ctx context.Context) ([]T, error) {
	h, err := r.handle(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.GetAll(ctx, r.def.Name)
	if err != nil {
		return nil, err
	}
	return decodeItems[T](items)
}

// GetAllByIndex returns every entity whose indexed field equals value.
func (r *Repository[T]) GetAllByIndex(ctx context.Context, indexName string, value any) ([]T, error) {
	h, err := r.handle(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.GetAllByIndex(ctx, r.def.Name, indexName, value)
	if err != nil {
		return nil, err
	}
	return decodeItems[T](items)
}

// Update stores an entity, replacing any existing record with the same key.
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return &ArgumentError{Name: "entity", Message: "must not be nil"}
	}
	h, err := r.handle(ctx)
	if err != nil {
		return err
	}
	item, err := toItem(entity)
	if err != nil {
		return err
	}
	if _, err := h.Put(ctx, r.def.Name, item); err != nil {
		return err
	}
	return fromItem(item, entity)
}

// Delete removes the entity with the given key.
func (r *Repository[T]) Delete(ctx context.Context, key any) error {
	h, err := r.handle(ctx)
	if err != nil {
		return err
	}
	return h.Delete(ctx, r.def.Name, key)
}

// Count returns the number of stored entities.
func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	h, err := r.handle(ctx)
	if err != nil {
		return 0, err
	}
	return h.Count(ctx, r.def.Name)
}

// Clear removes every stored entity.
func (r *Repository[T]) Clear(ctx context.Context) error {
	h, err := r.handle(ctx)
	if err != nil {
		return err
	}
	return h.Clear(ctx, r.def.Name)
}

// toItem serializes an entity into the generic item shape.
func toItem[T any](entity *T) (Item, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("serialize entity: %w", err)
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("serialize entity: %w", err)
	}
	return item, nil
}

// fromItem deserializes an item back into an entity.
func fromItem[T any](item Item, entity *T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("deserialize entity: %w", err)
	}
	if err := json.Unmarshal(data, entity); err != nil {
		return fmt.Errorf("deserialize entity: %w", err)
	}
	return nil
}

func decodeItems[T any](items []Item) ([]T, error) {
	entities := make([]T, len(items))
	for i, item := range items {
		if err := fromItem(item, &entities[i]); err != nil {
			return nil, err
		}
	}
	return entities, nil
}

package store

import (
	"fmt"
	"reflect"
	"strings"
)

// IndexDefinition describes one secondary index over a non-key field of a store.
type IndexDefinition struct {
	Name    string `json:"name"`
	KeyPath string `json:"key_path"`
	Unique  bool   `json:"unique"`
}

// StoreDefinition describes one object store: its primary key-path, whether keys
// are assigned from a sequence, and its secondary indexes. Definitions are
// consumed only at upgrade time; they are persisted in the database meta bucket.
type StoreDefinition struct {
	Name          string            `json:"name"`
	KeyPath       string            `json:"key_path"`
	AutoIncrement bool              `json:"auto_increment"`
	Indexes       []IndexDefinition `json:"indexes,omitempty"`
}

// Schema is the full set of stores a database declares at a given version.
type Schema []StoreDefinition

// Validate checks a definition for the invariants the engine relies on.
func (d StoreDefinition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("store definition has no name")
	}
	if d.KeyPath == "" {
		return fmt.Errorf("store %q has no key path", d.Name)
	}
	seen := make(map[string]bool, len(d.Indexes))
	for _, idx := range d.Indexes {
		if idx.Name == "" || idx.KeyPath == "" {
			return fmt.Errorf("store %q has an index with an empty name or key path", d.Name)
		}
		if idx.KeyPath == d.KeyPath {
			return fmt.Errorf("store %q: index %q may not cover the key path", d.Name, idx.Name)
		}
		if seen[idx.Name] {
			return fmt.Errorf("store %q declares index %q twice", d.Name, idx.Name)
		}
		seen[idx.Name] = true
	}
	return nil
}

// Validate checks every definition and rejects duplicate store names.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, d := range s {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Name] {
			return fmt.Errorf("schema declares store %q twice", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// index returns the named index definition, if declared.
func (d StoreDefinition) index(name string) (IndexDefinition, bool) {
	for _, idx := range d.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDefinition{}, false
}

// tagName is the struct tag inspected by DefinitionFor.
const tagName = "shelf"

// DefinitionFor derives a StoreDefinition for entity type T from its struct tags.
//
// Exactly one field must carry `shelf:"key"` (optionally `shelf:"key,autoincr"`);
// any number of fields may carry `shelf:"index"` or `shelf:"index,unique"`. The
// stored field name is taken from the json tag, falling back to the Go field name.
// The derived index name is the field name with an "Index" suffix, e.g. a field
// stored as "name" yields index "nameIndex".
func DefinitionFor[T any](storeName string) (StoreDefinition, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return StoreDefinition{}, fmt.Errorf("derive store definition for %s: not a struct type", t)
	}

	def := StoreDefinition{Name: storeName}
	keyFields := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup(tagName)
		if !ok || tag == "" || tag == "-" {
			continue
		}
		if !f.IsExported() {
			return StoreDefinition{}, fmt.Errorf("derive store definition for %s: tagged field %s is unexported", t, f.Name)
		}

		parts := strings.Split(tag, ",")
		opts := parts[1:]
		fieldName := jsonFieldName(f)

		switch parts[0] {
		case "key":
			keyFields++
			def.KeyPath = fieldName
			def.AutoIncrement = hasOpt(opts, "autoincr")
		case "index":
			def.Indexes = append(def.Indexes, IndexDefinition{
				Name:    fieldName + "Index",
				KeyPath: fieldName,
				Unique:  hasOpt(opts, "unique"),
			})
		default:
			return StoreDefinition{}, fmt.Errorf("derive store definition for %s: field %s has unknown %s tag %q", t, f.Name, tagName, parts[0])
		}
	}

	if keyFields == 0 {
		return StoreDefinition{}, fmt.Errorf("derive store definition for %s: no field tagged %s:\"key\"", t, tagName)
	}
	if keyFields > 1 {
		return StoreDefinition{}, fmt.Errorf("derive store definition for %s: %d fields tagged %s:\"key\", want exactly one", t, keyFields, tagName)
	}
	if err := def.Validate(); err != nil {
		return StoreDefinition{}, fmt.Errorf("derive store definition for %s: %w", t, err)
	}
	return def, nil
}

// jsonFieldName returns the name the field takes in the serialized record.
func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return f.Name
	}
	return name
}

func hasOpt(opts []string, want string) bool {
	for _, o := range opts {
		if o == want {
			return true
		}
	}
	return false
}

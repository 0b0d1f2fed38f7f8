// Package docstore is an in-memory document store that evaluates the
// filters produced by querydoc. It backs the document target of the CLI and
// checks that compiled filters select the documents a query describes.
package docstore

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Flushot/sqlparse/internal/document"
	"github.com/Flushot/sqlparse/internal/querydoc"
)

// Collection holds documents in insertion order.
type Collection struct {
	mu   sync.RWMutex
	name string
	key  string
	docs []document.Object
	keys map[string]struct{}
}

// NewCollection returns an empty collection. When key is non-empty,
// documents are unique by the canonical JSON of that field.
func NewCollection(name, key string) *Collection {
	return &Collection{name: name, key: key, keys: map[string]struct{}{}}
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Len returns the number of stored documents.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Insert appends docs. A document whose key is already stored is skipped,
// and a document missing the key field is rejected. It returns the number
// of documents added.
func (c *Collection) Insert(docs ...document.Object) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for i, doc := range docs {
		if c.key != "" {
			k, ok := doc[c.key]
			if !ok {
				return added, fmt.Errorf("insert into %s: document %d has no %q field", c.name, i, c.key)
			}
			id, err := document.MarshalCanonical(k)
			if err != nil {
				return added, fmt.Errorf("insert into %s: document %d: %w", c.name, i, err)
			}
			if _, dup := c.keys[string(id)]; dup {
				continue
			}
			c.keys[string(id)] = struct{}{}
		}
		c.docs = append(c.docs, doc)
		added++
	}
	return added, nil
}

// InsertNative converts rows of plain Go values and inserts them.
func (c *Collection) InsertNative(rows ...map[string]any) (int, error) {
	docs := make([]document.Object, len(rows))
	for i, r := range rows {
		v, err := document.FromNative(r)
		if err != nil {
			return 0, fmt.Errorf("insert into %s: document %d: %w", c.name, i, err)
		}
		docs[i] = v.(document.Object)
	}
	return c.Insert(docs...)
}

// Find returns the documents matching filter in insertion order. A nil
// projection returns whole documents; otherwise only the fields set in
// projection are copied.
func (c *Collection) Find(filter, projection document.Object) ([]document.Object, error) {
	match, err := Compile(filter)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.name, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []document.Object{}
	for _, doc := range c.docs {
		if match(doc) {
			out = append(out, project(doc, projection))
		}
	}
	return out, nil
}

func project(doc, projection document.Object) document.Object {
	if projection == nil {
		return doc
	}
	out := make(document.Object, len(projection))
	for field := range projection {
		if v, ok := doc[field]; ok {
			out[field] = v
		}
	}
	return out
}

// Database is a set of named collections.
type Database struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{collections: map[string]*Collection{}}
}

// Collection returns the named collection, creating it with key when it
// does not exist yet.
func (db *Database) Collection(name, key string) *Collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.collections[name]
	if !ok {
		c = NewCollection(name, key)
		db.collections[name] = c
	}
	return c
}

// Names returns the collection names in sorted order.
func (db *Database) Names() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	names := make([]string, 0, len(db.collections))
	for n := range db.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Find runs a compiled statement against its collection. An unknown
// collection holds no documents.
func (db *Database) Find(res *querydoc.Result) ([]document.Object, error) {
	db.mu.Lock()
	c, ok := db.collections[res.Collection]
	db.mu.Unlock()

	if !ok {
		if _, err := Compile(res.Filter); err != nil {
			return nil, fmt.Errorf("find in %s: %w", res.Collection, err)
		}
		return []document.Object{}, nil
	}
	return c.Find(res.Filter, res.Projection)
}

package docstore

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Flushot/sqlparse/internal/document"
)

// SnapshotVersion is written into every snapshot. ReadSnapshot rejects
// other versions.
const SnapshotVersion = 1

// A snapshot is a zstd-compressed MessagePack stream of snapshotFile.
// Decimals travel as MessagePack bin holding their text form, so they
// survive without going through a float; strings use str.
type snapshotFile struct {
	Version     int                  `msgpack:"version"`
	Collections []snapshotCollection `msgpack:"collections"`
}

type snapshotCollection struct {
	Name string           `msgpack:"name"`
	Key  string           `msgpack:"key,omitempty"`
	Docs []map[string]any `msgpack:"docs"`
}

// WriteSnapshot writes every collection, in name order, to w.
func (db *Database) WriteSnapshot(w io.Writer) error {
	snap := snapshotFile{Version: SnapshotVersion, Collections: []snapshotCollection{}}
	for _, name := range db.Names() {
		db.mu.Lock()
		c := db.collections[name]
		db.mu.Unlock()

		c.mu.RLock()
		sc := snapshotCollection{Name: c.name, Key: c.key, Docs: make([]map[string]any, len(c.docs))}
		for i, doc := range c.docs {
			sc.Docs[i] = toSnapshot(doc).(map[string]any)
		}
		c.mu.RUnlock()
		snap.Collections = append(snap.Collections, sc)
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if err := msgpack.NewEncoder(zw).Encode(&snap); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return zw.Close()
}

// ReadSnapshot loads a database written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Database, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer zr.Close()

	dec := msgpack.NewDecoder(zr)
	dec.UseLooseInterfaceDecoding(true)

	var snap snapshotFile
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	db := NewDatabase()
	for _, sc := range snap.Collections {
		docs := make([]document.Object, len(sc.Docs))
		for i, raw := range sc.Docs {
			v, err := fromSnapshot(raw)
			if err != nil {
				return nil, fmt.Errorf("collection %s: document %d: %w", sc.Name, i, err)
			}
			docs[i] = v.(document.Object)
		}
		if _, err := db.Collection(sc.Name, sc.Key).Insert(docs...); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func toSnapshot(v document.Value) any {
	switch val := v.(type) {
	case document.Decimal:
		return []byte(val.D.Text('f'))
	case document.Array:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = toSnapshot(e)
		}
		return out
	case document.Object:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = toSnapshot(e)
		}
		return out
	}
	return document.ToNative(v)
}

var errIntRange = errors.New("integer out of range")

func fromSnapshot(v any) (document.Value, error) {
	switch val := v.(type) {
	case []byte:
		return document.ParseDecimal(string(val))
	case uint64:
		if val > math.MaxInt64 {
			return nil, errIntRange
		}
		return document.Int(int64(val)), nil
	case int8:
		return document.Int(val), nil
	case int16:
		return document.Int(val), nil
	case int32:
		return document.Int(val), nil
	case uint8:
		return document.Int(val), nil
	case uint16:
		return document.Int(val), nil
	case uint32:
		return document.Int(val), nil
	case []any:
		arr := make(document.Array, len(val))
		for i, e := range val {
			ev, err := fromSnapshot(e)
			if err != nil {
				return nil, err
			}
			arr[i] = ev
		}
		return arr, nil
	case map[string]any:
		obj := make(document.Object, len(val))
		for k, e := range val {
			ev, err := fromSnapshot(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			obj[k] = ev
		}
		return obj, nil
	}
	// nil, bool, string and int64 map directly.
	return document.FromNative(v)
}

package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Entry is one cached compilation result.
type Entry struct {
	// SQL is the compiled DDL text.
	SQL string
	// ETag is the source content tag the DDL was compiled from.
	ETag string
	// Generated records when the entry was written.
	Generated time.Time
}

// Cache stores compiled DDL on disk, keyed by table, dialect and the source
// content tag. Recompiling a schema whose source has not changed becomes a
// single read; a stale ETag simply misses. Entries are msgpack-encoded.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir, creating it if needed.
func NewCache(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// Get returns the cached DDL for (table, dialect, etag), or ok=false on a
// miss. A cache entry whose recorded ETag no longer matches is a miss.
func (c *Cache) Get(table, dialect, etag string) (string, bool, error) {
	data, err := os.ReadFile(c.path(table, dialect, etag))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		// A corrupt entry is treated as a miss; the caller recompiles.
		return "", false, nil
	}
	if e.ETag != etag {
		return "", false, nil
	}
	return e.SQL, true, nil
}

// Put stores compiled DDL for (table, dialect, etag).
func (c *Cache) Put(table, dialect, etag, sql string) error {
	data, err := msgpack.Marshal(&Entry{SQL: sql, ETag: etag, Generated: time.Now()})
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(table, dialect, etag), data, 0o644)
}

// Clear removes all cached entries.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".ddl" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) path(table, dialect, etag string) string {
	sum := sha256.Sum256([]byte(table + "\x00" + dialect + "\x00" + etag))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:8])+".ddl")
}

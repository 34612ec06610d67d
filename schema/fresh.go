package schema

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acrodrig/dbx"
)

// Source parses the schema ID into the source file path and the generation
// time. The ID is a URL whose fragment carries the generation timestamp in
// Unix milliseconds ("users.yaml#1712345678901"); a "file://" prefix is
// accepted and stripped.
func (s *Schema) Source() (path string, generated time.Time, err error) {
	if s.ID == "" {
		return "", time.Time{}, dbx.ErrMissingID
	}
	path = strings.TrimPrefix(s.ID, "file://")
	if i := strings.LastIndexByte(path, '#'); i >= 0 {
		ms, perr := strconv.ParseInt(path[i+1:], 10, 64)
		if perr != nil {
			return "", time.Time{}, fmt.Errorf("dbx: schema id %q: bad timestamp fragment: %w", s.ID, perr)
		}
		generated = time.UnixMilli(ms)
		path = path[:i]
	}
	return path, generated, nil
}

// Stamp sets the schema ID and ETag from the given source file, recording
// now as the generation time. It is the counterpart of IsOutdated.
func (s *Schema) Stamp(path string, now time.Time) error {
	etag, err := ETag(path)
	if err != nil {
		return err
	}
	s.ID = fmt.Sprintf("%s#%d", path, now.UnixMilli())
	s.ETag = etag
	return nil
}

// IsOutdated reports whether the schema is stale relative to its source
// definition. The check runs in two stages: first the source modification
// time is compared against the generation timestamp embedded in the schema
// ID, which needs only a stat; only when that is inconclusive is the source
// content re-hashed and compared against the recorded ETag. Filesystem
// errors propagate untouched.
func (s *Schema) IsOutdated(basePath string) (bool, error) {
	path, generated, err := s.Source()
	if err != nil {
		return false, err
	}
	if basePath != "" && !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if !generated.IsZero() && info.ModTime().After(generated) {
		return true, nil
	}
	etag, err := ETag(path)
	if err != nil {
		return false, err
	}
	return etag != s.ETag, nil
}

// ETag computes the content tag of a source file: the file size and a
// truncated SHA-256 of its content, in the weak-validator shape
// "<size>-<hash>".
func ETag(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%s", n, hex.EncodeToString(h.Sum(nil))[:16]), nil
}

// CheckAll checks the freshness of independent schemas concurrently and
// returns the names of the outdated ones. Checks are independent; the first
// error encountered is returned after the remaining checks finish.
func CheckAll(ctx context.Context, basePath string, schemas ...*Schema) ([]string, error) {
	var (
		mu       sync.Mutex
		outdated []string
	)
	var g errgroup.Group
	g.SetLimit(8)
	for _, s := range schemas {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stale, err := s.IsOutdated(basePath)
			if err != nil {
				return err
			}
			if stale {
				mu.Lock()
				outdated = append(outdated, s.Table)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outdated, nil
}

// Package asset holds the density and elevation images used by the scatter
// generator. Images are referenced through handles that may be handed out
// before the image behind them has finished loading.
package asset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/df-mc/foliage/scatter/dither"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNotResolved is returned by Store.Field for images that are not loaded
// (yet).
var ErrNotResolved = errors.New("asset: image not resolved")

// Handle references an image held by a Store.
type Handle uuid.UUID

// namespace is the UUID namespace that path derived handles live in.
var namespace = uuid.MustParse("4b3f9e0c-7f2a-4c61-9a55-2f1d0de3a7b1")

// HandleFor returns the handle that the Store uses for an image loaded from
// the name passed. The same name always results in the same handle.
func HandleFor(name string) Handle {
	return Handle(uuid.NewSHA1(namespace, []byte(filepath.ToSlash(filepath.Clean(name)))))
}

// NewHandle returns a new random handle.
func NewHandle() Handle {
	return Handle(uuid.New())
}

// IsZero reports if h is the zero handle, which never references an image.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// String ...
func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Store is an in-memory image store. Images are resolved through Field, which
// returns ErrNotResolved for handles whose image is not loaded (yet). A Store
// is safe for concurrent use.
type Store struct {
	log *slog.Logger

	mu     sync.RWMutex
	fields map[Handle]*dither.Field
	failed map[Handle]error

	loading sync.WaitGroup
}

// NewStore returns an empty Store. If log is nil, slog.Default() is used.
func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		log:    log,
		fields: make(map[Handle]*dither.Field),
		failed: make(map[Handle]error),
	}
}

// Field returns the field behind h. ErrNotResolved is returned while the
// image is not loaded. If loading the image failed, the load error is
// returned instead.
func (s *Store) Field(h Handle) (*dither.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if f, ok := s.fields[h]; ok {
		return f, nil
	}
	if err, ok := s.failed[h]; ok {
		return nil, err
	}
	return nil, ErrNotResolved
}

// Err returns the error of a failed load of h, or nil if the load succeeded
// or has not finished yet.
func (s *Store) Err(h Handle) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failed[h]
}

// Add stores f under a new random handle.
func (s *Store) Add(f *dither.Field) Handle {
	h := NewHandle()
	s.Set(h, f)
	return h
}

// Set stores f under h, replacing any field previously held.
func (s *Store) Set(h Handle, f *dither.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[h] = f
	delete(s.failed, h)
}

// Remove removes the field behind h.
func (s *Store) Remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fields, h)
	delete(s.failed, h)
}

// Len returns the amount of loaded fields.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fields)
}

// Load decodes the image at path and stores it under HandleFor(path).
func (s *Store) Load(path string) (Handle, error) {
	h := HandleFor(path)
	f, err := decodeFile(path)
	if err != nil {
		s.mu.Lock()
		s.failed[h] = err
		s.mu.Unlock()
		return h, err
	}
	s.Set(h, f)
	return h, nil
}

// LoadAsync returns the handle for path immediately and decodes the image in
// the background. Until decoding finishes, Field returns ErrNotResolved for
// the handle. Failures are logged and reported through Field and Err.
func (s *Store) LoadAsync(path string) Handle {
	h := HandleFor(path)
	s.mu.Lock()
	delete(s.failed, h)
	s.mu.Unlock()
	s.loading.Add(1)
	go func() {
		defer s.loading.Done()
		if _, err := s.Load(path); err != nil {
			s.log.Error("load image: "+err.Error(), "path", path)
		}
	}()
	return h
}

// Wait blocks until all loads started by LoadAsync have finished.
func (s *Store) Wait() {
	s.loading.Wait()
}

// LoadDir loads every image file directly inside dir, decoding at most limit
// images at the same time. If limit is 0 or lower, the CPU count is used. The
// handles are returned keyed by file name. Loading stops at the first error.
func (s *Store) LoadDir(ctx context.Context, dir string, limit int) (map[string]Handle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	handles := make(map[string]Handle, len(entries))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := s.Load(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("load %v: %w", name, err)
			}
			mu.Lock()
			handles[name] = h
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return handles, err
	}
	return handles, nil
}

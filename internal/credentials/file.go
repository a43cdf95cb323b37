package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tempPrefix = ".tmp-"

// FileStore keeps one file per credential entry inside a dedicated
// directory. The directory is created on first save and removed entirely
// by Clear.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty credentials directory", ErrInvalidConfig)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return &FileStore{dir: abs}, nil
}

// Dir returns the absolute directory path.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Load(ctx context.Context) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return Bundle{}, nil
	}
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	out := make(Bundle, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		key, err := decodeKey(entry.Name())
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, errors.Join(ErrLoadFailed, err)
		}
		out[key] = data
	}
	return out, nil
}

func (s *FileStore) Save(ctx context.Context, update Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateBundle(update); err != nil {
		return err
	}
	if len(update) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	set, del := split(update)
	for key, value := range set {
		if err := s.writeFile(encodeKey(key), value); err != nil {
			return errors.Join(ErrSaveFailed, err)
		}
	}
	for _, key := range del {
		err := os.Remove(filepath.Join(s.dir, encodeKey(key)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Join(ErrSaveFailed, err)
		}
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.dir); err != nil {
		return errors.Join(ErrClearFailed, err)
	}
	return nil
}

// writeFile replaces name atomically through a temp file in the same dir.
func (s *FileStore) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

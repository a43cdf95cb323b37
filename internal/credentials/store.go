package credentials

import (
	"context"
	"net/url"
	"strings"
)

// Bundle is a set of named opaque credential entries.
type Bundle map[string][]byte

// Clone returns a deep copy of b.
func (b Bundle) Clone() Bundle {
	if b == nil {
		return nil
	}
	out := make(Bundle, len(b))
	for k, v := range b {
		if v != nil {
			v = append([]byte(nil), v...)
		}
		out[k] = v
	}
	return out
}

// Empty reports whether b holds no entries.
func (b Bundle) Empty() bool {
	return len(b) == 0
}

// Merge applies update to b in place: nil values delete entries.
func (b Bundle) Merge(update Bundle) {
	for k, v := range update {
		if v == nil {
			delete(b, k)
			continue
		}
		b[k] = append([]byte(nil), v...)
	}
}

// Store loads, updates and clears the persisted credentials.
//
// Load returns an empty bundle and no error when nothing is stored.
type Store interface {
	Load(ctx context.Context) (Bundle, error)
	Save(ctx context.Context, update Bundle) error
	Clear(ctx context.Context) error
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.TrimSpace(key) != key {
		return ErrInvalidKey
	}
	return nil
}

func validateBundle(b Bundle) error {
	for k := range b {
		if err := validateKey(k); err != nil {
			return err
		}
	}
	return nil
}

// encodeKey maps an entry name to a single path segment.
func encodeKey(key string) string {
	return url.PathEscape(key)
}

func decodeKey(segment string) (string, error) {
	return url.PathUnescape(segment)
}

// split separates an update into entries to write and names to delete.
func split(update Bundle) (set Bundle, del []string) {
	set = make(Bundle, len(update))
	for k, v := range update {
		if v == nil {
			del = append(del, k)
			continue
		}
		set[k] = v
	}
	return set, del
}

package storage

import (
	"errors"
)

// Store represents a key-value store mapping names to opaque values. Puts
// overwrite; there is no way to delete a key through this interface.
// Implementations must be safe for concurrent use, and must not retain the
// slices passed to Put.
type Store interface {
	Put(key string, value []byte) (err error)

	// Get should return ErrNotFound if the key is not in the store.
	Get(key string) (value []byte, err error)
}

var (
	// ErrNotFound indicates a key is not in the store.
	ErrNotFound = errors.New("not found")

	// ErrEmptyKey is returned by stores for the empty key, which is never valid.
	ErrEmptyKey = errors.New("empty key")
)

// Exists reports whether key has a value in store. Only ErrNotFound counts as
// absence; any other error is returned.
func Exists(store Store, key string) (bool, error) {
	_, err := store.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

func dup(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

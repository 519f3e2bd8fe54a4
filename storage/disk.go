package storage

import (
	"crypto/sha512"
	"fmt"
	"os"
	"path/filepath"
)

// DiskStore implements Store. Values live in files under a directory, named
// after the hex encoding of their key.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

func (s *DiskStore) Put(key string, value []byte) (err error) {
	if key == "" {
		return ErrEmptyKey
	}
	valpath := s.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(valpath), 0700); err != nil {
		return fmt.Errorf("could not make dir for %q: %w", valpath, err)
	}
	// Write then rename, so that concurrent readers never see a partial value.
	tmp, err := os.CreateTemp(filepath.Dir(valpath), ".put-")
	if err != nil {
		return fmt.Errorf("could not create temporary file for %q: %w", valpath, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("could not write %q: %w", valpath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("could not write %q: %w", valpath, err)
	}
	if err = os.Rename(tmp.Name(), valpath); err != nil {
		return fmt.Errorf("could not write %q: %w", valpath, err)
	}
	return nil
}

func (s *DiskStore) Get(key string) (value []byte, err error) {
	if key == "" {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, ErrEmptyKey)
	}
	value, err = os.ReadFile(s.pathFor(key))
	if os.IsNotExist(err) {
		err = fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	return
}

func (s *DiskStore) pathFor(key string) string {
	k := []byte(key)
	// Prevent ENAMETOOLONG, while retaining low probability of clashes.
	if len(k) > sha512.Size {
		hash := sha512.Sum512(k)
		k = hash[:]
	}
	hex := fmt.Sprintf("%02x", k)
	return filepath.Join(s.dir, hex[:2], hex)
}

package metrics

import (
	"errors"
	"time"

	"github.com/nicolagi/kvgate/storage"
)

// Observer receives one call per store operation.
type Observer interface {
	Observe(op string, bytes int, err error, dur time.Duration)
}

// InstrumentedStore wraps a storage.Store and reports every call. A missing
// key is reported under op "get" with result "ok"; it is not a failure.
type InstrumentedStore struct {
	delegate storage.Store
	observer Observer
}

func NewInstrumentedStore(delegate storage.Store, observer Observer) *InstrumentedStore {
	return &InstrumentedStore{delegate: delegate, observer: observer}
}

func (s *InstrumentedStore) Put(key string, value []byte) error {
	start := time.Now()
	err := s.delegate.Put(key, value)
	s.observer.Observe("put", len(value), err, time.Since(start))
	return err
}

func (s *InstrumentedStore) Get(key string) ([]byte, error) {
	start := time.Now()
	value, err := s.delegate.Get(key)
	observed := err
	if errors.Is(err, storage.ErrNotFound) {
		observed = nil
	}
	s.observer.Observe("get", len(value), observed, time.Since(start))
	return value, err
}

package storage

import (
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Paired implements Store wrapping a pair of stores, one fast, one slow. It
// will handle puts storing data in the fast store and syncing that to the slow
// store in the background. It will handle gets from the fast store if possible,
// otherwise from the slow store (and in this case also propagate the data from
// the slow to the fast store, for next time that piece of data is requested).
//
// Since writes reach the slow store asynchronously, two gateways sharing a slow
// store may each serve stale values from their own fast store.
type Paired struct {
	fast Store
	slow Store

	wbc   chan pendingPut
	retry time.Duration
	done  chan struct{}

	// Guards closed, and sends on wbc against the close of wbc.
	mu     sync.RWMutex
	closed bool
}

// ErrClosed is returned by puts on a closed Paired store.
var ErrClosed = errors.New("store closed")

type pendingPut struct {
	key   string
	value []byte
}

func NewPaired(fast, slow Store) *Paired {
	p := &Paired{
		fast:  fast,
		slow:  slow,
		wbc:   make(chan pendingPut, 42),
		retry: time.Second,
		done:  make(chan struct{}),
	}
	go p.writeback()
	return p
}

func (s *Paired) Get(key string) (value []byte, err error) {
	value, err = s.fast.Get(key)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrNotFound) {
		return
	}
	value, err = s.slow.Get(key)
	if err != nil {
		return nil, err
	}
	logger := log.WithField("key", key)
	if ferr := s.fast.Put(key, value); ferr != nil {
		logger.WithField("err", ferr).Warn("Could not propagate from slow to fast")
	} else {
		logger.Debug("Propagated from slow to fast")
	}
	return value, nil
}

func (s *Paired) Put(key string, value []byte) (err error) {
	if s.isClosed() {
		return ErrClosed
	}
	if err = s.fast.Put(key, value); err != nil {
		return err
	}
	// This can get stuck if it fills up and the remote is not able to fulfill
	// our requests. Also, if we kill the process in the middle of propagation,
	// we'll have missing data on the remote.
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	s.wbc <- pendingPut{key: key, value: dup(value)}
	return nil
}

// Close stops accepting puts and waits for pending ones to reach the slow
// store. Later puts fail with ErrClosed; gets keep working.
func (s *Paired) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.wbc)
	}
	s.mu.Unlock()
	<-s.done
}

func (s *Paired) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Paired) writeback() {
	defer close(s.done)
	for p := range s.wbc {
		s.writeback1(p.key, p.value)
	}
}

func (s *Paired) writeback1(key string, value []byte) {
	logger := log.WithField("key", key)
	for {
		err := s.slow.Put(key, value)
		if err == nil {
			logger.Debug("Propagated from fast to slow")
			break
		}
		logger.WithFields(log.Fields{
			"err": err,
		}).Warn("Could not propagate from fast to slow")
		// Should randomize.
		time.Sleep(s.retry)
	}
}

package storage_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/nicolagi/kvgate/codec"
	"github.com/nicolagi/kvgate/gateway"
	"github.com/nicolagi/kvgate/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreImplementations(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(*testing.T) (storage.Store, func())
	}{
		/*
			{
				name: "Store implementation backed by S3",
				setup: func(t *testing.T) (s storage.Store, teardown func()) {
					return storage.NewS3("kvgate", "eu-west-2", "kvgate-test", "test/"), func() {}
				},
			},
		*/
		{
			name: "Store implementation backed by a BoltDB",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				db, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
				require.Nil(t, err)
				store, err := storage.NewBoltStore(db)
				require.Nil(t, err)
				return store, func() {
					_ = db.Close()
				}
			},
		},
		{
			name: "Store implementation backed by a map",
			setup: func(*testing.T) (s storage.Store, teardown func()) {
				return storage.NewInMemoryStore(), func() {
					// Nothing to do.
				}
			},
		},
		{
			name: "Store implementation backed by a host filesystem directory",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				return storage.NewDiskStore(t.TempDir()), func() {}
			},
		},
		{
			name: "Store implementation backed by SQLite",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
				store, err := storage.OpenSQLStore(context.Background(), storage.DriverSQLite, dsn)
				require.Nil(t, err)
				return store, func() {
					_ = store.Close()
				}
			},
		},
		{
			name: "Paired store backed by two in-memory stores",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				p := storage.NewPaired(
					storage.NewInMemoryStore(),
					storage.NewInMemoryStore(),
				)
				return p, p.Close
			},
		},
		{
			name: "Remote store talking to a gateway",
			setup: func(t *testing.T) (s storage.Store, teardown func()) {
				g, err := gateway.New(gateway.Config{Token: "t0k"}, gateway.WithStore(storage.NewInMemoryStore()))
				require.Nil(t, err)
				srv := httptest.NewServer(g)
				store, err := storage.NewRemoteStore(srv.URL, "t0k")
				require.Nil(t, err)
				return store, srv.Close
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, teardown := tc.setup(t)
			defer teardown()
			testStore(t, store)
		})
	}
}

func testStore(t *testing.T, store storage.Store) {
	rand.Seed(time.Now().UnixNano())
	t.Run("what you put is what you get", func(t *testing.T) {
		key := randomKey()
		err := store.Put(key, []byte("hello"))
		require.Nil(t, err)
		storedValue, err := store.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("hello"), storedValue)
	})
	t.Run("error on not existing key", func(t *testing.T) {
		key := randomKey()
		value, err := store.Get(key)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		assert.Nil(t, value)
	})
	t.Run("empty key is never stored", func(t *testing.T) {
		assert.NotNil(t, store.Put("", []byte("hello")))
		_, err := store.Get("")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
	t.Run("can put a nil value, get non-nil empty slice", func(t *testing.T) {
		key := randomKey()
		err := store.Put(key, nil)
		require.Nil(t, err)
		value, err := store.Get(key)
		assert.Nil(t, err)
		assert.Equal(t, []byte{}, value)
	})
	t.Run("can put an empty value", func(t *testing.T) {
		key := randomKey()
		err := store.Put(key, []byte{})
		require.Nil(t, err)
		value, err := store.Get(key)
		assert.Nil(t, err)
		assert.Equal(t, []byte{}, value)
	})
	t.Run("binary values survive", func(t *testing.T) {
		key := randomKey()
		before := make([]byte, 1024)
		rand.Read(before)
		require.Nil(t, store.Put(key, before))
		after, err := store.Get(key)
		require.Nil(t, err)
		assert.Equal(t, before, after)
	})
	t.Run("last write wins", func(t *testing.T) {
		key := randomKey()
		require.Nil(t, store.Put(key, []byte("first")))
		require.Nil(t, store.Put(key, []byte("second")))
		value, err := store.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("second"), value)
	})
	t.Run("mutating value should not affect stored pairs", func(t *testing.T) {
		key := randomKey()
		before := []byte("old value")
		if err := store.Put(key, before); err != nil {
			t.Fatalf("got %v, want nil", err)
		}
		copy(before, "new")
		after, err := store.Get(key)
		if err != nil {
			t.Fatalf("got %v, want nil", err)
		}
		if want := []byte("old value"); !bytes.Equal(want, after) {
			t.Errorf("got %q, want %q", after, want)
		}
	})
	t.Run("mutating a got value should not affect stored pairs", func(t *testing.T) {
		key := randomKey()
		require.Nil(t, store.Put(key, []byte("old value")))
		got, err := store.Get(key)
		require.Nil(t, err)
		copy(got, "new")
		again, err := store.Get(key)
		require.Nil(t, err)
		assert.Equal(t, []byte("old value"), again)
	})
	t.Run("exists", func(t *testing.T) {
		key := randomKey()
		ok, err := storage.Exists(store, key)
		require.Nil(t, err)
		assert.False(t, ok)
		require.Nil(t, store.Put(key, []byte("x")))
		ok, err = storage.Exists(store, key)
		require.Nil(t, err)
		assert.True(t, ok)
	})
	t.Run("concurrent puts to distinct keys", func(t *testing.T) {
		var wg sync.WaitGroup
		keys := make([]string, 8)
		for i := range keys {
			keys[i] = randomKey()
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				assert.Nil(t, store.Put(key, []byte(key)))
			}(keys[i])
		}
		wg.Wait()
		for _, key := range keys {
			value, err := store.Get(key)
			require.Nil(t, err)
			assert.Equal(t, []byte(key), value)
		}
	})
}

func TestExists(t *testing.T) {
	t.Run("other errors are returned", func(t *testing.T) {
		_, err := storage.Exists(brokenStore{}, "k")
		assert.NotNil(t, err)
		assert.False(t, errors.Is(err, storage.ErrNotFound))
	})
}

func TestPairedPropagation(t *testing.T) {
	fast := storage.NewInMemoryStore()
	slow := storage.NewInMemoryStore()
	p := storage.NewPaired(fast, slow)
	t.Run("puts reach the slow store", func(t *testing.T) {
		require.Nil(t, p.Put("k", []byte("v")))
		p.Close()
		value, err := slow.Get("k")
		require.Nil(t, err)
		assert.Equal(t, []byte("v"), value)
	})
	t.Run("gets fall back to the slow store and fill the fast one", func(t *testing.T) {
		require.Nil(t, slow.Put("only-slow", []byte("v")))
		value, err := p.Get("only-slow")
		require.Nil(t, err)
		assert.Equal(t, []byte("v"), value)
		value, err = fast.Get("only-slow")
		require.Nil(t, err)
		assert.Equal(t, []byte("v"), value)
	})
}

func TestPairedCloseDrainsWriteback(t *testing.T) {
	slow := &sluggishStore{delegate: storage.NewInMemoryStore(), delay: 2 * time.Millisecond}
	p := storage.NewPaired(storage.NewInMemoryStore(), slow)
	for i := 0; i < 100; i++ {
		require.Nil(t, p.Put(fmt.Sprintf("k%d", i), []byte(fmt.Sprintf("v%d", i))))
	}
	require.Nil(t, p.Put("k0", []byte("last")))
	p.Close()
	for i := 1; i < 100; i++ {
		value, err := slow.delegate.Get(fmt.Sprintf("k%d", i))
		require.Nil(t, err)
		assert.Equal(t, []byte(fmt.Sprintf("v%d", i)), value)
	}
	value, err := slow.delegate.Get("k0")
	require.Nil(t, err)
	assert.Equal(t, []byte("last"), value)
	t.Run("close twice", func(t *testing.T) {
		p.Close()
	})
	t.Run("puts after close fail instead of panicking", func(t *testing.T) {
		assert.True(t, errors.Is(p.Put("late", []byte("v")), storage.ErrClosed))
		value, err := p.Get("k1")
		require.Nil(t, err)
		assert.Equal(t, []byte("v1"), value)
	})
}

func TestRemoteStore(t *testing.T) {
	backing := storage.NewInMemoryStore()
	g, err := gateway.New(gateway.Config{Token: "t0k"}, gateway.WithStore(backing))
	require.Nil(t, err)
	srv := httptest.NewServer(g)
	defer srv.Close()

	t.Run("ciphertext mode stores base64", func(t *testing.T) {
		store, err := storage.NewRemoteStore(srv.URL, "t0k", storage.WithMode(codec.Ciphertext))
		require.Nil(t, err)
		require.Nil(t, store.Put("c.txt", []byte("hello")))
		value, err := store.Get("c.txt")
		require.Nil(t, err)
		assert.Equal(t, []byte("aGVsbG8="), value)
		text, err := codec.Decode(value)
		require.Nil(t, err)
		assert.Equal(t, "hello", text)
	})
	t.Run("wrong token", func(t *testing.T) {
		store, err := storage.NewRemoteStore(srv.URL, "wrong")
		require.Nil(t, err)
		assert.NotNil(t, store.Put("a", []byte("hello")))
		_, err = store.Get("a")
		assert.NotNil(t, err)
		assert.False(t, errors.Is(err, storage.ErrNotFound))
	})
	t.Run("keys with slashes keep their full name", func(t *testing.T) {
		store, err := storage.NewRemoteStore(srv.URL, "t0k")
		require.Nil(t, err)
		require.Nil(t, store.Put("notes/a.txt", []byte("hello")))
		value, err := store.Get("notes/a.txt")
		require.Nil(t, err)
		assert.Equal(t, []byte("hello"), value)
		_, err = backing.Get("a.txt")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})
	t.Run("address without scheme", func(t *testing.T) {
		store, err := storage.NewRemoteStore(srv.Listener.Addr().String(), "t0k")
		require.Nil(t, err)
		require.Nil(t, store.Put("plain.txt", []byte("hello")))
		value, err := backing.Get("plain.txt")
		require.Nil(t, err)
		assert.Equal(t, []byte("hello"), value)
	})
}

type sluggishStore struct {
	delegate storage.Store
	delay    time.Duration
}

func (s *sluggishStore) Put(key string, value []byte) error {
	time.Sleep(s.delay)
	return s.delegate.Put(key, value)
}

func (s *sluggishStore) Get(key string) ([]byte, error) {
	time.Sleep(s.delay)
	return s.delegate.Get(key)
}

type brokenStore struct{}

func (brokenStore) Put(string, []byte) error { return errors.New("broken") }

func (brokenStore) Get(string) ([]byte, error) { return nil, errors.New("broken") }

func randomKey() string {
	return fmt.Sprintf("key-%016x-%d.txt", rand.Uint64(), os.Getpid())
}

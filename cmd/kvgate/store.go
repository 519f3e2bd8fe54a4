package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/nicolagi/kvgate/storage"
	log "github.com/sirupsen/logrus"
)

// openStore builds the store described by c. An empty type means no store,
// which is not an error here. The returned cleanup function is never nil.
func openStore(ctx context.Context, c *storeConfig) (store storage.Store, cleanup func(), err error) {
	noop := func() {}
	if c == nil {
		return nil, noop, errors.New("missing store configuration")
	}
	logger := log.WithField("type", c.Type)
	switch c.Type {
	case "":
		return nil, noop, nil
	case "memory":
		logger.Warn("Values will be lost on exit")
		return storage.NewInMemoryStore(), noop, nil
	case "disk":
		dir := os.ExpandEnv(c.Path)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, noop, fmt.Errorf("could not ensure directory %q exists: %w", dir, err)
		}
		logger.WithField("dir", dir).Info("Disk-based backend")
		return storage.NewDiskStore(dir), noop, nil
	case "bolt":
		file := os.ExpandEnv(c.Path)
		if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
			return nil, noop, fmt.Errorf("could not ensure directory for %q exists: %w", file, err)
		}
		db, err := bolt.Open(file, 0600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, noop, fmt.Errorf("could not open database %q: %w", file, err)
		}
		store, err := storage.NewBoltStore(db)
		if err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("could not instantiate boltdb store at %q: %w", file, err)
		}
		logger.WithField("file", file).Info("Bolt backend")
		return store, func() {
			if err := db.Close(); err != nil {
				log.Warnf("Could not close boltdb database: %v", err)
			}
		}, nil
	case "sqlite", "postgres":
		dsn := c.DSN
		if dsn == "" && c.Path != "" {
			file := os.ExpandEnv(c.Path)
			if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
				return nil, noop, fmt.Errorf("could not ensure directory for %q exists: %w", file, err)
			}
			dsn = "file:" + file + "?mode=rwc&_pragma=busy_timeout(5000)"
		}
		store, err := storage.OpenSQLStore(ctx, storage.Driver(c.Type), dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("could not open %s store: %w", c.Type, err)
		}
		logger.Info("SQL backend")
		return store, func() {
			if err := store.Close(); err != nil {
				logger.WithField("err", err).Warn("Could not close database")
			}
		}, nil
	case "mongo":
		store, err := storage.NewMongoStore(ctx, c.DSN, c.Database, c.Collection)
		if err != nil {
			return nil, noop, fmt.Errorf("could not connect to mongo: %w", err)
		}
		logger.WithFields(log.Fields{
			"database":   c.Database,
			"collection": c.Collection,
		}).Info("MongoDB backend")
		return store, func() {
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(cctx); err != nil {
				logger.WithField("err", err).Warn("Could not disconnect from mongo")
			}
		}, nil
	case "s3":
		logger.WithFields(log.Fields{
			"bucket": c.Bucket,
			"prefix": c.Prefix,
		}).Info("S3 backend")
		return storage.NewS3(c.Profile, c.Region, c.Bucket, c.Prefix), noop, nil
	case "dynamodb":
		store, err := storage.NewDynamoDBStore(c.Profile, c.Region, c.Table)
		if err != nil {
			return nil, noop, fmt.Errorf("could not set up dynamodb table %q: %w", c.Table, err)
		}
		logger.WithField("table", c.Table).Info("DynamoDB backend")
		return store, noop, nil
	case "paired":
		if c.Fast == nil || c.Slow == nil || c.Fast.Type == "" || c.Slow.Type == "" {
			return nil, noop, errors.New("paired store needs both fast and slow stores")
		}
		fast, fastCleanup, err := openStore(ctx, c.Fast)
		if err != nil {
			return nil, noop, fmt.Errorf("fast store: %w", err)
		}
		slow, slowCleanup, err := openStore(ctx, c.Slow)
		if err != nil {
			fastCleanup()
			return nil, noop, fmt.Errorf("slow store: %w", err)
		}
		paired := storage.NewPaired(fast, slow)
		return paired, func() {
			paired.Close()
			slowCleanup()
			fastCleanup()
		}, nil
	default:
		return nil, noop, fmt.Errorf("%q: unknown store type", c.Type)
	}
}

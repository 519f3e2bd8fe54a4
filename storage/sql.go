package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver names a SQL backend supported by SQLStore.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// SQLStore implements Store on a single two-column table.
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

// OpenSQLStore opens a database and ensures the blobs table exists.
func OpenSQLStore(ctx context.Context, driver Driver, dsn string) (*SQLStore, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:kvgate.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/kvgate?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema(driver)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not ensure schema: %w", err)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

func schema(driver Driver) string {
	if driver == DriverPostgres {
		return `CREATE TABLE IF NOT EXISTS blobs (k TEXT PRIMARY KEY, v BYTEA)`
	}
	return `CREATE TABLE IF NOT EXISTS blobs (k TEXT PRIMARY KEY, v BLOB)`
}

func (s *SQLStore) Put(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	q := `INSERT INTO blobs (k, v) VALUES (?, ?) ON CONFLICT (k) DO UPDATE SET v = excluded.v`
	if s.driver == DriverPostgres {
		q = `INSERT INTO blobs (k, v) VALUES ($1, $2) ON CONFLICT (k) DO UPDATE SET v = excluded.v`
	}
	if _, err := s.db.Exec(q, key, dup(value)); err != nil {
		return fmt.Errorf("could not put %.40q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Get(key string) (value []byte, err error) {
	if key == "" {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, ErrEmptyKey)
	}
	q := `SELECT v FROM blobs WHERE k = ?`
	if s.driver == DriverPostgres {
		q = `SELECT v FROM blobs WHERE k = $1`
	}
	err = s.db.QueryRow(q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return dup(value), nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

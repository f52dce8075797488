package world

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore keeps maps in a PostgreSQL table, one row of text per map.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens connStr, checks the connection and creates the maps
// table if needed.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("world: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("world: ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("world: init schema: %w", err)
	}
	return s, nil
}

// NewPostgresStoreDB wraps an open database. The schema must exist.
func NewPostgresStoreDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS maps (
		name TEXT PRIMARY KEY,
		rows TEXT NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) Load(ctx context.Context, name string) (*Map, error) {
	var rows string
	err := s.db.QueryRowContext(ctx, `SELECT rows FROM maps WHERE name = $1`, name).Scan(&rows)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrMapNotFound, name)
		}
		return nil, fmt.Errorf("world: load map %s: %w", name, err)
	}
	m, err := ParseString(rows)
	if err != nil {
		return nil, fmt.Errorf("world: map %s: %w", name, err)
	}
	m.Name = name
	return m, nil
}

func (s *PostgresStore) Save(ctx context.Context, name string, m *Map) error {
	const query = `
	INSERT INTO maps (name, rows)
	VALUES ($1, $2)
	ON CONFLICT (name)
	DO UPDATE SET rows = $2, updated_at = NOW()`
	if _, err := s.db.ExecContext(ctx, query, name, strings.Join(m.Rows(), "\n")); err != nil {
		return fmt.Errorf("world: save map %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT name FROM maps ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("world: list maps: %w", err)
	}
	defer rs.Close()

	var names []string
	for rs.Next() {
		var n string
		if err := rs.Scan(&n); err != nil {
			return nil, fmt.Errorf("world: list maps: %w", err)
		}
		names = append(names, n)
	}
	return names, rs.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }

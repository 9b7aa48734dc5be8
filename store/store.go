// Package store keeps exported navmesh sets in a sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorustyt/navbind/common/logs"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Kind is the build mode a stored set came from.
type Kind string

const (
	KindSolo      Kind = "solo"
	KindTiled     Kind = "tiled"
	KindTileCache Kind = "tilecache"
)

func (k Kind) valid() bool {
	switch k {
	case KindSolo, KindTiled, KindTileCache:
		return true
	}
	return false
}

var ErrNotFound = errors.New("store: navmesh not found")

const schema = `
CREATE TABLE IF NOT EXISTS navmeshes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	kind       TEXT NOT NULL CHECK (kind IN ('solo', 'tiled', 'tilecache')),
	tile_count INTEGER NOT NULL,
	data       BLOB NOT NULL,
	created_at INTEGER NOT NULL
)`

// Record is one stored set. List leaves Data empty.
type Record struct {
	ID        uuid.UUID
	Name      string
	Kind      Kind
	TileCount int32
	Data      []byte
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and makes sure the navmeshes table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open navmesh store: %w", err)
	}
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create navmeshes table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a new set and returns its generated id.
func (s *Store) Save(ctx context.Context, name string, kind Kind, tileCount int32, blob []byte) (uuid.UUID, error) {
	if !kind.valid() {
		return uuid.Nil, fmt.Errorf("save navmesh: unknown kind %q", kind)
	}
	if len(blob) == 0 {
		return uuid.Nil, errors.New("save navmesh: empty data")
	}
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO navmeshes (id, name, kind, tile_count, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), name, string(kind), tileCount, blob, time.Now().UnixNano(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save navmesh: %w", err)
	}
	logs.L().Debug("navmesh saved",
		zap.Stringer("id", id), zap.String("name", name), zap.Int("bytes", len(blob)))
	return id, nil
}

// Load returns the set with the given id, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, tile_count, data, created_at
		FROM navmeshes WHERE id = ?`, id.String())
	rec, err := scanRecord(row.Scan, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load navmesh %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load navmesh %s: %w", id, err)
	}
	return rec, nil
}

// List returns every stored set without its data, oldest first.
func (s *Store) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, tile_count, created_at
		FROM navmeshes
		ORDER BY created_at, name`)
	if err != nil {
		return nil, fmt.Errorf("list navmeshes: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan, false)
		if err != nil {
			return nil, fmt.Errorf("scan navmesh: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list navmeshes: %w", err)
	}
	return records, nil
}

// Delete removes the set with the given id, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM navmeshes WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete navmesh %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete navmesh %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete navmesh %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanRecord(scan func(dest ...any) error, withData bool) (*Record, error) {
	var (
		rec       Record
		id, kind  string
		createdAt int64
	)
	dest := []any{&id, &rec.Name, &kind, &rec.TileCount}
	if withData {
		dest = append(dest, &rec.Data)
	}
	dest = append(dest, &createdAt)
	if err := scan(dest...); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.Kind = Kind(kind)
	rec.CreatedAt = time.Unix(0, createdAt)
	return &rec, nil
}

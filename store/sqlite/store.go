// Package sqlite implements the SQLite cache store using the pure Go
// driver, so projects get a queryable local cache with no cgo.
package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/nexelgames/assets/data"
	"github.com/nexelgames/assets/store"
)

// SQLiteStore persists registry records and graph edges in two tables.
// Saves run inside one transaction that replaces the previous state,
// matching the wholesale save/load contract of store.Store.
type SQLiteStore struct {
	mu     sync.Mutex
	dbPath string
	db     *sql.DB
}

// NewSQLiteStore creates a store backed by the database at dbPath.
// Use ":memory:" for an ephemeral cache in tests.
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath}
}

func (*SQLiteStore) Name() string {
	return "sqlite"
}

func (s *SQLiteStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return err
	}

	// WAL keeps concurrent readers cheap during background saves
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS asset_registry (
		id TEXT PRIMARY KEY,
		virtual_path TEXT NOT NULL UNIQUE,
		record TEXT NOT NULL,
		saved_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_asset_registry_path ON asset_registry(virtual_path);

	CREATE TABLE IF NOT EXISTS asset_edges (
		asset TEXT NOT NULL,
		dependency TEXT NOT NULL,
		PRIMARY KEY (asset, dependency)
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) SaveRegistry(ctx context.Context, records []*data.AssetMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return store.ErrNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM asset_registry"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO asset_registry (id, virtual_path, record, saved_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, record := range records {
		blob, err := json.Marshal(record)
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx, record.ID.String(), record.VirtualPath, string(blob), now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadRegistry(ctx context.Context) ([]*data.AssetMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, store.ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, "SELECT record FROM asset_registry ORDER BY virtual_path")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*data.AssetMetadata{}
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}

		record := &data.AssetMetadata{}
		if err := json.Unmarshal([]byte(blob), record); err != nil {
			return nil, store.ErrCorrupt
		}

		records = append(records, record)
	}

	return records, rows.Err()
}

func (s *SQLiteStore) SaveGraph(ctx context.Context, edges map[data.GUID][]data.GUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return store.ErrNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM asset_edges"); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO asset_edges (asset, dependency) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for asset, dependencies := range edges {
		for _, dependency := range dependencies {
			if _, err := stmt.ExecContext(ctx, asset.String(), dependency.String()); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadGraph(ctx context.Context) (map[data.GUID][]data.GUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, store.ErrNotOpen
	}

	rows, err := s.db.QueryContext(ctx, "SELECT asset, dependency FROM asset_edges")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	edges := map[data.GUID][]data.GUID{}
	for rows.Next() {
		var assetText, dependencyText string
		if err := rows.Scan(&assetText, &dependencyText); err != nil {
			return nil, err
		}

		asset, ok := data.ParseGUID(assetText)
		if !ok {
			return nil, store.ErrCorrupt
		}
		dependency, ok := data.ParseGUID(dependencyText)
		if !ok {
			return nil, store.ErrCorrupt
		}

		edges[asset] = append(edges[asset], dependency)
	}

	return edges, rows.Err()
}

package sandbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/verai-labs/verai/pkg/errors"

	_ "modernc.org/sqlite"
)

// SnapshotStore persists simulation snapshots.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) (string, error)
	Load(ctx context.Context, id string) (Snapshot, error)
	// List returns snapshot ids ordered oldest first.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
}

const snapshotTable = "verai_snapshots"

// SQLiteSnapshotStore keeps snapshots in a SQLite database.
type SQLiteSnapshotStore struct {
	db *sql.DB
}

// NewSQLiteSnapshotStore wraps a database handle and ensures the schema.
func NewSQLiteSnapshotStore(db *sql.DB) (*SQLiteSnapshotStore, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInvalidInput, "db is nil", nil)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + snapshotTable + ` (
		id TEXT PRIMARY KEY,
		sim_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		snapshot_json BLOB NOT NULL
	);`); err != nil {
		return nil, errors.New(errors.CodeStorageError, "failed to ensure snapshot schema", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_` + snapshotTable + `_created ON ` + snapshotTable + `(created_at);`); err != nil {
		return nil, errors.New(errors.CodeStorageError, "failed to ensure snapshot index", err)
	}
	return &SQLiteSnapshotStore{db: db}, nil
}

// Save persists a snapshot and returns its id.
func (s *SQLiteSnapshotStore) Save(ctx context.Context, snap Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", errors.New(errors.CodeInternal, "failed to encode snapshot", err)
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO `+snapshotTable+` (id, sim_id, created_at, snapshot_json) VALUES (?, ?, ?, ?)`,
		id, snap.SimulationID, time.Now().UnixMilli(), data,
	); err != nil {
		return "", errors.New(errors.CodeStorageError, "failed to save snapshot", err)
	}
	return id, nil
}

// Load reads one snapshot by id.
func (s *SQLiteSnapshotStore) Load(ctx context.Context, id string) (Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot_json FROM `+snapshotTable+` WHERE id = ?`, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return Snapshot{}, errors.New(errors.CodeNotFound, "snapshot not found", nil).
			WithContext("snapshot_id", id)
	}
	if err != nil {
		return Snapshot{}, errors.New(errors.CodeStorageError, "failed to load snapshot", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, errors.New(errors.CodeInternal, "failed to decode snapshot", err)
	}
	return snap, nil
}

// List returns snapshot ids, oldest first.
func (s *SQLiteSnapshotStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM `+snapshotTable+` ORDER BY created_at ASC`)
	if err != nil {
		return nil, errors.New(errors.CodeStorageError, "failed to list snapshots", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.New(errors.CodeStorageError, "failed to scan snapshot id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a snapshot.
func (s *SQLiteSnapshotStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM `+snapshotTable+` WHERE id = ?`, id); err != nil {
		return errors.New(errors.CodeStorageError, "failed to delete snapshot", err)
	}
	return nil
}

// MemorySnapshotStore keeps snapshots in memory, for tests and ephemeral
// runs.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]Snapshot
	order []string
}

// NewMemorySnapshotStore creates an empty in-memory store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snaps: make(map[string]Snapshot)}
}

func (m *MemorySnapshotStore) Save(_ context.Context, snap Snapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.snaps[id] = snap
	m.order = append(m.order, id)
	return id, nil
}

func (m *MemorySnapshotStore) Load(_ context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[id]
	if !ok {
		return Snapshot{}, errors.New(errors.CodeNotFound, "snapshot not found", nil).
			WithContext("snapshot_id", id)
	}
	return snap, nil
}

func (m *MemorySnapshotStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...), nil
}

func (m *MemorySnapshotStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

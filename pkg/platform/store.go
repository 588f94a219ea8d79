package platform

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/verai-labs/verai/pkg/errors"

	_ "modernc.org/sqlite"
)

const (
	agentTable   = "verai_agents"
	sessionTable = "verai_sessions"
)

// Store persists agent registrations and sessions in SQLite so the platform
// can recover both across restarts.
type Store struct {
	db *sql.DB
}

// NewStore wraps a database handle and ensures the schema.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New(errors.CodeInvalidInput, "db is nil", nil)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + agentTable + ` (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		template TEXT NOT NULL,
		registered_at INTEGER NOT NULL,
		status TEXT NOT NULL
	);`); err != nil {
		return nil, errors.New(errors.CodeStorageError, "failed to ensure agent schema", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS ` + sessionTable + ` (
		id TEXT PRIMARY KEY,
		agent_id TEXT NOT NULL,
		session_type TEXT NOT NULL,
		config_json BLOB,
		started_at INTEGER NOT NULL,
		ended_at INTEGER,
		state TEXT NOT NULL
	);`); err != nil {
		return nil, errors.New(errors.CodeStorageError, "failed to ensure session schema", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_` + sessionTable + `_agent ON ` + sessionTable + `(agent_id);`); err != nil {
		return nil, errors.New(errors.CodeStorageError, "failed to ensure session index", err)
	}
	return &Store{db: db}, nil
}

// SaveAgent upserts one agent record.
func (s *Store) SaveAgent(ctx context.Context, rec AgentRecord) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO `+agentTable+` (id, name, template, registered_at, status)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, status = excluded.status`,
		rec.ID, rec.Name, rec.Template, rec.RegisteredAt.UnixMilli(), string(rec.Status),
	); err != nil {
		return errors.New(errors.CodeStorageError, "failed to save agent", err).
			WithContext("agent_id", rec.ID)
	}
	return nil
}

// DeleteAgent removes one agent record.
func (s *Store) DeleteAgent(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM `+agentTable+` WHERE id = ?`, id); err != nil {
		return errors.New(errors.CodeStorageError, "failed to delete agent", err)
	}
	return nil
}

// Agents loads all persisted agent records.
func (s *Store) Agents(ctx context.Context) ([]AgentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, template, registered_at, status FROM `+agentTable+` ORDER BY registered_at ASC`)
	if err != nil {
		return nil, errors.New(errors.CodeStorageError, "failed to list agents", err)
	}
	defer rows.Close()

	var out []AgentRecord
	for rows.Next() {
		var (
			rec        AgentRecord
			registered int64
			status     string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Template, &registered, &status); err != nil {
			return nil, errors.New(errors.CodeStorageError, "failed to scan agent", err)
		}
		rec.RegisteredAt = time.UnixMilli(registered)
		rec.Status = AgentStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveSession upserts one session, encoding its config as JSON.
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	var config []byte
	if sess.Config != nil {
		data, err := json.Marshal(sess.Config)
		if err != nil {
			return errors.New(errors.CodeInternal, "failed to encode session config", err)
		}
		config = data
	}
	var ended any
	if !sess.EndTime.IsZero() {
		ended = sess.EndTime.UnixMilli()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO `+sessionTable+` (id, agent_id, session_type, config_json, started_at, ended_at, state)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET state = excluded.state, ended_at = excluded.ended_at`,
		sess.ID, sess.AgentID, string(sess.Type), config, sess.StartTime.UnixMilli(), ended, string(sess.State),
	); err != nil {
		return errors.New(errors.CodeStorageError, "failed to save session", err).
			WithContext("session_id", sess.ID)
	}
	return nil
}

// Sessions loads all persisted sessions for one agent, or every session
// when agentID is empty.
func (s *Store) Sessions(ctx context.Context, agentID string) ([]Session, error) {
	query := `SELECT id, agent_id, session_type, config_json, started_at, ended_at, state FROM ` + sessionTable
	args := []any{}
	if agentID != "" {
		query += ` WHERE agent_id = ?`
		args = append(args, agentID)
	}
	query += ` ORDER BY started_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(errors.CodeStorageError, "failed to list sessions", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess     Session
			sessType string
			config   []byte
			started  int64
			ended    sql.NullInt64
			state    string
		)
		if err := rows.Scan(&sess.ID, &sess.AgentID, &sessType, &config, &started, &ended, &state); err != nil {
			return nil, errors.New(errors.CodeStorageError, "failed to scan session", err)
		}
		sess.Type = SessionType(sessType)
		sess.State = SessionState(state)
		sess.StartTime = time.UnixMilli(started)
		if ended.Valid {
			sess.EndTime = time.UnixMilli(ended.Int64)
		}
		if len(config) > 0 {
			if err := json.Unmarshal(config, &sess.Config); err != nil {
				return nil, errors.New(errors.CodeInternal, "failed to decode session config", err)
			}
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

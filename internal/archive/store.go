// Package archive persists terminal mission snapshots to SQLite. The archive
// is write-mostly: the engine hands over one snapshot per finished mission,
// and operators query it after the fact. The in-memory mission store stays
// authoritative for the process lifetime; the archive is the durable record.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/skyward-ai/skyward/internal/graph"
	"github.com/skyward-ai/skyward/internal/mission"
	"github.com/skyward-ai/skyward/internal/types"
)

// Store persists mission snapshots in a SQLite database.
type Store struct {
	conn *sql.DB
	path string
}

// Config holds archive database options.
type Config struct {
	Path        string
	BusyTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the given database path.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		BusyTimeout: 5 * time.Second,
	}
}

// Open opens (creating if necessary) the archive database at path with WAL
// journaling and runs the schema migration.
func Open(path string) (*Store, error) {
	return OpenWithConfig(DefaultConfig(path))
}

// OpenWithConfig opens the archive database with custom configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d",
		cfg.Path,
		int(cfg.BusyTimeout.Milliseconds()),
	)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.ARCHIVE_OPEN_FAILED, "failed to open archive database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.ARCHIVE_OPEN_FAILED, "failed to ping archive database", err)
	}

	s := &Store{conn: conn, path: cfg.Path}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

// migrate applies the snapshot schema. Idempotent.
func (s *Store) migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS mission_snapshots (
			mission_id    TEXT PRIMARY KEY,
			workflow_name TEXT NOT NULL,
			status        TEXT NOT NULL,
			progress      INTEGER NOT NULL,
			definition    TEXT,
			logs          TEXT NOT NULL,
			created_at    TIMESTAMP NOT NULL,
			started_at    TIMESTAMP,
			completed_at  TIMESTAMP,
			archived_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_mission_snapshots_status
			ON mission_snapshots(status);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return types.WrapError(types.ARCHIVE_MIGRATION_FAILED, "failed to apply archive schema", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Path returns the archive database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveSnapshot upserts the snapshot for snap.MissionID.
func (s *Store) SaveSnapshot(ctx context.Context, snap *mission.Snapshot) error {
	if snap == nil {
		return types.NewError(types.ARCHIVE_WRITE_FAILED, "snapshot cannot be nil")
	}

	definitionJSON, err := json.Marshal(snap.Definition)
	if err != nil {
		return types.WrapError(types.ARCHIVE_WRITE_FAILED, "failed to marshal workflow definition", err)
	}
	logsJSON, err := json.Marshal(snap.Logs)
	if err != nil {
		return types.WrapError(types.ARCHIVE_WRITE_FAILED, "failed to marshal mission logs", err)
	}

	const query = `
		INSERT OR REPLACE INTO mission_snapshots (
			mission_id, workflow_name, status, progress, definition, logs,
			created_at, started_at, completed_at, archived_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err = s.conn.ExecContext(ctx, query,
		snap.MissionID.String(),
		snap.WorkflowName,
		snap.Status.String(),
		snap.Progress,
		string(definitionJSON),
		string(logsJSON),
		snap.CreatedAt,
		snap.StartedAt,
		snap.CompletedAt,
	)
	if err != nil {
		return types.WrapError(types.ARCHIVE_WRITE_FAILED,
			fmt.Sprintf("failed to archive mission %s", snap.MissionID), err)
	}
	return nil
}

// GetSnapshot retrieves one archived snapshot, or ARCHIVE_NOT_FOUND.
func (s *Store) GetSnapshot(ctx context.Context, missionID types.ID) (*mission.Snapshot, error) {
	const query = `
		SELECT mission_id, workflow_name, status, progress, definition, logs,
		       created_at, started_at, completed_at
		FROM mission_snapshots
		WHERE mission_id = ?
	`
	snap, err := scanSnapshot(s.conn.QueryRowContext(ctx, query, missionID.String()))
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.ARCHIVE_NOT_FOUND,
			fmt.Sprintf("no archived snapshot for mission %s", missionID))
	}
	if err != nil {
		return nil, types.WrapError(types.ARCHIVE_OPEN_FAILED,
			fmt.Sprintf("failed to load snapshot for mission %s", missionID), err)
	}
	return snap, nil
}

// ListSnapshots returns archived snapshots, most recently archived first.
// An empty status lists all snapshots.
func (s *Store) ListSnapshots(ctx context.Context, status mission.Status) ([]*mission.Snapshot, error) {
	query := `
		SELECT mission_id, workflow_name, status, progress, definition, logs,
		       created_at, started_at, completed_at
		FROM mission_snapshots
	`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status.String())
	}
	query += " ORDER BY archived_at DESC"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.ARCHIVE_OPEN_FAILED, "failed to list snapshots", err)
	}
	defer rows.Close()

	var out []*mission.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, types.WrapError(types.ARCHIVE_OPEN_FAILED, "failed to scan snapshot row", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.ARCHIVE_OPEN_FAILED, "failed to iterate snapshots", err)
	}
	return out, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*mission.Snapshot, error) {
	var (
		snap           mission.Snapshot
		missionID      string
		status         string
		definitionJSON string
		logsJSON       string
	)
	err := row.Scan(
		&missionID,
		&snap.WorkflowName,
		&status,
		&snap.Progress,
		&definitionJSON,
		&logsJSON,
		&snap.CreatedAt,
		&snap.StartedAt,
		&snap.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.MissionID = types.ID(missionID)
	snap.Status = mission.Status(status)

	if definitionJSON != "" && definitionJSON != "null" {
		var def graph.Graph
		if err := json.Unmarshal([]byte(definitionJSON), &def); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow definition: %w", err)
		}
		snap.Definition = &def
	}
	if err := json.Unmarshal([]byte(logsJSON), &snap.Logs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal mission logs: %w", err)
	}

	return &snap, nil
}

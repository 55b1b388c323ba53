// Package draft keeps controls that are still being filled in, together with
// their product and point lines, in an embedded SQLite database.
package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS controles_draft (
		local_id   INTEGER PRIMARY KEY AUTOINCREMENT,
		empresa_id TEXT,
		cliente_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		data       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_controles_draft_empresa_id ON controles_draft (empresa_id)`,
	`CREATE INDEX IF NOT EXISTS idx_controles_draft_created_at ON controles_draft (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_controles_draft_cliente_id ON controles_draft (cliente_id)`,
	`CREATE TABLE IF NOT EXISTS productos_draft (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		local_control_id INTEGER NOT NULL,
		data             TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_productos_draft_local_control_id ON productos_draft (local_control_id)`,
	`CREATE TABLE IF NOT EXISTS puntos_draft (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		local_control_id INTEGER NOT NULL,
		data             TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_puntos_draft_local_control_id ON puntos_draft (local_control_id)`,
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store Local Draft Store. The database is opened lazily on first use.
type Store struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
	db *sql.DB

	now func() time.Time
}

// NewStore creates a store backed by the SQLite file at path (":memory:" is accepted).
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Init opens the database and creates tables and indexes on first use.
// Repeated calls return the already open handle.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

func (s *Store) conn(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, apperrors.LocalStorage("open", err)
	}
	// one writer; SQLite serializes anyway and this avoids SQLITE_BUSY inside transactions
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		s.logger.Error("Failed to open draft store", zap.String("path", s.path), zap.Error(err))
		return nil, apperrors.LocalStorage("open", err)
	}

	s.db = db
	s.logger.Info("Draft store opened", zap.String("path", s.path), zap.Int("schema_version", schemaVersion))
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// withTx runs fn in one SQLite transaction.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.LocalStorage(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		s.logger.Error("Draft store operation failed", zap.String("op", op), zap.Error(err))
		return apperrors.LocalStorage(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.LocalStorage(op, err)
	}
	return nil
}

// SaveDraftControl inserts d when LocalID is zero, otherwise overwrites the record.
// created_at is kept from the first insert; updated_at is stamped on every save.
func (s *Store) SaveDraftControl(ctx context.Context, d *domain.DraftControl) (int64, error) {
	if d == nil {
		return 0, apperrors.Validation("draft is required")
	}

	now := s.now()
	err := s.withTx(ctx, "save controles_draft", func(tx *sql.Tx) error {
		if d.LocalID != 0 {
			var created string
			err := tx.QueryRowContext(ctx, `SELECT created_at FROM controles_draft WHERE local_id = ?`, d.LocalID).Scan(&created)
			switch {
			case err == nil:
				if t, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
					d.CreatedAt = t
				}
			case errors.Is(err, sql.ErrNoRows):
			default:
				return err
			}
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		d.UpdatedAt = now

		data, err := json.Marshal(d)
		if err != nil {
			return err
		}

		if d.LocalID == 0 {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO controles_draft (empresa_id, cliente_id, created_at, updated_at, data)
				VALUES (?, ?, ?, ?, ?)
			`, d.EmpresaID, d.ClienteID, formatTime(d.CreatedAt), formatTime(d.UpdatedAt), string(data))
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			d.LocalID = id
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO controles_draft (local_id, empresa_id, cliente_id, created_at, updated_at, data)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(local_id) DO UPDATE SET
				empresa_id = excluded.empresa_id,
				cliente_id = excluded.cliente_id,
				updated_at = excluded.updated_at,
				data = excluded.data
		`, d.LocalID, d.EmpresaID, d.ClienteID, formatTime(d.CreatedAt), formatTime(d.UpdatedAt), string(data))
		return err
	})
	if err != nil {
		return 0, err
	}
	return d.LocalID, nil
}

// GetDraftControl returns apperrors.ErrNotFound when no draft has the id.
func (s *Store) GetDraftControl(ctx context.Context, localID int64) (*domain.DraftControl, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var data string
	err = db.QueryRowContext(ctx, `SELECT data FROM controles_draft WHERE local_id = ?`, localID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("draft %d: %w", localID, apperrors.ErrNotFound)
		}
		return nil, apperrors.LocalStorage("get controles_draft", err)
	}
	return decodeControl(localID, data)
}

// GetAllDraftControls returns every draft in local id order.
func (s *Store) GetAllDraftControls(ctx context.Context) ([]*domain.DraftControl, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT local_id, data FROM controles_draft ORDER BY local_id`)
	if err != nil {
		return nil, apperrors.LocalStorage("list controles_draft", err)
	}
	defer rows.Close()

	out := []*domain.DraftControl{}
	for rows.Next() {
		var id int64
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, apperrors.LocalStorage("list controles_draft", err)
		}
		d, err := decodeControl(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, apperrors.LocalStorage("list controles_draft", rows.Err())
}

func decodeControl(id int64, data string) (*domain.DraftControl, error) {
	var d domain.DraftControl
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, apperrors.LocalStorage("decode controles_draft", err)
	}
	d.LocalID = id
	return &d, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

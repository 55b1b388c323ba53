package draft

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
)

const (
	tableProducts = "productos_draft"
	tablePoints   = "puntos_draft"
)

// SaveDraftProduct appends one product line to the draft and returns its id.
func (s *Store) SaveDraftProduct(ctx context.Context, localControlID int64, p domain.DraftProduct) (int64, error) {
	p.LocalControlID = localControlID
	return s.insertChild(ctx, tableProducts, localControlID, p)
}

// GetDraftProducts returns the product lines of the draft in insertion order.
func (s *Store) GetDraftProducts(ctx context.Context, localControlID int64) ([]domain.DraftProduct, error) {
	out := []domain.DraftProduct{}
	err := s.scanChildren(ctx, tableProducts, localControlID, func(id int64, data []byte) error {
		var p domain.DraftProduct
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		p.ID = id
		p.LocalControlID = localControlID
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteDraftProducts removes every product line of the draft.
func (s *Store) DeleteDraftProducts(ctx context.Context, localControlID int64) error {
	return s.withTx(ctx, "delete "+tableProducts, func(tx *sql.Tx) error {
		return deleteChildren(ctx, tx, tableProducts, localControlID)
	})
}

// SyncProducts replaces the product lines of the draft with products, in order.
func (s *Store) SyncProducts(ctx context.Context, localControlID int64, products []domain.DraftProduct) error {
	return s.withTx(ctx, "sync "+tableProducts, func(tx *sql.Tx) error {
		if err := deleteChildren(ctx, tx, tableProducts, localControlID); err != nil {
			return err
		}
		for _, p := range products {
			p.ID = 0
			p.LocalControlID = localControlID
			if _, err := insertChild(ctx, tx, tableProducts, localControlID, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveDraftPoint appends one point to the draft and returns its id.
func (s *Store) SaveDraftPoint(ctx context.Context, localControlID int64, p domain.DraftPoint) (int64, error) {
	p.LocalControlID = localControlID
	return s.insertChild(ctx, tablePoints, localControlID, p)
}

// GetDraftPoints returns the points of the draft in insertion order.
func (s *Store) GetDraftPoints(ctx context.Context, localControlID int64) ([]domain.DraftPoint, error) {
	out := []domain.DraftPoint{}
	err := s.scanChildren(ctx, tablePoints, localControlID, func(id int64, data []byte) error {
		var p domain.DraftPoint
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		p.ID = id
		p.LocalControlID = localControlID
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteDraftPoints removes every point of the draft.
func (s *Store) DeleteDraftPoints(ctx context.Context, localControlID int64) error {
	return s.withTx(ctx, "delete "+tablePoints, func(tx *sql.Tx) error {
		return deleteChildren(ctx, tx, tablePoints, localControlID)
	})
}

// SyncPoints replaces the points of the draft with points, in order.
func (s *Store) SyncPoints(ctx context.Context, localControlID int64, points []domain.DraftPoint) error {
	return s.withTx(ctx, "sync "+tablePoints, func(tx *sql.Tx) error {
		if err := deleteChildren(ctx, tx, tablePoints, localControlID); err != nil {
			return err
		}
		for _, p := range points {
			p.ID = 0
			p.LocalControlID = localControlID
			if _, err := insertChild(ctx, tx, tablePoints, localControlID, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteDraft removes the draft with all of its products and points.
func (s *Store) DeleteDraft(ctx context.Context, localID int64) error {
	return s.withTx(ctx, "delete controles_draft", func(tx *sql.Tx) error {
		if err := deleteChildren(ctx, tx, tableProducts, localID); err != nil {
			return err
		}
		if err := deleteChildren(ctx, tx, tablePoints, localID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM controles_draft WHERE local_id = ?`, localID)
		return err
	})
}

func (s *Store) insertChild(ctx context.Context, table string, localControlID int64, v any) (int64, error) {
	var id int64
	err := s.withTx(ctx, "save "+table, func(tx *sql.Tx) error {
		var err error
		id, err = insertChild(ctx, tx, table, localControlID, v)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) scanChildren(ctx context.Context, table string, localControlID int64, fn func(id int64, data []byte) error) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, data FROM `+table+` WHERE local_control_id = ? ORDER BY id`, localControlID)
	if err != nil {
		return apperrors.LocalStorage("list "+table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return apperrors.LocalStorage("list "+table, err)
		}
		if err := fn(id, []byte(data)); err != nil {
			return apperrors.LocalStorage("decode "+table, err)
		}
	}
	return apperrors.LocalStorage("list "+table, rows.Err())
}

func insertChild(ctx context.Context, q execer, table string, localControlID int64, v any) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	res, err := q.ExecContext(ctx, `INSERT INTO `+table+` (local_control_id, data) VALUES (?, ?)`, localControlID, string(data))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func deleteChildren(ctx context.Context, q execer, table string, localControlID int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE local_control_id = ?`, localControlID)
	return err
}

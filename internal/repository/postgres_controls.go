package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"

	"go.uber.org/zap"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

const controlColumns = `
			control_id::text,
			empresa_id::text,
			cliente_id::text,
			planta_id::text,
			tecnico_id::text,
			fecha_control::text,
			tipo_control,
			observaciones,
			firma_tecnico,
			estado,
			completed_at`

// PostgresControlsRepository controles / control_productos / control_puntos over Postgres.
type PostgresControlsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresControlsRepository creates the repository.
func NewPostgresControlsRepository(db *sql.DB, logger *zap.Logger) *PostgresControlsRepository {
	return &PostgresControlsRepository{db: db, logger: logger}
}

var _ ControlsRepository = (*PostgresControlsRepository)(nil)

// GetControl returns one control by id.
func (r *PostgresControlsRepository) GetControl(ctx context.Context, controlID string) (*domain.Control, error) {
	if controlID == "" {
		return nil, fmt.Errorf("control_id is required: %w", apperrors.ErrNotFound)
	}

	query := `SELECT` + controlColumns + `
		FROM controles
		WHERE control_id = $1`

	control, err := scanControl(r.db.QueryRowContext(ctx, query, controlID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("control %s: %w", controlID, apperrors.ErrNotFound)
		}
		return nil, apperrors.Remote("select controles", err)
	}
	return control, nil
}

// ListControls lists the company's controls, newest first.
func (r *PostgresControlsRepository) ListControls(ctx context.Context, empresaID string, filters *ControlFilters, limit int) ([]*domain.Control, error) {
	if empresaID == "" {
		return []*domain.Control{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	where := []string{"empresa_id = $1"}
	args := []any{empresaID}
	argN := 2

	if filters != nil {
		if filters.ClienteID != "" {
			where = append(where, fmt.Sprintf("cliente_id = $%d", argN))
			args = append(args, filters.ClienteID)
			argN++
		}
		if filters.TecnicoID != "" {
			where = append(where, fmt.Sprintf("tecnico_id = $%d", argN))
			args = append(args, filters.TecnicoID)
			argN++
		}
		if filters.Desde != "" {
			where = append(where, fmt.Sprintf("fecha_control >= $%d", argN))
			args = append(args, filters.Desde)
			argN++
		}
		if filters.Hasta != "" {
			where = append(where, fmt.Sprintf("fecha_control <= $%d", argN))
			args = append(args, filters.Hasta)
			argN++
		}
	}

	args = append(args, limit)
	query := `SELECT` + controlColumns + `
		FROM controles
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY fecha_control DESC, completed_at DESC
		LIMIT $` + fmt.Sprintf("%d", argN)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Remote("select controles", err)
	}
	defer rows.Close()

	controls := []*domain.Control{}
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, apperrors.Remote("scan controles", err)
		}
		controls = append(controls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Remote("iterate controles", err)
	}
	return controls, nil
}

// ListProducts returns the product lines of a control in insertion order.
func (r *PostgresControlsRepository) ListProducts(ctx context.Context, controlID string) ([]domain.ProductUsage, error) {
	query := `
		SELECT
			id::text,
			control_id::text,
			producto_id::text,
			cantidad_usada,
			unidad
		FROM control_productos
		WHERE control_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, controlID)
	if err != nil {
		return nil, apperrors.Remote("select control_productos", err)
	}
	defer rows.Close()

	out := []domain.ProductUsage{}
	for rows.Next() {
		var p domain.ProductUsage
		var unidad sql.NullString
		if err := rows.Scan(&p.ID, &p.ControlID, &p.ProductoID, &p.CantidadUsada, &unidad); err != nil {
			return nil, apperrors.Remote("scan control_productos", err)
		}
		p.Unidad = unidad.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Remote("iterate control_productos", err)
	}
	return out, nil
}

// ListPoints returns the inspection points of a control in insertion order.
func (r *PostgresControlsRepository) ListPoints(ctx context.Context, controlID string) ([]domain.ControlPoint, error) {
	query := `
		SELECT
			id::text,
			control_id::text,
			numero_punto,
			tipo_plaga,
			tipo_dispositivo,
			ubicacion,
			estado,
			actividad_detectada,
			descripcion_actividad,
			accion_realizada
		FROM control_puntos
		WHERE control_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, controlID)
	if err != nil {
		return nil, apperrors.Remote("select control_puntos", err)
	}
	defer rows.Close()

	out := []domain.ControlPoint{}
	for rows.Next() {
		var p domain.ControlPoint
		var tipoDispositivo, ubicacion, descripcion, accion sql.NullString
		if err := rows.Scan(
			&p.ID,
			&p.ControlID,
			&p.NumeroPunto,
			&p.TipoPlaga,
			&tipoDispositivo,
			&ubicacion,
			&p.Estado,
			&p.ActividadDetectada,
			&descripcion,
			&accion,
		); err != nil {
			return nil, apperrors.Remote("scan control_puntos", err)
		}
		p.TipoDispositivo = tipoDispositivo.String
		p.Ubicacion = ubicacion.String
		p.DescripcionActividad = descripcion.String
		p.AccionRealizada = accion.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Remote("iterate control_puntos", err)
	}
	return out, nil
}

// WithinTx runs fn inside one SQL transaction; any error rolls back every step.
func (r *PostgresControlsRepository) WithinTx(ctx context.Context, fn func(w ControlWriter) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Remote("begin transaction", err)
	}

	if err := fn(&postgresControlWriter{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Warn("Failed to roll back control transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Remote("commit transaction", err)
	}
	return nil
}

// postgresControlWriter ControlWriter bound to one transaction.
type postgresControlWriter struct {
	q queryer
}

var _ ControlWriter = (*postgresControlWriter)(nil)

func (w *postgresControlWriter) InsertControl(ctx context.Context, c *domain.Control) (*domain.Control, error) {
	query := `
		INSERT INTO controles (
			empresa_id,
			cliente_id,
			planta_id,
			tecnico_id,
			fecha_control,
			tipo_control,
			observaciones,
			firma_tecnico,
			estado,
			completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING` + controlColumns

	row := w.q.QueryRowContext(ctx, query,
		c.EmpresaID,
		c.ClienteID,
		nullIfEmpty(c.PlantaID),
		c.TecnicoID,
		nullIfEmpty(c.FechaControl),
		c.TipoControl,
		nullIfEmpty(c.Observaciones),
		nullIfEmpty(c.FirmaTecnico),
		c.Estado,
		c.CompletedAt,
	)
	inserted, err := scanControl(row)
	if err != nil {
		return nil, apperrors.Remote("insert controles", err)
	}
	return inserted, nil
}

func (w *postgresControlWriter) UpdateControl(ctx context.Context, controlID string, c *domain.Control) (*domain.Control, error) {
	query := `
		UPDATE controles
		SET
			cliente_id = $2,
			planta_id = $3,
			tecnico_id = $4,
			fecha_control = $5,
			tipo_control = $6,
			observaciones = $7,
			firma_tecnico = $8,
			estado = $9,
			completed_at = $10
		WHERE control_id = $1
		RETURNING` + controlColumns

	row := w.q.QueryRowContext(ctx, query,
		controlID,
		c.ClienteID,
		nullIfEmpty(c.PlantaID),
		c.TecnicoID,
		nullIfEmpty(c.FechaControl),
		c.TipoControl,
		nullIfEmpty(c.Observaciones),
		nullIfEmpty(c.FirmaTecnico),
		c.Estado,
		c.CompletedAt,
	)
	updated, err := scanControl(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("control %s: %w", controlID, apperrors.ErrNotFound)
		}
		return nil, apperrors.Remote("update controles", err)
	}
	return updated, nil
}

func (w *postgresControlWriter) InsertProducts(ctx context.Context, rows []domain.ProductUsage) error {
	if len(rows) == 0 {
		return nil
	}
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*4)
	for i, p := range rows {
		n := i * 4
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4))
		args = append(args, p.ControlID, p.ProductoID, p.CantidadUsada, nullIfEmpty(p.Unidad))
	}
	query := `INSERT INTO control_productos (control_id, producto_id, cantidad_usada, unidad) VALUES ` +
		strings.Join(values, ", ")

	if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Remote("insert control_productos", err)
	}
	return nil
}

func (w *postgresControlWriter) InsertPoints(ctx context.Context, rows []domain.ControlPoint) error {
	if len(rows) == 0 {
		return nil
	}
	const cols = 9
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*cols)
	for i, p := range rows {
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", i*cols+j+1)
		}
		values = append(values, "("+strings.Join(ph, ", ")+")")
		args = append(args,
			p.ControlID,
			p.NumeroPunto,
			p.TipoPlaga,
			nullIfEmpty(p.TipoDispositivo),
			nullIfEmpty(p.Ubicacion),
			p.Estado,
			p.ActividadDetectada,
			nullIfEmpty(p.DescripcionActividad),
			nullIfEmpty(p.AccionRealizada),
		)
	}
	query := `INSERT INTO control_puntos (control_id, numero_punto, tipo_plaga, tipo_dispositivo, ubicacion, estado, actividad_detectada, descripcion_actividad, accion_realizada) VALUES ` +
		strings.Join(values, ", ")

	if _, err := w.q.ExecContext(ctx, query, args...); err != nil {
		return apperrors.Remote("insert control_puntos", err)
	}
	return nil
}

func (w *postgresControlWriter) DeleteProducts(ctx context.Context, controlID string) (int64, error) {
	result, err := w.q.ExecContext(ctx, `DELETE FROM control_productos WHERE control_id = $1`, controlID)
	if err != nil {
		return 0, apperrors.Remote("delete control_productos", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Remote("delete control_productos", err)
	}
	return n, nil
}

func (w *postgresControlWriter) DeletePoints(ctx context.Context, controlID string) (int64, error) {
	result, err := w.q.ExecContext(ctx, `DELETE FROM control_puntos WHERE control_id = $1`, controlID)
	if err != nil {
		return 0, apperrors.Remote("delete control_puntos", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Remote("delete control_puntos", err)
	}
	return n, nil
}

func scanControl(s rowScanner) (*domain.Control, error) {
	var c domain.Control
	var plantaID, fecha, observaciones, firma sql.NullString
	var completedAt sql.NullTime

	if err := s.Scan(
		&c.ControlID,
		&c.EmpresaID,
		&c.ClienteID,
		&plantaID,
		&c.TecnicoID,
		&fecha,
		&c.TipoControl,
		&observaciones,
		&firma,
		&c.Estado,
		&completedAt,
	); err != nil {
		return nil, err
	}

	c.PlantaID = plantaID.String
	c.FechaControl = fecha.String
	c.Observaciones = observaciones.String
	c.FirmaTecnico = firma.String
	if completedAt.Valid {
		t := completedAt.Time
		c.CompletedAt = &t
	}
	return &c, nil
}

// nullIfEmpty maps "" to SQL NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

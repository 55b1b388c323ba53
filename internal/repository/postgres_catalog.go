package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
)

// PostgresCatalogRepository clientes / plantas / worker / productos lookups.
type PostgresCatalogRepository struct {
	db *sql.DB
}

// NewPostgresCatalogRepository creates the repository.
func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

var (
	_ CatalogRepository = (*PostgresCatalogRepository)(nil)
	_ WorkersRepository = (*PostgresCatalogRepository)(nil)
)

// ListClientes clients of a company ordered by name.
func (r *PostgresCatalogRepository) ListClientes(ctx context.Context, empresaID string) ([]domain.Cliente, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cliente_id::text, nombre
		FROM clientes
		WHERE empresa_id = $1
		ORDER BY nombre
	`, empresaID)
	if err != nil {
		return nil, apperrors.Remote("select clientes", err)
	}
	defer rows.Close()

	out := []domain.Cliente{}
	for rows.Next() {
		var c domain.Cliente
		if err := rows.Scan(&c.ClienteID, &c.Nombre); err != nil {
			return nil, apperrors.Remote("scan clientes", err)
		}
		out = append(out, c)
	}
	return out, apperrors.Remote("iterate clientes", rows.Err())
}

// ListPlantas sites of a client ordered by name.
func (r *PostgresCatalogRepository) ListPlantas(ctx context.Context, clienteID string) ([]domain.Planta, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT planta_id::text, nombre
		FROM plantas
		WHERE cliente_id = $1
		ORDER BY nombre
	`, clienteID)
	if err != nil {
		return nil, apperrors.Remote("select plantas", err)
	}
	defer rows.Close()

	out := []domain.Planta{}
	for rows.Next() {
		var p domain.Planta
		if err := rows.Scan(&p.PlantaID, &p.Nombre); err != nil {
			return nil, apperrors.Remote("scan plantas", err)
		}
		out = append(out, p)
	}
	return out, apperrors.Remote("iterate plantas", rows.Err())
}

// ListTecnicos workers of a company ordered by name.
func (r *PostgresCatalogRepository) ListTecnicos(ctx context.Context, empresaID string) ([]domain.Tecnico, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT worker_id::text, nombre, puesto
		FROM worker
		WHERE empresa_id = $1
		ORDER BY nombre
	`, empresaID)
	if err != nil {
		return nil, apperrors.Remote("select worker", err)
	}
	defer rows.Close()

	out := []domain.Tecnico{}
	for rows.Next() {
		var t domain.Tecnico
		var puesto sql.NullString
		if err := rows.Scan(&t.WorkerID, &t.Nombre, &puesto); err != nil {
			return nil, apperrors.Remote("scan worker", err)
		}
		t.Puesto = puesto.String
		out = append(out, t)
	}
	return out, apperrors.Remote("iterate worker", rows.Err())
}

// ListProductos products of a company ordered by type then name.
func (r *PostgresCatalogRepository) ListProductos(ctx context.Context, empresaID string) ([]domain.Producto, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			producto_id::text,
			nombre,
			tipo_producto,
			principio_activo,
			laboratorio,
			certificado,
			unidad_medida
		FROM productos
		WHERE empresa_id = $1
		ORDER BY tipo_producto, nombre
	`, empresaID)
	if err != nil {
		return nil, apperrors.Remote("select productos", err)
	}
	defer rows.Close()

	out := []domain.Producto{}
	for rows.Next() {
		var p domain.Producto
		var tipo, principio, laboratorio, certificado, unidad sql.NullString
		if err := rows.Scan(&p.ProductoID, &p.Nombre, &tipo, &principio, &laboratorio, &certificado, &unidad); err != nil {
			return nil, apperrors.Remote("scan productos", err)
		}
		p.TipoProducto = tipo.String
		p.PrincipioActivo = principio.String
		p.Laboratorio = laboratorio.String
		p.Certificado = certificado.String
		p.UnidadMedida = unidad.String
		out = append(out, p)
	}
	return out, apperrors.Remote("iterate productos", rows.Err())
}

const workerProfileQuery = `
		SELECT
			w.worker_id::text,
			w.user_id::text,
			w.empresa_id::text,
			e.nombre,
			w.nombre,
			w.puesto,
			w.mail
		FROM worker w
		LEFT JOIN empresas e ON e.empresa_id = w.empresa_id
	`

// GetByUserID worker linked to an auth user.
func (r *PostgresCatalogRepository) GetByUserID(ctx context.Context, userID string) (*domain.WorkerProfile, error) {
	return r.getWorker(ctx, workerProfileQuery+`WHERE w.user_id = $1`, userID)
}

// GetByEmail worker registered with the given mail.
func (r *PostgresCatalogRepository) GetByEmail(ctx context.Context, email string) (*domain.WorkerProfile, error) {
	return r.getWorker(ctx, workerProfileQuery+`WHERE w.mail = $1`, email)
}

// LinkUserID sets worker.user_id.
func (r *PostgresCatalogRepository) LinkUserID(ctx context.Context, workerID, userID string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE worker SET user_id = $2 WHERE worker_id = $1`, workerID, userID)
	if err != nil {
		return apperrors.Remote("update worker", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.Remote("update worker", err)
	}
	if n == 0 {
		return fmt.Errorf("worker %s: %w", workerID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PostgresCatalogRepository) getWorker(ctx context.Context, query string, arg string) (*domain.WorkerProfile, error) {
	if arg == "" {
		return nil, fmt.Errorf("worker lookup key is empty: %w", apperrors.ErrNotFound)
	}

	var w domain.WorkerProfile
	var userID, empresaNombre, puesto, mail sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&w.WorkerID,
		&userID,
		&w.EmpresaID,
		&empresaNombre,
		&w.Nombre,
		&puesto,
		&mail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("worker: %w", apperrors.ErrNotFound)
		}
		return nil, apperrors.Remote("select worker", err)
	}
	w.UserID = userID.String
	w.EmpresaNombre = empresaNombre.String
	w.Puesto = puesto.String
	w.Mail = mail.String
	return &w, nil
}

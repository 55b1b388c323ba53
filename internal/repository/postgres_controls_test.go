package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var controlRowColumns = []string{
	"control_id", "empresa_id", "cliente_id", "planta_id", "tecnico_id", "fecha_control",
	"tipo_control", "observaciones", "firma_tecnico", "estado", "completed_at",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresControlsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresControlsRepository(db, zap.NewNop())
	return db, mock, repo
}

func TestGetControl_Success(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	completed := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(controlRowColumns).
		AddRow("c-1", "e-1", "cl-1", nil, "w-1", "2024-05-02", "preventivo", nil, "w-1/sello.png", "completado", completed)

	mock.ExpectQuery(`SELECT`).
		WithArgs("c-1").
		WillReturnRows(rows)

	control, err := repo.GetControl(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", control.ControlID)
	assert.Equal(t, "", control.PlantaID)
	assert.Equal(t, "w-1/sello.png", control.FirmaTecnico)
	require.NotNil(t, control.CompletedAt)
	assert.True(t, completed.Equal(*control.CompletedAt))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetControl_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(controlRowColumns))

	_, err := repo.GetControl(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListControls_WithFilters(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows(controlRowColumns).
		AddRow("c-2", "e-1", "cl-1", "p-1", "w-1", "2024-05-03", "correctivo", "obs", nil, "completado", nil).
		AddRow("c-1", "e-1", "cl-1", nil, "w-1", "2024-05-02", "preventivo", nil, nil, "completado", nil)

	mock.ExpectQuery(`ORDER BY fecha_control DESC`).
		WithArgs("e-1", "cl-1", "2024-05-01", 10).
		WillReturnRows(rows)

	controls, err := repo.ListControls(context.Background(), "e-1", &ControlFilters{ClienteID: "cl-1", Desde: "2024-05-01"}, 10)
	require.NoError(t, err)
	require.Len(t, controls, 2)
	assert.Equal(t, "c-2", controls[0].ControlID)
	assert.Equal(t, "p-1", controls[0].PlantaID)
	assert.Nil(t, controls[1].CompletedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListControls_EmptyEmpresa(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	controls, err := repo.ListControls(context.Background(), "", nil, 0)
	require.NoError(t, err)
	assert.Len(t, controls, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPoints_NullableColumns(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "control_id", "numero_punto", "tipo_plaga", "tipo_dispositivo", "ubicacion",
		"estado", "actividad_detectada", "descripcion_actividad", "accion_realizada",
	}).AddRow("pt-1", "c-1", 3, "roedores", nil, "Depósito", "con_actividad", true, nil, "cebo repuesto")

	mock.ExpectQuery(`FROM control_puntos`).
		WithArgs("c-1").
		WillReturnRows(rows)

	points, err := repo.ListPoints(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 3, points[0].NumeroPunto)
	assert.Equal(t, "", points[0].TipoDispositivo)
	assert.True(t, points[0].ActividadDetectada)
	assert.Equal(t, "cebo repuesto", points[0].AccionRealizada)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_InsertCommits(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO controles`).
		WillReturnRows(sqlmock.NewRows(controlRowColumns).
			AddRow("c-new", "e-1", "cl-1", nil, "w-1", "2024-05-02", "preventivo", nil, nil, "completado", time.Now()))
	mock.ExpectExec(`INSERT INTO control_productos`).
		WithArgs("c-new", "pr-1", 2.5, "L", "c-new", "pr-2", 1.0, nil).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	var saved *domain.Control
	err := repo.WithinTx(context.Background(), func(w ControlWriter) error {
		c, err := w.InsertControl(context.Background(), &domain.Control{
			EmpresaID:    "e-1",
			ClienteID:    "cl-1",
			TecnicoID:    "w-1",
			FechaControl: "2024-05-02",
			TipoControl:  "preventivo",
			Estado:       domain.EstadoCompletado,
		})
		if err != nil {
			return err
		}
		saved = c
		return w.InsertProducts(context.Background(), []domain.ProductUsage{
			{ControlID: c.ControlID, ProductoID: "pr-1", CantidadUsada: 2.5, Unidad: "L"},
			{ControlID: c.ControlID, ProductoID: "pr-2", CantidadUsada: 1},
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "c-new", saved.ControlID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_FailureRollsBack(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE controles`).
		WillReturnRows(sqlmock.NewRows(controlRowColumns).
			AddRow("c-1", "e-1", "cl-1", nil, "w-1", "2024-05-02", "preventivo", nil, nil, "completado", time.Now()))
	mock.ExpectExec(`DELETE FROM control_productos`).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO control_productos`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.WithinTx(context.Background(), func(w ControlWriter) error {
		if _, err := w.UpdateControl(context.Background(), "c-1", &domain.Control{ClienteID: "cl-1", TecnicoID: "w-1", Estado: domain.EstadoCompletado}); err != nil {
			return err
		}
		n, err := w.DeleteProducts(context.Background(), "c-1")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(3), n)
		return w.InsertProducts(context.Background(), []domain.ProductUsage{{ControlID: "c-1", ProductoID: "pr-1", CantidadUsada: 1}})
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsRemote(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateControl_NotFound(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE controles`).
		WillReturnRows(sqlmock.NewRows(controlRowColumns))
	mock.ExpectRollback()

	err := repo.WithinTx(context.Background(), func(w ControlWriter) error {
		_, err := w.UpdateControl(context.Background(), "gone", &domain.Control{})
		return err
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPoints_EmptyIsNoop(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := repo.WithinTx(context.Background(), func(w ControlWriter) error {
		return w.InsertPoints(context.Background(), nil)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

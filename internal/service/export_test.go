package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateControlWorkbook(t *testing.T) {
	completed := time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)
	detail := &domain.ControlDetail{
		Control: &domain.Control{
			ControlID:    "ctrl-1",
			ClienteID:    "c1",
			TecnicoID:    "t1",
			FechaControl: "2024-01-01",
			TipoControl:  "preventivo",
			Estado:       domain.EstadoCompletado,
			CompletedAt:  &completed,
		},
		Productos: []domain.ProductUsage{{ProductoID: "p1", CantidadUsada: 2, Unidad: "kg"}},
		Puntos: []domain.ControlPoint{
			{NumeroPunto: 1, TipoPlaga: domain.PlagaRoedores, Estado: domain.PuntoConActividad, ActividadDetectada: true},
		},
	}

	data, err := GenerateControlWorkbook(detail)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Control", "Productos", "Puntos"}, f.GetSheetList())

	v, err := f.GetCellValue("Control", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Valor", v)
	v, err = f.GetCellValue("Control", "B2")
	require.NoError(t, err)
	assert.Equal(t, "ctrl-1", v)

	v, err = f.GetCellValue("Productos", "C2")
	require.NoError(t, err)
	assert.Equal(t, "kg", v)

	v, err = f.GetCellValue("Puntos", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Roedores", v)
	v, err = f.GetCellValue("Puntos", "E2")
	require.NoError(t, err)
	assert.Equal(t, "Con Actividad", v)
	v, err = f.GetCellValue("Puntos", "F2")
	require.NoError(t, err)
	assert.Equal(t, "Sí", v)
}

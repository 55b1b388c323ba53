package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/leonelpereyra44/pestcontrol/internal/collection"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	controlSheetHeader  = []string{"Campo", "Valor"}
	productsSheetHeader = []string{"Producto", "Cantidad", "Unidad"}
	pointsSheetHeader   = []string{"Número", "Plaga", "Dispositivo", "Ubicación", "Estado", "Actividad", "Descripción", "Acción realizada"}
)

// Export renders a control of the worker's company as an XLSX workbook and
// returns it with its download name.
func (s *ControlService) Export(ctx context.Context, worker *domain.WorkerProfile, controlID string) ([]byte, string, error) {
	detail, err := s.Get(ctx, worker, controlID)
	if err != nil {
		return nil, "", err
	}
	data, err := GenerateControlWorkbook(detail)
	if err != nil {
		s.logger.Error("Failed to generate control workbook", zap.String("control_id", controlID), zap.Error(err))
		return nil, "", err
	}
	return data, ExportFilename(detail.Control), nil
}

// ExportFilename suggested download name of an exported control.
func ExportFilename(c *domain.Control) string {
	if c.FechaControl != "" {
		return fmt.Sprintf("control_%s_%s.xlsx", c.FechaControl, c.ControlID)
	}
	return fmt.Sprintf("control_%s.xlsx", c.ControlID)
}

// GenerateControlWorkbook builds sheets Control, Productos and Puntos.
func GenerateControlWorkbook(detail *domain.ControlDetail) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open; close only on the way out
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	c := detail.Control
	completed := ""
	if c.CompletedAt != nil {
		completed = c.CompletedAt.Format("2006-01-02 15:04:05")
	}
	controlRows := [][]any{
		{"control_id", c.ControlID},
		{"cliente_id", c.ClienteID},
		{"planta_id", c.PlantaID},
		{"tecnico_id", c.TecnicoID},
		{"fecha_control", c.FechaControl},
		{"tipo_control", c.TipoControl},
		{"observaciones", c.Observaciones},
		{"firma_tecnico", c.FirmaTecnico},
		{"estado", c.Estado},
		{"completed_at", completed},
	}

	productRows := make([][]any, 0, len(detail.Productos))
	for _, p := range detail.Productos {
		productRows = append(productRows, []any{p.ProductoID, p.CantidadUsada, p.Unidad})
	}

	pointRows := make([][]any, 0, len(detail.Puntos))
	for _, p := range detail.Puntos {
		actividad := "No"
		if p.ActividadDetectada {
			actividad = "Sí"
		}
		pointRows = append(pointRows, []any{
			p.NumeroPunto,
			collection.FormatPestType(p.TipoPlaga),
			p.TipoDispositivo,
			p.Ubicacion,
			collection.FormatStatus(p.Estado),
			actividad,
			p.DescripcionActividad,
			p.AccionRealizada,
		})
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]any
		widths []float64
	}{
		{"Control", controlSheetHeader, controlRows, []float64{18, 40}},
		{"Productos", productsSheetHeader, productRows, []float64{38, 12, 10}},
		{"Puntos", pointsSheetHeader, pointRows, []float64{10, 14, 16, 24, 16, 10, 30, 30}},
	}

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sh.name, err)
		}
		if err := writeSheet(f, sh.name, sh.header, sh.rows, sh.widths, headerStyle); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any, widths []float64, headerStyle int) error {
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for r, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

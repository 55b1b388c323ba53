package domain

import "time"

// DraftControl a control kept in the local draft store before submission.
type DraftControl struct {
	LocalID       int64          `json:"local_id,omitempty"`
	ControlID     string         `json:"control_id,omitempty"` // set when the draft edits an existing control
	EmpresaID     string         `json:"empresa_id,omitempty"`
	ClienteID     string         `json:"cliente_id,omitempty"`
	PlantaID      string         `json:"planta_id,omitempty"`
	TecnicoID     string         `json:"tecnico_id,omitempty"`
	FechaControl  string         `json:"fecha_control,omitempty"`
	TipoControl   string         `json:"tipo_control,omitempty"`
	Observaciones string         `json:"observaciones,omitempty"`
	FirmaTecnico  string         `json:"firma_tecnico,omitempty"`
	Wizard        map[string]any `json:"wizard,omitempty"` // free-form UI state (current step etc.)
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Form projects the draft onto the wizard form fields.
func (d *DraftControl) Form() ControlForm {
	return ControlForm{
		ClienteID:     d.ClienteID,
		PlantaID:      d.PlantaID,
		TecnicoID:     d.TecnicoID,
		FechaControl:  d.FechaControl,
		TipoControl:   d.TipoControl,
		Observaciones: d.Observaciones,
	}
}

// DraftProduct product line cached for a draft.
type DraftProduct struct {
	ID             int64   `json:"id,omitempty"`
	LocalControlID int64   `json:"local_control_id"`
	ProductoID     string  `json:"producto_id"`
	Nombre         string  `json:"nombre,omitempty"`
	Cantidad       float64 `json:"cantidad"`
	Unidad         string  `json:"unidad,omitempty"`
}

// DraftPoint control point cached for a draft. Extra keeps the pest-specific
// fields the wizard collects that are not part of control_puntos.
type DraftPoint struct {
	ID                   int64          `json:"id,omitempty"`
	LocalControlID       int64          `json:"local_control_id"`
	Numero               int            `json:"numero"`
	TipoPlaga            string         `json:"tipo_plaga"`
	TipoDispositivo      string         `json:"tipo_dispositivo,omitempty"`
	Ubicacion            string         `json:"ubicacion,omitempty"`
	Estado               string         `json:"estado"`
	ActividadDetectada   bool           `json:"actividad_detectada"`
	DescripcionActividad string         `json:"descripcion_actividad,omitempty"`
	AccionRealizada      string         `json:"accion_realizada,omitempty"`
	Extra                map[string]any `json:"extra,omitempty"`
}

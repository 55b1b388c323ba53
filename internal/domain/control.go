package domain

import "time"

// EstadoCompletado is the only status written for controles.
const EstadoCompletado = "completado"

// Control one inspection visit (table controles).
type Control struct {
	ControlID     string     `db:"control_id" json:"control_id"`         // UUID, PRIMARY KEY
	EmpresaID     string     `db:"empresa_id" json:"empresa_id"`         // UUID, NOT NULL, company of the acting worker
	ClienteID     string     `db:"cliente_id" json:"cliente_id"`         // UUID, NOT NULL
	PlantaID      string     `db:"planta_id" json:"planta_id,omitempty"` // UUID, nullable
	TecnicoID     string     `db:"tecnico_id" json:"tecnico_id"`         // UUID, NOT NULL, FK to worker
	FechaControl  string     `db:"fecha_control" json:"fecha_control"`   // DATE, YYYY-MM-DD
	TipoControl   string     `db:"tipo_control" json:"tipo_control"`     // open set, e.g. 'preventivo'
	Observaciones string     `db:"observaciones" json:"observaciones,omitempty"`
	FirmaTecnico  string     `db:"firma_tecnico" json:"firma_tecnico,omitempty"` // storage path of the signature stamp
	Estado        string     `db:"estado" json:"estado"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// ControlForm the mutable fields collected by the wizard.
type ControlForm struct {
	ClienteID     string `json:"cliente_id"`
	PlantaID      string `json:"planta_id,omitempty"`
	TecnicoID     string `json:"tecnico_id"`
	FechaControl  string `json:"fecha_control"`
	TipoControl   string `json:"tipo_control"`
	Observaciones string `json:"observaciones,omitempty"`
}

// ControlDetail a control with its child rows.
type ControlDetail struct {
	Control   *Control       `json:"control"`
	Productos []ProductUsage `json:"productos"`
	Puntos    []ControlPoint `json:"puntos"`
}

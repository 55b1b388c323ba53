package domain

// Pest types.
const (
	PlagaRoedores  = "roedores"
	PlagaVoladores = "voladores"
	PlagaRastreros = "rastreros"
)

// Point statuses.
const (
	PuntoOK           = "ok"
	PuntoConActividad = "con_actividad"
	PuntoFaltante     = "faltante"
	PuntoReemplazado  = "reemplazado"
)

// ControlPoint monitored device checked during a control (table control_puntos).
type ControlPoint struct {
	ID                   string `db:"id" json:"id,omitempty"`
	ControlID            string `db:"control_id" json:"control_id"`
	NumeroPunto          int    `db:"numero_punto" json:"numero_punto"`
	TipoPlaga            string `db:"tipo_plaga" json:"tipo_plaga"`
	TipoDispositivo      string `db:"tipo_dispositivo" json:"tipo_dispositivo,omitempty"`
	Ubicacion            string `db:"ubicacion" json:"ubicacion,omitempty"`
	Estado               string `db:"estado" json:"estado"`
	ActividadDetectada   bool   `db:"actividad_detectada" json:"actividad_detectada"` // estado == con_actividad
	DescripcionActividad string `db:"descripcion_actividad" json:"descripcion_actividad,omitempty"`
	AccionRealizada      string `db:"accion_realizada" json:"accion_realizada,omitempty"`
}

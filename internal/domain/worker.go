package domain

// WorkerProfile the authenticated worker and the company it belongs to (table worker).
type WorkerProfile struct {
	WorkerID      string `db:"worker_id" json:"worker_id"`
	UserID        string `db:"user_id" json:"user_id,omitempty"` // auth user id, nullable until linked
	EmpresaID     string `db:"empresa_id" json:"empresa_id"`
	EmpresaNombre string `json:"empresa_nombre,omitempty"`
	Nombre        string `db:"nombre" json:"nombre"`
	Puesto        string `db:"puesto" json:"puesto,omitempty"`
	Mail          string `db:"mail" json:"mail,omitempty"`
}

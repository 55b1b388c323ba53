package domain

// ProductUsage product line applied during a control (table control_productos).
type ProductUsage struct {
	ID            string  `db:"id" json:"id,omitempty"`
	ControlID     string  `db:"control_id" json:"control_id"`
	ProductoID    string  `db:"producto_id" json:"producto_id"`
	CantidadUsada float64 `db:"cantidad_usada" json:"cantidad_usada"` // > 0
	Unidad        string  `db:"unidad" json:"unidad"`
}

package domain

// Cliente customer of the company (table clientes).
type Cliente struct {
	ClienteID string `db:"cliente_id" json:"cliente_id"`
	Nombre    string `db:"nombre" json:"nombre"`
}

// Planta site of a customer (table plantas).
type Planta struct {
	PlantaID string `db:"planta_id" json:"planta_id"`
	Nombre   string `db:"nombre" json:"nombre"`
}

// Tecnico worker selectable as the responsible technician.
type Tecnico struct {
	WorkerID string `db:"worker_id" json:"worker_id"`
	Nombre   string `db:"nombre" json:"nombre"`
	Puesto   string `db:"puesto" json:"puesto,omitempty"`
}

// Producto chemical product registered by the company (table productos).
type Producto struct {
	ProductoID      string `db:"producto_id" json:"producto_id"`
	Nombre          string `db:"nombre" json:"nombre"`
	TipoProducto    string `db:"tipo_producto" json:"tipo_producto,omitempty"`
	PrincipioActivo string `db:"principio_activo" json:"principio_activo,omitempty"`
	Laboratorio     string `db:"laboratorio" json:"laboratorio,omitempty"`
	Certificado     string `db:"certificado" json:"certificado,omitempty"`
	UnidadMedida    string `db:"unidad_medida" json:"unidad_medida,omitempty"`
}

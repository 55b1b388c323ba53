package repository

import (
	"context"

	"github.com/leonelpereyra44/pestcontrol/internal/domain"
)

// ControlFilters filters for listing controles.
type ControlFilters struct {
	ClienteID string
	TecnicoID string
	Desde     string // fecha_control >= (YYYY-MM-DD)
	Hasta     string // fecha_control <= (YYYY-MM-DD)
}

// ControlWriter the write operations of one unit of work over controles and its child tables.
type ControlWriter interface {
	// InsertControl inserts the parent row and returns it with its server-assigned control_id.
	InsertControl(ctx context.Context, control *domain.Control) (*domain.Control, error)

	// UpdateControl updates the mutable fields of an existing row and returns it.
	UpdateControl(ctx context.Context, controlID string, control *domain.Control) (*domain.Control, error)

	// InsertProducts inserts all rows in one statement.
	InsertProducts(ctx context.Context, rows []domain.ProductUsage) error

	// InsertPoints inserts all rows in one statement.
	InsertPoints(ctx context.Context, rows []domain.ControlPoint) error

	// DeleteProducts removes every control_productos row of the control. Returns rows deleted.
	DeleteProducts(ctx context.Context, controlID string) (int64, error)

	// DeletePoints removes every control_puntos row of the control. Returns rows deleted.
	DeletePoints(ctx context.Context, controlID string) (int64, error)
}

// ControlsRepository the remote data service for control records.
type ControlsRepository interface {
	// GetControl returns apperrors.ErrNotFound when the id does not exist.
	GetControl(ctx context.Context, controlID string) (*domain.Control, error)

	// ListControls lists the company's controls, newest fecha_control first.
	ListControls(ctx context.Context, empresaID string, filters *ControlFilters, limit int) ([]*domain.Control, error)

	ListProducts(ctx context.Context, controlID string) ([]domain.ProductUsage, error)

	ListPoints(ctx context.Context, controlID string) ([]domain.ControlPoint, error)

	// WithinTx runs fn against a writer whose effects are committed only if fn returns nil.
	WithinTx(ctx context.Context, fn func(w ControlWriter) error) error
}

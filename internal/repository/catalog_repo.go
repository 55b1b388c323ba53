package repository

import (
	"context"

	"github.com/leonelpereyra44/pestcontrol/internal/domain"
)

// CatalogRepository reference data the wizard selects from.
type CatalogRepository interface {
	ListClientes(ctx context.Context, empresaID string) ([]domain.Cliente, error)
	ListPlantas(ctx context.Context, clienteID string) ([]domain.Planta, error)
	ListTecnicos(ctx context.Context, empresaID string) ([]domain.Tecnico, error)
	ListProductos(ctx context.Context, empresaID string) ([]domain.Producto, error)
}

// WorkersRepository resolves the worker profile behind an auth session.
type WorkersRepository interface {
	// GetByUserID returns apperrors.ErrNotFound when no worker is linked to the user.
	GetByUserID(ctx context.Context, userID string) (*domain.WorkerProfile, error)

	// GetByEmail returns apperrors.ErrNotFound when no worker has the mail.
	GetByEmail(ctx context.Context, email string) (*domain.WorkerProfile, error)

	// LinkUserID stores the auth user id on a worker found by email.
	LinkUserID(ctx context.Context, workerID, userID string) error
}

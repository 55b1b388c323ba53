package service

import (
	"context"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
	"github.com/leonelpereyra44/pestcontrol/internal/repository"

	"go.uber.org/zap"
)

// CatalogService reference data scoped to the worker's company.
type CatalogService struct {
	repo    repository.CatalogRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewCatalogService creates the service.
func NewCatalogService(repo repository.CatalogRepository, timeout time.Duration, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, timeout: timeout, logger: logger}
}

func (s *CatalogService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *CatalogService) ListClientes(ctx context.Context, worker *domain.WorkerProfile) ([]domain.Cliente, error) {
	if worker == nil {
		return nil, apperrors.ErrUnauthorized
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	clientes, err := s.repo.ListClientes(ctx, worker.EmpresaID)
	if err != nil {
		s.logger.Error("Failed to load clientes", zap.String("empresa_id", worker.EmpresaID), zap.Error(err))
		return nil, err
	}
	return clientes, nil
}

// ListPlantas sites of one client; clienteID is required.
func (s *CatalogService) ListPlantas(ctx context.Context, worker *domain.WorkerProfile, clienteID string) ([]domain.Planta, error) {
	if worker == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if clienteID == "" {
		return nil, apperrors.Validation("cliente_id es obligatorio")
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	plantas, err := s.repo.ListPlantas(ctx, clienteID)
	if err != nil {
		s.logger.Error("Failed to load plantas", zap.String("cliente_id", clienteID), zap.Error(err))
		return nil, err
	}
	return plantas, nil
}

func (s *CatalogService) ListTecnicos(ctx context.Context, worker *domain.WorkerProfile) ([]domain.Tecnico, error) {
	if worker == nil {
		return nil, apperrors.ErrUnauthorized
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	tecnicos, err := s.repo.ListTecnicos(ctx, worker.EmpresaID)
	if err != nil {
		s.logger.Error("Failed to load tecnicos", zap.String("empresa_id", worker.EmpresaID), zap.Error(err))
		return nil, err
	}
	return tecnicos, nil
}

func (s *CatalogService) ListProductos(ctx context.Context, worker *domain.WorkerProfile) ([]domain.Producto, error) {
	if worker == nil {
		return nil, apperrors.ErrUnauthorized
	}
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	productos, err := s.repo.ListProductos(ctx, worker.EmpresaID)
	if err != nil {
		s.logger.Error("Failed to load productos", zap.String("empresa_id", worker.EmpresaID), zap.Error(err))
		return nil, err
	}
	return productos, nil
}

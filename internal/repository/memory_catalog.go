package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
)

// MemoryCatalogRepo seedable catalog + worker directory for local runs and tests.
type MemoryCatalogRepo struct {
	mu        sync.RWMutex
	clientes  map[string][]domain.Cliente  // empresa_id -> clientes
	plantas   map[string][]domain.Planta   // cliente_id -> plantas
	productos map[string][]domain.Producto // empresa_id -> productos
	workers   []domain.WorkerProfile
}

// NewMemoryCatalogRepo creates an empty catalog.
func NewMemoryCatalogRepo() *MemoryCatalogRepo {
	return &MemoryCatalogRepo{
		clientes:  map[string][]domain.Cliente{},
		plantas:   map[string][]domain.Planta{},
		productos: map[string][]domain.Producto{},
	}
}

var (
	_ CatalogRepository = (*MemoryCatalogRepo)(nil)
	_ WorkersRepository = (*MemoryCatalogRepo)(nil)
)

func (r *MemoryCatalogRepo) AddCliente(empresaID string, c domain.Cliente) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientes[empresaID] = append(r.clientes[empresaID], c)
}

func (r *MemoryCatalogRepo) AddPlanta(clienteID string, p domain.Planta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plantas[clienteID] = append(r.plantas[clienteID], p)
}

func (r *MemoryCatalogRepo) AddProducto(empresaID string, p domain.Producto) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productos[empresaID] = append(r.productos[empresaID], p)
}

func (r *MemoryCatalogRepo) AddWorker(w domain.WorkerProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers = append(r.workers, w)
}

func (r *MemoryCatalogRepo) ListClientes(_ context.Context, empresaID string) ([]domain.Cliente, error) {
	r.mu.RLock()
	out := append([]domain.Cliente{}, r.clientes[empresaID]...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *MemoryCatalogRepo) ListPlantas(_ context.Context, clienteID string) ([]domain.Planta, error) {
	r.mu.RLock()
	out := append([]domain.Planta{}, r.plantas[clienteID]...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *MemoryCatalogRepo) ListTecnicos(_ context.Context, empresaID string) ([]domain.Tecnico, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Tecnico{}
	for _, w := range r.workers {
		if w.EmpresaID == empresaID {
			out = append(out, domain.Tecnico{WorkerID: w.WorkerID, Nombre: w.Nombre, Puesto: w.Puesto})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *MemoryCatalogRepo) ListProductos(_ context.Context, empresaID string) ([]domain.Producto, error) {
	r.mu.RLock()
	out := append([]domain.Producto{}, r.productos[empresaID]...)
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TipoProducto != out[j].TipoProducto {
			return out[i].TipoProducto < out[j].TipoProducto
		}
		return out[i].Nombre < out[j].Nombre
	})
	return out, nil
}

func (r *MemoryCatalogRepo) GetByUserID(_ context.Context, userID string) (*domain.WorkerProfile, error) {
	return r.find(func(w domain.WorkerProfile) bool { return userID != "" && w.UserID == userID })
}

func (r *MemoryCatalogRepo) GetByEmail(_ context.Context, email string) (*domain.WorkerProfile, error) {
	return r.find(func(w domain.WorkerProfile) bool { return email != "" && strings.EqualFold(w.Mail, email) })
}

func (r *MemoryCatalogRepo) LinkUserID(_ context.Context, workerID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.workers {
		if r.workers[i].WorkerID == workerID {
			r.workers[i].UserID = userID
			return nil
		}
	}
	return fmt.Errorf("worker %s: %w", workerID, apperrors.ErrNotFound)
}

func (r *MemoryCatalogRepo) find(match func(domain.WorkerProfile) bool) (*domain.WorkerProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.workers {
		if match(w) {
			w := w
			return &w, nil
		}
	}
	return nil, fmt.Errorf("worker: %w", apperrors.ErrNotFound)
}

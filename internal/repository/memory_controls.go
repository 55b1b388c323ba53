package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"

	"github.com/google/uuid"
)

// MemoryControlsRepo in-process ControlsRepository used when the database is disabled.
// WithinTx stages every write on a copy and publishes it only when fn succeeds.
type MemoryControlsRepo struct {
	mu    sync.RWMutex
	state memoryControlsState
}

type memoryControlsState struct {
	controls map[string]domain.Control
	order    []string // insertion order of control ids
	products map[string][]domain.ProductUsage
	points   map[string][]domain.ControlPoint
}

// NewMemoryControlsRepo creates an empty repository.
func NewMemoryControlsRepo() *MemoryControlsRepo {
	return &MemoryControlsRepo{state: memoryControlsState{
		controls: map[string]domain.Control{},
		products: map[string][]domain.ProductUsage{},
		points:   map[string][]domain.ControlPoint{},
	}}
}

var _ ControlsRepository = (*MemoryControlsRepo)(nil)

func (r *MemoryControlsRepo) GetControl(_ context.Context, controlID string) (*domain.Control, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.state.controls[controlID]
	if !ok {
		return nil, fmt.Errorf("control %s: %w", controlID, apperrors.ErrNotFound)
	}
	return &c, nil
}

func (r *MemoryControlsRepo) ListControls(_ context.Context, empresaID string, filters *ControlFilters, limit int) ([]*domain.Control, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if empresaID == "" {
		return []*domain.Control{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	out := []*domain.Control{}
	for _, id := range r.state.order {
		c := r.state.controls[id]
		if c.EmpresaID != empresaID {
			continue
		}
		if filters != nil {
			if filters.ClienteID != "" && c.ClienteID != filters.ClienteID {
				continue
			}
			if filters.TecnicoID != "" && c.TecnicoID != filters.TecnicoID {
				continue
			}
			if filters.Desde != "" && c.FechaControl < filters.Desde {
				continue
			}
			if filters.Hasta != "" && c.FechaControl > filters.Hasta {
				continue
			}
		}
		cc := c
		out = append(out, &cc)
	}

	// newest first; stable keeps later inserts ahead within a day after the reverse
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FechaControl > out[j].FechaControl })

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryControlsRepo) ListProducts(_ context.Context, controlID string) ([]domain.ProductUsage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.ProductUsage{}, r.state.products[controlID]...), nil
}

func (r *MemoryControlsRepo) ListPoints(_ context.Context, controlID string) ([]domain.ControlPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.ControlPoint{}, r.state.points[controlID]...), nil
}

func (r *MemoryControlsRepo) WithinTx(ctx context.Context, fn func(w ControlWriter) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := &memoryControlWriter{state: r.state.clone()}
	if err := fn(staged); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Remote("commit transaction", err)
	}
	r.state = staged.state
	return nil
}

func (s memoryControlsState) clone() memoryControlsState {
	c := memoryControlsState{
		controls: make(map[string]domain.Control, len(s.controls)),
		order:    append([]string{}, s.order...),
		products: make(map[string][]domain.ProductUsage, len(s.products)),
		points:   make(map[string][]domain.ControlPoint, len(s.points)),
	}
	for k, v := range s.controls {
		c.controls[k] = v
	}
	for k, v := range s.products {
		c.products[k] = append([]domain.ProductUsage{}, v...)
	}
	for k, v := range s.points {
		c.points[k] = append([]domain.ControlPoint{}, v...)
	}
	return c
}

type memoryControlWriter struct {
	state memoryControlsState
}

func (w *memoryControlWriter) InsertControl(ctx context.Context, c *domain.Control) (*domain.Control, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Remote("insert controles", err)
	}
	row := *c
	row.ControlID = uuid.NewString()
	w.state.controls[row.ControlID] = row
	w.state.order = append(w.state.order, row.ControlID)
	return &row, nil
}

func (w *memoryControlWriter) UpdateControl(ctx context.Context, controlID string, c *domain.Control) (*domain.Control, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Remote("update controles", err)
	}
	existing, ok := w.state.controls[controlID]
	if !ok {
		return nil, fmt.Errorf("control %s: %w", controlID, apperrors.ErrNotFound)
	}
	row := *c
	row.ControlID = controlID
	row.EmpresaID = existing.EmpresaID
	w.state.controls[controlID] = row
	return &row, nil
}

func (w *memoryControlWriter) InsertProducts(ctx context.Context, rows []domain.ProductUsage) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Remote("insert control_productos", err)
	}
	for _, p := range rows {
		p.ID = uuid.NewString()
		w.state.products[p.ControlID] = append(w.state.products[p.ControlID], p)
	}
	return nil
}

func (w *memoryControlWriter) InsertPoints(ctx context.Context, rows []domain.ControlPoint) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Remote("insert control_puntos", err)
	}
	for _, p := range rows {
		p.ID = uuid.NewString()
		w.state.points[p.ControlID] = append(w.state.points[p.ControlID], p)
	}
	return nil
}

func (w *memoryControlWriter) DeleteProducts(ctx context.Context, controlID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperrors.Remote("delete control_productos", err)
	}
	n := int64(len(w.state.products[controlID]))
	delete(w.state.products, controlID)
	return n, nil
}

func (w *memoryControlWriter) DeletePoints(ctx context.Context, controlID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperrors.Remote("delete control_puntos", err)
	}
	n := int64(len(w.state.points[controlID]))
	delete(w.state.points, controlID)
	return n, nil
}

package service

import (
	"context"
	"fmt"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/collection"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
	"github.com/leonelpereyra44/pestcontrol/internal/draft"

	"go.uber.org/zap"
)

// DraftDetail a draft with its cached children.
type DraftDetail struct {
	Draft     *domain.DraftControl  `json:"draft"`
	Productos []domain.DraftProduct `json:"productos"`
	Puntos    []domain.DraftPoint   `json:"puntos"`
}

// DraftService wizard drafts of the worker's company and their submission.
type DraftService struct {
	drafts   *draft.Store
	controls *ControlService
	logger   *zap.Logger
}

// NewDraftService creates the service.
func NewDraftService(drafts *draft.Store, controls *ControlService, logger *zap.Logger) *DraftService {
	return &DraftService{drafts: drafts, controls: controls, logger: logger}
}

// List drafts started by the worker's company.
func (s *DraftService) List(ctx context.Context, worker *domain.WorkerProfile) ([]*domain.DraftControl, error) {
	if worker == nil {
		return nil, apperrors.ErrUnauthorized
	}
	all, err := s.drafts.GetAllDraftControls(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.DraftControl, 0, len(all))
	for _, d := range all {
		if d.EmpresaID == worker.EmpresaID {
			out = append(out, d)
		}
	}
	return out, nil
}

// Get returns one draft with its products and points.
func (s *DraftService) Get(ctx context.Context, worker *domain.WorkerProfile, localID int64) (*DraftDetail, error) {
	d, err := s.load(ctx, worker, localID)
	if err != nil {
		return nil, err
	}
	products, err := s.drafts.GetDraftProducts(ctx, localID)
	if err != nil {
		return nil, err
	}
	points, err := s.drafts.GetDraftPoints(ctx, localID)
	if err != nil {
		return nil, err
	}
	return &DraftDetail{Draft: d, Productos: products, Puntos: points}, nil
}

// Save stores d for the worker's company. A zero LocalID creates a new draft.
func (s *DraftService) Save(ctx context.Context, worker *domain.WorkerProfile, d *domain.DraftControl) (int64, error) {
	if worker == nil {
		return 0, apperrors.ErrUnauthorized
	}
	if d.LocalID != 0 {
		existing, err := s.load(ctx, worker, d.LocalID)
		if err != nil {
			return 0, err
		}
		d.CreatedAt = existing.CreatedAt
	}
	d.EmpresaID = worker.EmpresaID

	id, err := s.drafts.SaveDraftControl(ctx, d)
	if err != nil {
		s.logger.Error("Failed to save draft", zap.Int64("local_id", d.LocalID), zap.Error(err))
		return 0, err
	}
	return id, nil
}

// SyncProducts validates inputs like the wizard does and replaces the draft's products.
func (s *DraftService) SyncProducts(ctx context.Context, worker *domain.WorkerProfile, localID int64, inputs []collection.ProductInput) ([]domain.DraftProduct, error) {
	if _, err := s.load(ctx, worker, localID); err != nil {
		return nil, err
	}
	products := collection.NewProducts()
	for i, in := range inputs {
		if err := products.Add(in); err != nil {
			return nil, fmt.Errorf("producto %d: %w", i+1, err)
		}
	}
	if err := s.drafts.SyncProducts(ctx, localID, products.All()); err != nil {
		return nil, err
	}
	return s.drafts.GetDraftProducts(ctx, localID)
}

// SyncPoints validates inputs like the wizard does and replaces the draft's points.
func (s *DraftService) SyncPoints(ctx context.Context, worker *domain.WorkerProfile, localID int64, inputs []collection.PointInput) ([]domain.DraftPoint, error) {
	if _, err := s.load(ctx, worker, localID); err != nil {
		return nil, err
	}
	points := collection.NewPoints()
	for _, in := range inputs {
		if err := points.Add(in); err != nil {
			return nil, err
		}
	}
	if err := s.drafts.SyncPoints(ctx, localID, points.All()); err != nil {
		return nil, err
	}
	return s.drafts.GetDraftPoints(ctx, localID)
}

// Delete discards a draft and its children.
func (s *DraftService) Delete(ctx context.Context, worker *domain.WorkerProfile, localID int64) error {
	if _, err := s.load(ctx, worker, localID); err != nil {
		return err
	}
	return s.drafts.DeleteDraft(ctx, localID)
}

// ValidateForSubmit checks the fields the wizard requires before saving.
func ValidateForSubmit(form domain.ControlForm) error {
	switch {
	case form.ClienteID == "":
		return apperrors.Validation("Debe seleccionar un cliente antes de guardar")
	case form.TecnicoID == "":
		return apperrors.Validation("Debe seleccionar un técnico responsable antes de guardar")
	case form.FechaControl == "":
		return apperrors.Validation("Debe seleccionar una fecha antes de guardar")
	case form.TipoControl == "":
		return apperrors.Validation("Debe seleccionar un tipo de control antes de guardar")
	}
	return nil
}

// Submit promotes a draft to a control and discards the draft.
// A draft that already points at a control updates it instead of creating a new one.
func (s *DraftService) Submit(ctx context.Context, worker *domain.WorkerProfile, localID int64) (*domain.Control, error) {
	d, err := s.load(ctx, worker, localID)
	if err != nil {
		return nil, err
	}
	form := d.Form()
	if err := ValidateForSubmit(form); err != nil {
		return nil, err
	}

	cached, err := s.drafts.GetDraftProducts(ctx, localID)
	if err != nil {
		return nil, err
	}
	products := collection.NewProducts()
	for _, p := range cached {
		if err := products.Add(collection.ProductInputFromDraft(p)); err != nil {
			return nil, err
		}
	}

	cachedPoints, err := s.drafts.GetDraftPoints(ctx, localID)
	if err != nil {
		return nil, err
	}
	points := collection.NewPoints()
	for _, p := range cachedPoints {
		if err := points.Add(collection.PointInputFromDraft(p)); err != nil {
			return nil, err
		}
	}

	firma := s.controls.SignaturePath(ctx, form, d.FirmaTecnico)

	var control *domain.Control
	if d.ControlID != "" {
		control, err = s.controls.Update(ctx, worker, d.ControlID, form, products, points, firma)
	} else {
		control, err = s.controls.Create(ctx, worker, form, products, points, firma)
	}
	if err != nil {
		return nil, err
	}

	// remember the control first so a retry after a failed delete updates instead of duplicating
	if d.ControlID == "" {
		d.ControlID = control.ControlID
		if _, err := s.drafts.SaveDraftControl(ctx, d); err != nil {
			s.logger.Error("Failed to link draft to control", zap.Int64("local_id", localID), zap.String("control_id", control.ControlID), zap.Error(err))
			return control, err
		}
	}
	if err := s.drafts.DeleteDraft(ctx, localID); err != nil {
		s.logger.Error("Control saved but draft not deleted", zap.Int64("local_id", localID), zap.String("control_id", control.ControlID), zap.Error(err))
		return control, err
	}

	s.logger.Info("Draft submitted", zap.Int64("local_id", localID), zap.String("control_id", control.ControlID))
	return control, nil
}

func (s *DraftService) load(ctx context.Context, worker *domain.WorkerProfile, localID int64) (*domain.DraftControl, error) {
	if worker == nil {
		return nil, apperrors.ErrUnauthorized
	}
	d, err := s.drafts.GetDraftControl(ctx, localID)
	if err != nil {
		return nil, err
	}
	if d.EmpresaID != worker.EmpresaID {
		return nil, fmt.Errorf("draft %d: %w", localID, apperrors.ErrNotFound)
	}
	return d, nil
}

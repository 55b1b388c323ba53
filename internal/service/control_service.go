package service

import (
	"context"
	"fmt"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
	"github.com/leonelpereyra44/pestcontrol/internal/repository"

	"go.uber.org/zap"
)

// Phase step of one save attempt.
type Phase string

const (
	PhaseValidating      Phase = "validating"
	PhaseWritingParent   Phase = "writing_parent"
	PhaseWritingChildren Phase = "writing_children"
	PhaseDone            Phase = "done"
	PhaseFailed          Phase = "failed"
)

// SaveError failure of a save attempt and the phase it happened in.
type SaveError struct {
	Phase Phase
	Err   error
}

func (e *SaveError) Error() string { return fmt.Sprintf("%s: %v", e.Phase, e.Err) }

func (e *SaveError) Unwrap() error { return e.Err }

// ProductSource yields control_productos rows once the parent id is known.
type ProductSource interface {
	PrepareForPersistence(controlID string) []domain.ProductUsage
}

// PointSource yields control_puntos rows once the parent id is known.
type PointSource interface {
	PrepareForPersistence(controlID string) []domain.ControlPoint
}

// ControlService persists a control together with its products and points.
type ControlService struct {
	repo       repository.ControlsRepository
	signatures SignatureLookup // optional
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewControlService creates the service. timeout bounds every remote call.
func NewControlService(repo repository.ControlsRepository, timeout time.Duration, logger *zap.Logger) *ControlService {
	return &ControlService{
		repo:    repo,
		timeout: timeout,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// attempt logs the phase transitions of one Create/Update call.
type attempt struct {
	op        string
	controlID string
	phase     Phase
	started   time.Time
	logger    *zap.Logger
}

func (s *ControlService) begin(op, controlID string) *attempt {
	a := &attempt{op: op, controlID: controlID, started: time.Now(), logger: s.logger}
	a.enter(PhaseValidating)
	return a
}

func (a *attempt) enter(p Phase) {
	a.phase = p
	a.logger.Debug("Control save phase",
		zap.String("op", a.op),
		zap.String("control_id", a.controlID),
		zap.String("phase", string(p)),
	)
}

func (a *attempt) fail(err error) error {
	failedIn := a.phase
	a.phase = PhaseFailed
	a.logger.Error("Control save failed",
		zap.String("op", a.op),
		zap.String("control_id", a.controlID),
		zap.String("phase", string(failedIn)),
		zap.Error(err),
	)
	return &SaveError{Phase: failedIn, Err: err}
}

func (a *attempt) done() {
	a.phase = PhaseDone
	a.logger.Info("Control saved",
		zap.String("op", a.op),
		zap.String("control_id", a.controlID),
		zap.Duration("elapsed", time.Since(a.started)),
	)
}

// call runs fn with ctx bounded by the remote timeout.
// a unit of work is begin, at most five statements, and commit
const txCalls = 7

// withinTx bounds the whole unit of work, begin and commit included, and hands
// the bounded ctx to fn.
func (s *ControlService) withinTx(ctx context.Context, fn func(ctx context.Context, w repository.ControlWriter) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout*txCalls)
		defer cancel()
	}
	return s.repo.WithinTx(ctx, func(w repository.ControlWriter) error {
		return fn(ctx, w)
	})
}

func (s *ControlService) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

func validateForm(form domain.ControlForm) error {
	if form.ClienteID == "" || form.TecnicoID == "" {
		return apperrors.Validation("Faltan datos obligatorios")
	}
	return nil
}

func (s *ControlService) parentRow(worker *domain.WorkerProfile, form domain.ControlForm, signaturePath string) *domain.Control {
	completed := s.now()
	return &domain.Control{
		EmpresaID:     worker.EmpresaID,
		ClienteID:     form.ClienteID,
		PlantaID:      form.PlantaID,
		TecnicoID:     form.TecnicoID,
		FechaControl:  form.FechaControl,
		TipoControl:   form.TipoControl,
		Observaciones: form.Observaciones,
		FirmaTecnico:  signaturePath,
		Estado:        domain.EstadoCompletado,
		CompletedAt:   &completed,
	}
}

// Create inserts the parent row, then the product batch, then the point batch,
// all in one unit of work. Nothing is written when validation fails.
func (s *ControlService) Create(ctx context.Context, worker *domain.WorkerProfile, form domain.ControlForm, products ProductSource, points PointSource, signaturePath string) (*domain.Control, error) {
	a := s.begin("create", "")

	if err := validateForm(form); err != nil {
		return nil, a.fail(err)
	}
	if worker == nil || worker.EmpresaID == "" {
		return nil, a.fail(apperrors.Validation("El usuario no tiene empresa asignada"))
	}

	var saved *domain.Control
	err := s.withinTx(ctx, func(ctx context.Context, w repository.ControlWriter) error {
		a.enter(PhaseWritingParent)
		if err := s.call(ctx, func(ctx context.Context) error {
			var err error
			saved, err = w.InsertControl(ctx, s.parentRow(worker, form, signaturePath))
			return err
		}); err != nil {
			return err
		}
		a.controlID = saved.ControlID

		a.enter(PhaseWritingChildren)
		return s.writeChildren(ctx, w, saved.ControlID, products, points)
	})
	if err != nil {
		return nil, a.fail(err)
	}

	a.done()
	return saved, nil
}

// Update overwrites the parent row and replaces every product and point of the
// control with the given ones.
func (s *ControlService) Update(ctx context.Context, worker *domain.WorkerProfile, controlID string, form domain.ControlForm, products ProductSource, points PointSource, signaturePath string) (*domain.Control, error) {
	a := s.begin("update", controlID)

	if err := validateForm(form); err != nil {
		return nil, a.fail(err)
	}
	if controlID == "" {
		return nil, a.fail(apperrors.Validation("control_id es obligatorio"))
	}
	if err := s.authorize(ctx, worker, controlID); err != nil {
		return nil, a.fail(err)
	}

	var saved *domain.Control
	err := s.withinTx(ctx, func(ctx context.Context, w repository.ControlWriter) error {
		a.enter(PhaseWritingParent)
		if err := s.call(ctx, func(ctx context.Context) error {
			var err error
			saved, err = w.UpdateControl(ctx, controlID, s.parentRow(worker, form, signaturePath))
			return err
		}); err != nil {
			return err
		}

		a.enter(PhaseWritingChildren)
		var deletedProducts, deletedPoints int64
		if err := s.call(ctx, func(ctx context.Context) error {
			var err error
			deletedProducts, err = w.DeleteProducts(ctx, controlID)
			return err
		}); err != nil {
			return err
		}
		if err := s.call(ctx, func(ctx context.Context) error {
			var err error
			deletedPoints, err = w.DeletePoints(ctx, controlID)
			return err
		}); err != nil {
			return err
		}
		s.logger.Debug("Removed previous control children",
			zap.String("control_id", controlID),
			zap.Int64("productos", deletedProducts),
			zap.Int64("puntos", deletedPoints),
		)

		return s.writeChildren(ctx, w, controlID, products, points)
	})
	if err != nil {
		return nil, a.fail(err)
	}

	a.done()
	return saved, nil
}

func (s *ControlService) writeChildren(ctx context.Context, w repository.ControlWriter, controlID string, products ProductSource, points PointSource) error {
	if products != nil {
		if rows := products.PrepareForPersistence(controlID); len(rows) > 0 {
			if err := s.call(ctx, func(ctx context.Context) error { return w.InsertProducts(ctx, rows) }); err != nil {
				return err
			}
		}
	}
	if points != nil {
		if rows := points.PrepareForPersistence(controlID); len(rows) > 0 {
			if err := s.call(ctx, func(ctx context.Context) error { return w.InsertPoints(ctx, rows) }); err != nil {
				return err
			}
		}
	}
	return nil
}

// authorize loads the control and hides it when it belongs to another company.
func (s *ControlService) authorize(ctx context.Context, worker *domain.WorkerProfile, controlID string) error {
	if worker == nil {
		return apperrors.ErrUnauthorized
	}
	var control *domain.Control
	if err := s.call(ctx, func(ctx context.Context) error {
		var err error
		control, err = s.repo.GetControl(ctx, controlID)
		return err
	}); err != nil {
		return err
	}
	if control.EmpresaID != worker.EmpresaID {
		return fmt.Errorf("control %s: %w", controlID, apperrors.ErrNotFound)
	}
	return nil
}

// Get returns a control of the worker's company with its products and points.
func (s *ControlService) Get(ctx context.Context, worker *domain.WorkerProfile, controlID string) (*domain.ControlDetail, error) {
	if worker == nil {
		return nil, apperrors.ErrUnauthorized
	}

	detail := &domain.ControlDetail{}
	err := s.call(ctx, func(ctx context.Context) error {
		control, err := s.repo.GetControl(ctx, controlID)
		if err != nil {
			return err
		}
		if control.EmpresaID != worker.EmpresaID {
			return fmt.Errorf("control %s: %w", controlID, apperrors.ErrNotFound)
		}
		detail.Control = control

		if detail.Productos, err = s.repo.ListProducts(ctx, controlID); err != nil {
			return err
		}
		detail.Puntos, err = s.repo.ListPoints(ctx, controlID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// List returns the company's controls, newest first.
func (s *ControlService) List(ctx context.Context, worker *domain.WorkerProfile, filters *repository.ControlFilters, limit int) ([]*domain.Control, error) {
	if worker == nil {
		return nil, apperrors.ErrUnauthorized
	}
	var controls []*domain.Control
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		controls, err = s.repo.ListControls(ctx, worker.EmpresaID, filters, limit)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to list controls", zap.String("empresa_id", worker.EmpresaID), zap.Error(err))
		return nil, err
	}
	return controls, nil
}

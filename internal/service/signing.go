package service

import (
	"context"

	"github.com/leonelpereyra44/pestcontrol/internal/domain"
	"github.com/leonelpereyra44/pestcontrol/internal/signature"

	"go.uber.org/zap"
)

// SignatureLookup finds the stamp on file for a technician.
type SignatureLookup interface {
	Lookup(ctx context.Context, technicianID string) (signature.Result, error)
}

// UseSignatures makes saves sign controls with the technician's stamp when the
// caller sends none.
func (s *ControlService) UseSignatures(lookup SignatureLookup) {
	s.signatures = lookup
}

// SignaturePath returns explicit when set, else the storage path of the
// technician's stamp. A missing stamp or a storage failure leaves the control
// unsigned.
func (s *ControlService) SignaturePath(ctx context.Context, form domain.ControlForm, explicit string) string {
	if explicit != "" || s.signatures == nil {
		return explicit
	}
	// forms without cliente or tecnico are rejected before any I/O
	if form.ClienteID == "" || form.TecnicoID == "" {
		return ""
	}

	var res signature.Result
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.signatures.Lookup(ctx, form.TecnicoID)
		return err
	})
	if err != nil {
		s.logger.Warn("Saving control without signature", zap.String("tecnico_id", form.TecnicoID), zap.Error(err))
		return ""
	}
	if res.State != signature.StateReady {
		s.logger.Debug("Technician has no signature on file", zap.String("tecnico_id", form.TecnicoID))
		return ""
	}
	return res.Path
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"
	"github.com/leonelpereyra44/pestcontrol/internal/domain"
	"github.com/leonelpereyra44/pestcontrol/internal/repository"

	"go.uber.org/zap"
)

// ProfileResolver finds the worker row of an authenticated user.
type ProfileResolver struct {
	workers repository.WorkersRepository
	timeout time.Duration
	logger  *zap.Logger
}

// NewProfileResolver creates the resolver. timeout bounds each lookup.
func NewProfileResolver(workers repository.WorkersRepository, timeout time.Duration, logger *zap.Logger) *ProfileResolver {
	return &ProfileResolver{workers: workers, timeout: timeout, logger: logger}
}

// Resolve looks the worker up by user id, then by mail. A worker found by
// mail that is not yet linked gets the user id stored.
func (p *ProfileResolver) Resolve(ctx context.Context, userID, email string) (*domain.WorkerProfile, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	worker, err := p.workers.GetByUserID(ctx, userID)
	if err == nil {
		return worker, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		p.logger.Error("Failed to load worker by user_id", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if email == "" {
		return nil, fmt.Errorf("no worker for user %s: %w", userID, apperrors.ErrUnauthorized)
	}

	worker, err = p.workers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("no worker for user %s: %w", userID, apperrors.ErrUnauthorized)
		}
		p.logger.Error("Failed to load worker by mail", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	if worker.UserID == "" && userID != "" {
		if err := p.workers.LinkUserID(ctx, worker.WorkerID, userID); err != nil {
			// the profile is still usable; linking is retried on the next request
			p.logger.Warn("Failed to link user_id to worker",
				zap.String("worker_id", worker.WorkerID),
				zap.String("user_id", userID),
				zap.Error(err),
			)
		} else {
			worker.UserID = userID
			p.logger.Info("Linked user_id to worker", zap.String("worker_id", worker.WorkerID), zap.String("user_id", userID))
		}
	}
	return worker, nil
}

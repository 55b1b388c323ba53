// Package auth validates session tokens issued by the hosted auth service and
// resolves the worker profile behind them.
package auth

import (
	"context"

	"github.com/leonelpereyra44/pestcontrol/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// WorkerKey is the context key for storing the resolved worker profile.
	WorkerKey contextKey = "worker"
)

// Claims session token claims. Subject is the auth user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// WorkerFromContext returns the worker resolved for the request, nil when anonymous.
func WorkerFromContext(ctx context.Context) *domain.WorkerProfile {
	w, _ := ctx.Value(WorkerKey).(*domain.WorkerProfile)
	return w
}

// WithWorker returns a copy of ctx carrying the worker profile.
func WithWorker(ctx context.Context, w *domain.WorkerProfile) context.Context {
	return context.WithValue(ctx, WorkerKey, w)
}

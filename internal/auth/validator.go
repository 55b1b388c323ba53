package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leonelpereyra44/pestcontrol/internal/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired marks an expired session. It always comes wrapped together
// with apperrors.ErrUnauthorized.
var ErrTokenExpired = errors.New("token expired")

// Validator verifies HS256 session tokens signed with the project JWT secret.
type Validator struct {
	secret []byte
}

// NewValidator creates a validator for secret.
func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("missing Authorization header: %w", apperrors.ErrUnauthorized)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("malformed Authorization header: %w", apperrors.ErrUnauthorized)
	}
	return strings.TrimSpace(token), nil
}

// Validate parses tokenString and returns its claims. Expired, unsigned or
// subject-less tokens are rejected with apperrors.ErrUnauthorized.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("invalid token: %v: %w", err, apperrors.ErrUnauthorized)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", apperrors.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject: %w", apperrors.ErrUnauthorized)
	}
	return claims, nil
}

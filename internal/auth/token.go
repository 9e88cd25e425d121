// internal/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

const tokenIssuer = "qualitrack"

// TokenManager signs and verifies the HS256 bearer tokens that carry the
// caller's organization.
type TokenManager struct {
	secret       []byte
	expiryPeriod time.Duration
	now          func() time.Time
}

func NewTokenManager(secret string, expiryPeriod time.Duration) *TokenManager {
	return &TokenManager{
		secret:       []byte(secret),
		expiryPeriod: expiryPeriod,
		now:          time.Now,
	}
}

type Claims struct {
	UserID         uuid.UUID   `json:"user_id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Role           string      `json:"role,omitempty"`
	// Indicators restricts catalog reads; empty grants the whole catalog.
	Indicators     []uuid.UUID `json:"indicators,omitempty"`
	jwt.RegisteredClaims
}

// Tenant converts verified claims into the service-layer tenant.
func (c *Claims) Tenant() domain.Tenant {
	return domain.Tenant{
		OrganizationID:  c.OrganizationID,
		ActorID:         c.UserID,
		Role:            c.Role,
		IndicatorAccess: c.Indicators,
	}
}

func (tm *TokenManager) Generate(userID, organizationID uuid.UUID, role string, indicators ...uuid.UUID) (string, error) {
	now := tm.now()
	claims := Claims{
		UserID:         userID,
		OrganizationID: organizationID,
		Role:           role,
		Indicators:     indicators,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiryPeriod)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

func (tm *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.OrganizationID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing organization", ErrInvalidToken)
	}
	return claims, nil
}

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gaslinkhq/gaslink-backend/pkg/config"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
)

// AccessClaims is the verified identity carried by a bearer token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Role     enums.ActorRole `json:"role"`
	Name     string          `json:"name"`
	AgencyID *uuid.UUID      `json:"agency_id,omitempty"`
}

// SubjectID parses the sub claim as a UUID.
func (c *AccessClaims) SubjectID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// ParseAccessToken verifies signature, issuer, and expiry of a bearer token.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessClaims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret not configured")
	}

	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	},
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("unknown actor role %q", claims.Role)
	}
	return claims, nil
}

// NewAccessToken mints a signed token; used by tooling and tests.
func NewAccessToken(cfg config.JWTConfig, subject uuid.UUID, role enums.ActorRole, name string, agencyID *uuid.UUID, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:     role,
		Name:     name,
		AgencyID: agencyID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

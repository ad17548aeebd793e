// Package token issues and validates the HS256 access tokens the HTTP
// layer authenticates with. A token names one contributor and whether
// they hold admin standing.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "memoria/pkg/domain"
	dErrors "memoria/pkg/domain-errors"
)

// Claims are the JWT claims carried by memoria access tokens.
type Claims struct {
	ContributorID string `json:"contributor_id"`
	Admin         bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Contributor parses the contributor ID claim.
func (c *Claims) Contributor() (id.ContributorID, error) {
	parsed, err := uuid.Parse(c.ContributorID)
	if err != nil {
		return id.ContributorID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return id.ContributorID(parsed), nil
}

// Service signs and validates access tokens.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

// NewService constructs a token service around one shared signing key.
func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// Issue signs a token for one contributor. Session issuance flows live
// outside this system; Issue exists for operator tooling and tests.
func (s *Service) Issue(contributorID id.ContributorID, admin bool, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ContributorID: contributorID.String(),
		Admin:         admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signed, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Validate parses and verifies a token string.
//
// Errors: always CodeUnauthorized; the message distinguishes expiry
// from everything else.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

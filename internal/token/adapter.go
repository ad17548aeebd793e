package token

import (
	"memoria/internal/platform/middleware"
)

// MiddlewareValidator adapts Service to the auth middleware contract,
// resolving raw claims into a typed principal.
type MiddlewareValidator struct {
	service *Service
}

func NewMiddlewareValidator(service *Service) *MiddlewareValidator {
	return &MiddlewareValidator{service: service}
}

func (v *MiddlewareValidator) Validate(tokenString string) (middleware.Principal, error) {
	claims, err := v.service.Validate(tokenString)
	if err != nil {
		return middleware.Principal{}, err
	}

	contributor, err := claims.Contributor()
	if err != nil {
		return middleware.Principal{}, err
	}

	return middleware.Principal{
		ContributorID: contributor,
		Admin:         claims.Admin,
	}, nil
}

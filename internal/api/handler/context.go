package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/resource-booking/internal/api/middleware"
	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

// ctxPrincipal returns the principal stored by the Authenticate middleware.
// A route mounted without it fails closed with 401.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return nil, domain.ErrMissingToken
	}
	return p, nil
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Validation("invalid payload")
	}
	return c.Validate(req)
}

package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

// Authorize lets the request through only when the authenticated principal
// holds capability. It must run after Authenticate.
func Authorize(capability domain.Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				return domain.ErrMissingToken
			}
			if !p.Can(capability) {
				if capability == domain.CapManageUsers {
					return domain.ErrAdminRequired
				}
				return domain.ErrAccessDenied
			}
			return next(c)
		}
	}
}

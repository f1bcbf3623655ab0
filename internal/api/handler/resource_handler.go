package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/resource-booking/internal/core/ports"
)

type ResourceHandler struct {
	resources ports.ResourceService
}

func NewResourceHandler(resources ports.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

// List returns every bookable resource.
//
// @Summary      List resources
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Resource
// @Failure      401  {object}  map[string]string
// @Router       /resources [get]
func (h *ResourceHandler) List(c echo.Context) error {
	items, err := h.resources.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

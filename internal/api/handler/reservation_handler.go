package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/resource-booking/internal/core/ports"
)

type ReservationHandler struct {
	reservations ports.ReservationService
}

func NewReservationHandler(reservations ports.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

// List returns the caller's reservations, each with its resource.
//
// @Summary      List my reservations
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.ReservationDetail
// @Failure      401  {object}  map[string]string
// @Router       /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	items, err := h.reservations.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Create books a resource for the caller.
//
// @Summary      Create a reservation
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createReservationRequest  true  "Booking request"
// @Success      201   {object}  domain.Reservation
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createReservationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	reservation, err := h.reservations.Create(c.Request().Context(), p, ports.CreateReservationInput{
		ResourceID: req.ResourceID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		Duration:   float64(req.Duration),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reservation)
}

// Delete cancels a reservation owned by the caller, or any reservation for admins.
//
// @Summary      Delete a reservation
// @Tags         reservations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Reservation ID"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /reservations/{id} [delete]
func (h *ReservationHandler) Delete(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.reservations.Delete(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Reservation deleted"})
}

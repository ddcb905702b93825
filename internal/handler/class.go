package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

type createClassReq struct {
	CourseID   uint64 `json:"course_id" validate:"required"`
	DioceseID  uint64 `json:"diocese_id" validate:"required"`
	ParishID   uint64 `json:"parish_id"`
	Identifier string `json:"identifier" validate:"notblank,max=128"`
	Seats      int    `json:"seats"`
}

type topUpReq struct {
	Seats int `json:"seats"`
}

// CreateClass handles POST /v1/classes.
func (h *LedgerHandler) CreateClass(c echo.Context) error {
	var req createClassReq
	if err := h.bind(c, &req); err != nil {
		return err
	}
	class, err := h.svc.CreateClass(c.Request().Context(), service.NewClass{
		CourseID:   req.CourseID,
		Scope:      model.Scope{DioceseID: req.DioceseID, ParishID: req.ParishID},
		Identifier: req.Identifier,
		Seats:      req.Seats,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": class})
}

// GetClass handles GET /v1/classes/:id.
func (h *LedgerHandler) GetClass(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid class id")
	}
	d, err := h.svc.GetClass(c.Request().Context(), id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": d})
}

// TopUp handles POST /v1/classes/:id/topup.
func (h *LedgerHandler) TopUp(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid class id")
	}
	var req topUpReq
	if err := h.bind(c, &req); err != nil {
		return err
	}
	class, err := h.svc.TopUp(c.Request().Context(), id, req.Seats)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": class})
}

// RemainingSeats handles GET /v1/classes/:id/remaining.
func (h *LedgerHandler) RemainingSeats(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid class id")
	}
	n, err := h.svc.RemainingSeats(c.Request().Context(), id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{"class_id": id, "remaining": n}})
}

// DropMember handles DELETE /v1/classes/:id/members/:role/:user_id.
// The seat is not returned to the class.
func (h *LedgerHandler) DropMember(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid class id")
	}
	userID, ok := parseID(c, "user_id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	role := c.Param("role")
	if !model.ValidMemberRole(role) {
		return badRequest(c, "role must be facilitator or learner")
	}
	if err := h.svc.DropMember(c.Request().Context(), id, userID, role); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

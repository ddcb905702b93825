package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

type createPoolReq struct {
	CourseID          uint64 `json:"course_id" validate:"required"`
	DioceseID         uint64 `json:"diocese_id" validate:"required"`
	ParishID          uint64 `json:"parish_id"`
	QuantityPurchased int    `json:"quantity_purchased"`
}

type poolQuery struct {
	CourseID  uint64 `query:"course_id" json:"course_id" validate:"required"`
	DioceseID uint64 `query:"diocese_id" json:"diocese_id" validate:"required"`
	ParishID  uint64 `query:"parish_id" json:"parish_id"`
}

// CreatePool handles POST /v1/pools.
func (h *LedgerHandler) CreatePool(c echo.Context) error {
	var req createPoolReq
	if err := h.bind(c, &req); err != nil {
		return err
	}
	scope := model.Scope{DioceseID: req.DioceseID, ParishID: req.ParishID}
	pool, err := h.svc.CreatePool(c.Request().Context(), req.CourseID, scope, req.QuantityPurchased)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": pool})
}

// ListPools handles GET /v1/pools with an optional course_id filter.
func (h *LedgerHandler) ListPools(c echo.Context) error {
	var q struct {
		CourseID uint64 `query:"course_id"`
	}
	if err := c.Bind(&q); err != nil {
		return badRequest(c, "invalid course_id")
	}
	pools, err := h.svc.ListPools(c.Request().Context(), q.CourseID)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": pools})
}

// LookupPool handles GET /v1/pools/lookup?course_id=&diocese_id=&parish_id=.
func (h *LedgerHandler) LookupPool(c echo.Context) error {
	var q poolQuery
	if err := h.bind(c, &q); err != nil {
		return err
	}
	pool, err := h.svc.Lookup(c.Request().Context(), q.CourseID, model.Scope{DioceseID: q.DioceseID, ParishID: q.ParishID})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": pool})
}

// GetPool handles GET /v1/pools/:id.
func (h *LedgerHandler) GetPool(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid pool id")
	}
	pool, err := h.svc.GetPool(c.Request().Context(), id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": pool})
}

// PoolSummary handles GET /v1/pools/:id/summary.
func (h *LedgerHandler) PoolSummary(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid pool id")
	}
	sum, err := h.svc.PoolSummary(c.Request().Context(), id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": sum})
}

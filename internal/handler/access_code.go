package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

var errTooLarge = errors.New("upload too large")

type generateCodesReq struct {
	Count int `json:"count"`
}

type redeemReq struct {
	Code string `json:"code" validate:"notblank,max=64"`
}

// GenerateCodes handles POST /v1/courses/:course_id/access-codes.
func (h *LedgerHandler) GenerateCodes(c echo.Context) error {
	courseID, ok := parseID(c, "course_id")
	if !ok {
		return badRequest(c, "invalid course id")
	}
	var req generateCodesReq
	if err := h.bind(c, &req); err != nil {
		return err
	}
	codes, err := h.svc.GenerateCodes(c.Request().Context(), courseID, req.Count)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": codes})
}

// ImportCodes handles POST /v1/courses/:course_id/access-codes/import
// with a CSV list as a multipart "file" field or the raw body.
func (h *LedgerHandler) ImportCodes(c echo.Context) error {
	courseID, ok := parseID(c, "course_id")
	if !ok {
		return badRequest(c, "invalid course id")
	}
	body, err := upload(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	raw, err := service.ParseCodeList(bytes.NewReader(body))
	if err != nil {
		return ledgerError(c, err)
	}
	codes, err := h.svc.ImportCodes(c.Request().Context(), courseID, raw)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": codes})
}

// ListCodes handles GET /v1/courses/:course_id/access-codes.
func (h *LedgerHandler) ListCodes(c echo.Context) error {
	courseID, ok := parseID(c, "course_id")
	if !ok {
		return badRequest(c, "invalid course id")
	}
	codes, err := h.svc.ListCodes(c.Request().Context(), courseID)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": codes})
}

// Redeem handles POST /v1/access-codes/redeem for the calling user.
func (h *LedgerHandler) Redeem(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req redeemReq
	if err := h.bind(c, &req); err != nil {
		return err
	}
	ac, err := h.svc.Redeem(c.Request().Context(), req.Code, uid)
	return respond(c, http.StatusOK, ac, err)
}

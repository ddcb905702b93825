// Package handler exposes the enrollment ledger over HTTP.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/karnika-s/heart-temp-sub000/internal/middleware"
	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

// LedgerHandler serves every ledger endpoint.
type LedgerHandler struct {
	svc *service.Service
	val *Validator
}

func NewLedgerHandler(svc *service.Service, val *Validator) *LedgerHandler {
	if svc == nil || val == nil {
		panic("nil dependency passed to NewLedgerHandler")
	}
	return &LedgerHandler{svc: svc, val: val}
}

// getUserID reads the subject JWTAuth stored on the context.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get(middleware.CtxUserID).(type) {
	case uint64:
		return t, nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

func actorFrom(c echo.Context) (service.Actor, error) {
	id, err := getUserID(c)
	if err != nil {
		return service.Actor{}, err
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	return service.Actor{UserID: id, Admin: role == model.RoleAdmin}, nil
}

func parseID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// bind decodes and validates the request body into req.  The returned
// error is an *echo.HTTPError carrying the JSON body to send.
func (h *LedgerHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.val.Validate(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": h.val.fields(ve)})
		}
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return nil
}

// ledgerError writes the response for a failed ledger call.
func ledgerError(c echo.Context, err error) error {
	var bulk *service.BulkInviteError
	if errors.As(err, &bulk) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bulk invite rejected", "problems": bulk.Problems})
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidQuantity):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrInvalidCode):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicatePool),
		errors.Is(err, service.ErrDuplicateClass),
		errors.Is(err, service.ErrDuplicateInvitation),
		errors.Is(err, service.ErrDuplicateCode),
		errors.Is(err, service.ErrAlreadyAccepted),
		errors.Is(err, service.ErrAlreadyConsumed),
		errors.Is(err, service.ErrInvalidState):
		code = http.StatusConflict
	case errors.Is(err, service.ErrInsufficientSeats), errors.Is(err, service.ErrNoSeatsLeft):
		code = http.StatusUnprocessableEntity
	}
	if code == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(code, echo.Map{"error": "internal error"})
	}
	return c.JSON(code, echo.Map{"error": err.Error(), "kind": service.Kind(err)})
}

// respond writes body with status, or the error.  A failed notification
// does not undo a committed operation, so it becomes a warning field.
func respond(c echo.Context, status int, body interface{}, err error) error {
	if err != nil && !service.IsWarning(err) {
		return ledgerError(c, err)
	}
	if err != nil {
		c.Logger().Warnf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(status, echo.Map{"data": body, "warning": err.Error()})
	}
	return c.JSON(status, echo.Map{"data": body})
}

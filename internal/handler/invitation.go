package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

// maxUpload bounds bulk invite and code import files.
const maxUpload = 2 << 20

type inviteReq struct {
	UserID uint64 `json:"user_id" validate:"required"`
	Type   string `json:"type" validate:"member_role"`
}

// Invite handles POST /v1/classes/:id/invitations.
func (h *LedgerHandler) Invite(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid class id")
	}
	var req inviteReq
	if err := h.bind(c, &req); err != nil {
		return err
	}
	inv, err := h.svc.Invite(c.Request().Context(), actor, classID, req.UserID, req.Type)
	return respond(c, http.StatusCreated, inv, err)
}

// BulkInvite handles POST /v1/classes/:id/invitations/bulk?type=.  The
// list comes as a multipart "file" field or as the raw request body.
func (h *LedgerHandler) BulkInvite(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid class id")
	}
	typ := c.QueryParam("type")
	if typ == "" {
		typ = model.MemberLearner
	}
	if !model.ValidMemberRole(typ) {
		return badRequest(c, "type must be facilitator or learner")
	}
	body, err := upload(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	invs, err := h.svc.BulkInvite(c.Request().Context(), actor, classID, typ, bytes.NewReader(body))
	return respond(c, http.StatusCreated, invs, err)
}

// upload returns the multipart "file" field if present, otherwise the
// request body.
func upload(c echo.Context) ([]byte, error) {
	var r io.Reader
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		r = c.Request().Body
	}
	b, err := io.ReadAll(io.LimitReader(r, maxUpload+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxUpload {
		return nil, errTooLarge
	}
	return b, nil
}

// ListInvitations handles GET /v1/classes/:id/invitations.
func (h *LedgerHandler) ListInvitations(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	classID, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid class id")
	}
	invs, err := h.svc.ListInvitations(c.Request().Context(), actor, classID)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": invs})
}

// GetInvitation handles GET /v1/invitations/:id.
func (h *LedgerHandler) GetInvitation(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid invitation id")
	}
	inv, err := h.svc.GetInvitation(c.Request().Context(), actor, id)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": inv})
}

// Accept handles POST /v1/invitations/:id/accept.
func (h *LedgerHandler) Accept(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid invitation id")
	}
	inv, err := h.svc.Accept(c.Request().Context(), id, uid)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": inv})
}

// Reject handles POST /v1/invitations/:id/reject.
func (h *LedgerHandler) Reject(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid invitation id")
	}
	inv, err := h.svc.Reject(c.Request().Context(), id, uid)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": inv})
}

// AcceptByToken handles POST /v1/invitations/token/:token/accept.
func (h *LedgerHandler) AcceptByToken(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	inv, err := h.svc.AcceptByToken(c.Request().Context(), c.Param("token"), uid)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": inv})
}

// RejectByToken handles POST /v1/invitations/token/:token/reject.
func (h *LedgerHandler) RejectByToken(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	inv, err := h.svc.RejectByToken(c.Request().Context(), c.Param("token"), uid)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": inv})
}

// Resend handles POST /v1/invitations/:id/resend.
func (h *LedgerHandler) Resend(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid invitation id")
	}
	inv, err := h.svc.Resend(c.Request().Context(), id)
	return respond(c, http.StatusOK, inv, err)
}

// Cancel handles DELETE /v1/invitations/:id.
func (h *LedgerHandler) Cancel(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid invitation id")
	}
	if err := h.svc.Cancel(c.Request().Context(), id); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

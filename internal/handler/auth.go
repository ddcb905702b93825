package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/karnika-s/heart-temp-sub000/internal/middleware"
	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
	"github.com/karnika-s/heart-temp-sub000/internal/utils"
)

// CredentialLookup finds an account by e-mail, password hash included.
type CredentialLookup interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// AuthHandler issues access tokens.  Accounts are provisioned with
// ledgerctl, so there is no registration endpoint.
type AuthHandler struct {
	users     CredentialLookup
	jwtSecret string
	accessTTL int
}

func NewAuthHandler(users CredentialLookup, jwtSecret string, accessTTLMin int) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, accessTTL: accessTTLMin}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type authResp struct {
	User   userPart  `json:"user"`
	Access tokenPart `json:"access"`
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		c.Logger().Errorf("login lookup: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if !u.IsActive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account deactivated"})
	}

	access, err := utils.NewAccessToken(h.jwtSecret, u.ID, u.Role, h.accessTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:   userPart{ID: u.ID, Email: u.Email, Role: u.Role},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me handles GET /v1/me.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, _ := c.Get(middleware.CtxRole).(string)
	return c.JSON(http.StatusOK, echo.Map{"id": uid, "role": role})
}

// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/karnika-s/heart-temp-sub000/internal/handler"
	"github.com/karnika-s/heart-temp-sub000/internal/metrics"
	"github.com/karnika-s/heart-temp-sub000/internal/middleware"
	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
// m may be nil.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m *metrics.Metrics) {
	e.GET("/healthz", handler.Health(db))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
}

// RegisterAuth registers login and the token introspection endpoint.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	e.POST("/v1/auth/login", a.Login)
	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin, model.RoleUser))
}

// LedgerOptions carries the optional Redis-backed middleware.
type LedgerOptions struct {
	RateLimit echo.MiddlewareFunc
	Cache     *middleware.ResponseCache
}

// RegisterLedger registers the pool, class, invitation and access code
// endpoints.  Every route needs a token; administration routes need the
// ADMIN role, the rest authorize inside the ledger.
func RegisterLedger(e *echo.Echo, l *handler.LedgerHandler, jwtSecret string, opts LedgerOptions) {
	pass := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	limit := opts.RateLimit
	if limit == nil {
		limit = pass
	}
	cached, invalidate := pass, pass
	if opts.Cache != nil {
		cached, invalidate = opts.Cache.Middleware(), opts.Cache.Invalidate()
	}

	v1 := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin, model.RoleUser))
	admin := middleware.RequireRole(model.RoleAdmin)

	// every write may move seats, so all of them drop cached pool reads
	v1.Use(invalidate)

	pools := v1.Group("/pools", admin)
	pools.POST("", l.CreatePool)
	pools.GET("", l.ListPools, cached)
	pools.GET("/lookup", l.LookupPool, cached)
	pools.GET("/:id", l.GetPool)
	pools.GET("/:id/summary", l.PoolSummary)

	classes := v1.Group("/classes")
	classes.POST("", l.CreateClass, admin)
	classes.GET("/:id", l.GetClass, admin)
	classes.POST("/:id/topup", l.TopUp, admin)
	classes.GET("/:id/remaining", l.RemainingSeats, admin)
	classes.DELETE("/:id/members/:role/:user_id", l.DropMember, admin)
	classes.POST("/:id/invitations", l.Invite)
	classes.POST("/:id/invitations/bulk", l.BulkInvite)
	classes.GET("/:id/invitations", l.ListInvitations)

	inv := v1.Group("/invitations")
	inv.GET("/:id", l.GetInvitation)
	inv.POST("/:id/accept", l.Accept, limit)
	inv.POST("/:id/reject", l.Reject, limit)
	inv.POST("/:id/resend", l.Resend, admin)
	inv.DELETE("/:id", l.Cancel, admin)
	inv.POST("/token/:token/accept", l.AcceptByToken, limit)
	inv.POST("/token/:token/reject", l.RejectByToken, limit)

	codes := v1.Group("/courses/:course_id/access-codes", admin)
	codes.POST("", l.GenerateCodes)
	codes.POST("/import", l.ImportCodes)
	codes.GET("", l.ListCodes)

	v1.POST("/access-codes/redeem", l.Redeem, limit)
}

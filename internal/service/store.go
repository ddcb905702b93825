package service

import (
	"context"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

// Store runs fn inside one transaction.  fn's error rolls everything
// back; a nil return commits.  Implementations must serialize the rows
// returned by the Lock methods until the transaction ends.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// Tx exposes the typed repositories bound to one transaction.
type Tx interface {
	Pools() PoolRepository
	Classes() ClassRepository
	Invitations() InvitationRepository
	AccessCodes() AccessCodeRepository
	Enrollments() EnrollmentRecorder
	Grants() CourseAccessGranter
	Users() UserDirectory
}

// PoolRepository persists license pools.  Create fails with
// ErrDuplicatePool when the course and scope are taken.
type PoolRepository interface {
	Create(ctx context.Context, p *model.LicensePool) error
	Get(ctx context.Context, id uint64) (model.LicensePool, error)
	Lock(ctx context.Context, id uint64) (model.LicensePool, error)
	FindByScope(ctx context.Context, courseID uint64, scope model.Scope) (model.LicensePool, error)
	List(ctx context.Context, courseID uint64) ([]model.LicensePool, error)
	SetAvailable(ctx context.Context, id uint64, available int, at time.Time) error
}

// ClassRepository persists classes and their member sets.  AddMember and
// RemoveMember report whether the set actually changed.
type ClassRepository interface {
	Create(ctx context.Context, c *model.Class) error
	Get(ctx context.Context, id uint64) (model.Class, error)
	Lock(ctx context.Context, id uint64) (model.Class, error)
	FindByIdentifier(ctx context.Context, courseID uint64, scope model.Scope, identifier string) (model.Class, error)
	ListByScope(ctx context.Context, courseID uint64, scope model.Scope) ([]model.Class, error)
	SetCounters(ctx context.Context, id uint64, available, used int, at time.Time) error
	AddMember(ctx context.Context, classID, userID uint64, role string) (bool, error)
	RemoveMember(ctx context.Context, classID, userID uint64, role string) (bool, error)
	IsMember(ctx context.Context, classID, userID uint64, role string) (bool, error)
	Members(ctx context.Context, classID uint64, role string) ([]uint64, error)
}

// InvitationRepository persists invitations.  Create fails with
// ErrDuplicateInvitation when a row exists for the class, user and type.
type InvitationRepository interface {
	Create(ctx context.Context, inv *model.Invitation) error
	Get(ctx context.Context, id uint64) (model.Invitation, error)
	Lock(ctx context.Context, id uint64) (model.Invitation, error)
	FindByToken(ctx context.Context, token string) (model.Invitation, error)
	Find(ctx context.Context, classID, userID uint64, typ string) (model.Invitation, error)
	ListByClass(ctx context.Context, classID uint64) ([]model.Invitation, error)
	Update(ctx context.Context, inv model.Invitation) error
	Delete(ctx context.Context, id uint64) error
}

// AccessCodeRepository persists access codes.  MarkConsumed is a
// conditional update and returns false when another caller won.
type AccessCodeRepository interface {
	Create(ctx context.Context, ac *model.AccessCode) error
	Get(ctx context.Context, code string) (model.AccessCode, error)
	ListByCourse(ctx context.Context, courseID uint64) ([]model.AccessCode, error)
	MarkConsumed(ctx context.Context, code string, userID uint64, at time.Time) (bool, error)
}

// EnrollmentRecorder stores durable user to entity links.  Add is
// idempotent; Remove of a missing link is not an error.
type EnrollmentRecorder interface {
	Add(ctx context.Context, userID uint64, entityType string, entityID uint64, bundle string) error
	Remove(ctx context.Context, userID uint64, entityType string, entityID uint64, bundle string) error
	Get(ctx context.Context, userID uint64, entityType, bundle string, entityID uint64) (bool, error)
}

// CourseAccessGranter creates zero-cost course orders.  Grant reports
// false when the user already had access.
type CourseAccessGranter interface {
	Grant(ctx context.Context, userID, courseID uint64, source string, at time.Time) (bool, error)
	Has(ctx context.Context, userID, courseID uint64) (bool, error)
}

// UserDirectory resolves accounts.
type UserDirectory interface {
	Get(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

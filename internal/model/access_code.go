package model

import "time"

// AccessCode is a single-use, course-level entitlement that bypasses
// pools and classes entirely.
type AccessCode struct {
	Code       string     `db:"code" json:"code"`
	CourseID   uint64     `db:"course_id" json:"course_id"`
	Consumed   bool       `db:"consumed" json:"consumed"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
	ConsumedBy *uint64    `db:"consumed_by" json:"consumed_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// Sources of a course access grant.
const (
	GrantSourceInvitation = "invitation"
	GrantSourceAccessCode = "access_code"
)

// CourseAccessGrant is the zero-cost order that entitles a user to a
// course.
type CourseAccessGrant struct {
	ID          uint64    `db:"id" json:"id"`
	UserID      uint64    `db:"user_id" json:"user_id"`
	CourseID    uint64    `db:"course_id" json:"course_id"`
	Source      string    `db:"source" json:"source"`
	AmountCents uint32    `db:"amount_cents" json:"amount_cents"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

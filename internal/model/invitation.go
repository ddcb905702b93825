package model

import "time"

// Invitation statuses.  Cancelled invitations are deleted, not flagged.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
)

// Invitation is an offer for UserID to join ClassID as Type (facilitator
// or learner).  Token is the outward accept/reject reference and changes
// on every resend.  There is at most one invitation per class, user and
// type.
type Invitation struct {
	ID        uint64    `db:"id" json:"id"`
	ClassID   uint64    `db:"class_id" json:"class_id"`
	UserID    uint64    `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Status    string    `db:"status" json:"status"`
	Token     string    `db:"token" json:"-"`
	InvitedBy uint64    `db:"invited_by" json:"invited_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Open reports whether the invitation blocks a new one for the same
// class, user and type.
func (i Invitation) Open() bool {
	return i.Status == InvitationPending || i.Status == InvitationAccepted
}

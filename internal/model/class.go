package model

import "time"

// Member roles inside a class.  They double as invitation types.
const (
	MemberFacilitator = "facilitator"
	MemberLearner     = "learner"
)

// ValidMemberRole reports whether r names a class role.
func ValidMemberRole(r string) bool {
	return r == MemberFacilitator || r == MemberLearner
}

// Class is a seat ledger drawing from the pool of its course and scope.
// LicensesUsed never exceeds LicensesAvailable.
type Class struct {
	ID       uint64 `db:"id" json:"id"`
	CourseID uint64 `db:"course_id" json:"course_id"`
	Scope
	Identifier        string    `db:"identifier" json:"identifier"`
	LicensesAvailable int       `db:"licenses_available" json:"licenses_available"`
	LicensesUsed      int       `db:"licenses_used" json:"licenses_used"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Remaining returns the seats that can still be consumed.
func (c Class) Remaining() int { return c.LicensesAvailable - c.LicensesUsed }

// ClassDetail is a class with its member sets.
type ClassDetail struct {
	Class
	Facilitators []uint64 `json:"facilitators"`
	Learners     []uint64 `json:"learners"`
}

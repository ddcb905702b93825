package model

// Enrollment record coordinates.  Classes are stored as "node" entities;
// the bundle tells learner and facilitator links apart.
const (
	EntityNode        = "node"
	BundleLearner     = "heart_class"
	BundleFacilitator = "heart_class_facilitator"
)

// BundleFor maps a member role to its enrollment bundle.
func BundleFor(role string) string {
	if role == MemberFacilitator {
		return BundleFacilitator
	}
	return BundleLearner
}

// EnrollmentRecord is a durable user to entity association.
type EnrollmentRecord struct {
	UserID     uint64 `db:"user_id" json:"user_id"`
	EntityType string `db:"entity_type" json:"entity_type"`
	EntityID   uint64 `db:"entity_id" json:"entity_id"`
	Bundle     string `db:"bundle" json:"bundle"`
}

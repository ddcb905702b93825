package model

import (
	"fmt"
	"time"
)

// Scope partitions pools and classes.  ParishID zero means the scope is
// diocese-wide; a parish-scoped pool is a distinct row and is never
// treated as a child of the diocese pool.
type Scope struct {
	DioceseID uint64 `db:"diocese_id" json:"diocese_id"`
	ParishID  uint64 `db:"parish_id" json:"parish_id,omitempty"`
}

// DioceseWide reports whether the scope has no parish component.
func (s Scope) DioceseWide() bool { return s.ParishID == 0 }

func (s Scope) String() string {
	if s.DioceseWide() {
		return fmt.Sprintf("diocese:%d", s.DioceseID)
	}
	return fmt.Sprintf("diocese:%d/parish:%d", s.DioceseID, s.ParishID)
}

// LicensePool records purchased and unallocated seats for one course in
// one scope.
//
// Fields:
//
//	ID                – license_pools.id
//	CourseID          – course the seats were bought for.
//	Scope             – diocese and optional parish.
//	QuantityPurchased – fixed at creation.
//	QuantityAvailable – seats not yet allocated to a class.
type LicensePool struct {
	ID                uint64 `db:"id" json:"id"`
	CourseID          uint64 `db:"course_id" json:"course_id"`
	Scope
	QuantityPurchased int       `db:"quantity_purchased" json:"quantity_purchased"`
	QuantityAvailable int       `db:"quantity_available" json:"quantity_available"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// PoolSummary is a pool together with the allocations drawn from it.
// Balanced is true when available plus allocated equals purchased.
type PoolSummary struct {
	Pool      LicensePool       `json:"pool"`
	Classes   []ClassAllocation `json:"classes"`
	Allocated int               `json:"allocated"`
	Balanced  bool              `json:"balanced"`
}

// ClassAllocation is the share of a pool held by one class.
type ClassAllocation struct {
	ClassID           uint64 `json:"class_id"`
	Identifier        string `json:"identifier"`
	LicensesAvailable int    `json:"licenses_available"`
	LicensesUsed      int    `json:"licenses_used"`
}

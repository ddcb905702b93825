package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

// NewClass is the request to open a class against a pool.
type NewClass struct {
	CourseID   uint64
	Scope      model.Scope
	Identifier string
	Seats      int
}

// CreateClass draws Seats from the matching pool and opens the class in
// the same transaction, so a failed allocation leaves nothing behind.
func (s *Service) CreateClass(ctx context.Context, req NewClass) (class model.Class, err error) {
	defer s.track("create_class", time.Now(), &err)
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" {
		return class, fmt.Errorf("%w: identifier is required", ErrInvalidInput)
	}
	if err = validScope(req.CourseID, req.Scope); err != nil {
		return class, err
	}
	if req.Seats <= 0 {
		return class, ErrInvalidQuantity
	}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		_, err := tx.Classes().FindByIdentifier(ctx, req.CourseID, req.Scope, req.Identifier)
		if err == nil {
			return ErrDuplicateClass
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		pool, err := tx.Pools().FindByScope(ctx, req.CourseID, req.Scope)
		if err != nil {
			return fmt.Errorf("license pool for course %d in %s: %w", req.CourseID, req.Scope, err)
		}
		if _, err := s.allocate(ctx, tx, pool.ID, req.Seats); err != nil {
			return err
		}
		now := s.now()
		class = model.Class{
			CourseID:          req.CourseID,
			Scope:             req.Scope,
			Identifier:        req.Identifier,
			LicensesAvailable: req.Seats,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return tx.Classes().Create(ctx, &class)
	})
	return class, err
}

// TopUp moves additionalSeats from the class's pool into the class.
func (s *Service) TopUp(ctx context.Context, classID uint64, additionalSeats int) (class model.Class, err error) {
	defer s.track("top_up", time.Now(), &err)
	if additionalSeats <= 0 {
		return class, ErrInvalidQuantity
	}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if class, err = tx.Classes().Lock(ctx, classID); err != nil {
			return err
		}
		pool, err := tx.Pools().FindByScope(ctx, class.CourseID, class.Scope)
		if err != nil {
			return fmt.Errorf("license pool for class %d: %w", classID, err)
		}
		if _, err := s.allocate(ctx, tx, pool.ID, additionalSeats); err != nil {
			return err
		}
		class.LicensesAvailable += additionalSeats
		class.UpdatedAt = s.now()
		return tx.Classes().SetCounters(ctx, class.ID, class.LicensesAvailable, class.LicensesUsed, class.UpdatedAt)
	})
	return class, err
}

// RemainingSeats returns available minus used seats of the class.
func (s *Service) RemainingSeats(ctx context.Context, classID uint64) (n int, err error) {
	err = s.store.WithTx(ctx, func(tx Tx) error {
		c, err := tx.Classes().Get(ctx, classID)
		n = c.Remaining()
		return err
	})
	return n, err
}

// consumeSeat expects class to be locked in tx.
func (s *Service) consumeSeat(ctx context.Context, tx Tx, class *model.Class) error {
	if class.LicensesUsed >= class.LicensesAvailable {
		return ErrNoSeatsLeft
	}
	class.LicensesUsed++
	class.UpdatedAt = s.now()
	return tx.Classes().SetCounters(ctx, class.ID, class.LicensesAvailable, class.LicensesUsed, class.UpdatedAt)
}

// GetClass returns the class with its facilitator and learner sets.
func (s *Service) GetClass(ctx context.Context, classID uint64) (d model.ClassDetail, err error) {
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if d.Class, err = tx.Classes().Get(ctx, classID); err != nil {
			return err
		}
		if d.Facilitators, err = tx.Classes().Members(ctx, classID, model.MemberFacilitator); err != nil {
			return err
		}
		d.Learners, err = tx.Classes().Members(ctx, classID, model.MemberLearner)
		return err
	})
	return d, err
}

// DropMember removes userID from the role set of the class and erases
// the enrollment record.  The consumed seat is not given back.
func (s *Service) DropMember(ctx context.Context, classID, userID uint64, role string) (err error) {
	defer s.track("drop_member", time.Now(), &err)
	if !model.ValidMemberRole(role) {
		return fmt.Errorf("%w: role %q", ErrInvalidInput, role)
	}
	return s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.Classes().Lock(ctx, classID); err != nil {
			return err
		}
		removed, err := tx.Classes().RemoveMember(ctx, classID, userID, role)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("user %d is not a %s of class %d: %w", userID, role, classID, ErrNotFound)
		}
		return tx.Enrollments().Remove(ctx, userID, model.EntityNode, classID, model.BundleFor(role))
	})
}

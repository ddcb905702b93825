package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

func validScope(courseID uint64, scope model.Scope) error {
	if courseID == 0 || scope.DioceseID == 0 {
		return fmt.Errorf("%w: course and diocese are required", ErrInvalidInput)
	}
	return nil
}

// CreatePool records a purchase of quantityPurchased seats for course in
// scope.  All seats start available.
func (s *Service) CreatePool(ctx context.Context, courseID uint64, scope model.Scope, quantityPurchased int) (pool model.LicensePool, err error) {
	defer s.track("create_pool", time.Now(), &err)
	if quantityPurchased < 0 {
		return pool, ErrInvalidQuantity
	}
	if err = validScope(courseID, scope); err != nil {
		return pool, err
	}
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.Pools().FindByScope(ctx, courseID, scope); err == nil {
			return ErrDuplicatePool
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		now := s.now()
		pool = model.LicensePool{
			CourseID:          courseID,
			Scope:             scope,
			QuantityPurchased: quantityPurchased,
			QuantityAvailable: quantityPurchased,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		return tx.Pools().Create(ctx, &pool)
	})
	return pool, err
}

// Allocate takes quantity seats out of the pool.  It is the only way a
// pool's availability goes down.
func (s *Service) Allocate(ctx context.Context, poolID uint64, quantity int) (err error) {
	defer s.track("allocate", time.Now(), &err)
	return s.store.WithTx(ctx, func(tx Tx) error {
		_, err := s.allocate(ctx, tx, poolID, quantity)
		return err
	})
}

// allocate locks the pool row for the rest of tx before checking it.
func (s *Service) allocate(ctx context.Context, tx Tx, poolID uint64, quantity int) (model.LicensePool, error) {
	if quantity <= 0 {
		return model.LicensePool{}, ErrInvalidQuantity
	}
	pool, err := tx.Pools().Lock(ctx, poolID)
	if err != nil {
		return pool, err
	}
	if quantity > pool.QuantityAvailable {
		return pool, fmt.Errorf("%w: requested %d, %d available", ErrInsufficientSeats, quantity, pool.QuantityAvailable)
	}
	pool.QuantityAvailable -= quantity
	pool.UpdatedAt = s.now()
	if err := tx.Pools().SetAvailable(ctx, pool.ID, pool.QuantityAvailable, pool.UpdatedAt); err != nil {
		return pool, err
	}
	return pool, nil
}

// Lookup finds the pool for exactly this course and scope.  A parish
// lookup never falls back to the diocese-wide pool.
func (s *Service) Lookup(ctx context.Context, courseID uint64, scope model.Scope) (pool model.LicensePool, err error) {
	defer s.track("lookup_pool", time.Now(), &err)
	err = s.store.WithTx(ctx, func(tx Tx) error {
		pool, err = tx.Pools().FindByScope(ctx, courseID, scope)
		return err
	})
	return pool, err
}

func (s *Service) GetPool(ctx context.Context, id uint64) (pool model.LicensePool, err error) {
	err = s.store.WithTx(ctx, func(tx Tx) error {
		pool, err = tx.Pools().Get(ctx, id)
		return err
	})
	return pool, err
}

// ListPools returns the pools of a course, or every pool when courseID
// is zero.
func (s *Service) ListPools(ctx context.Context, courseID uint64) (pools []model.LicensePool, err error) {
	err = s.store.WithTx(ctx, func(tx Tx) error {
		pools, err = tx.Pools().List(ctx, courseID)
		return err
	})
	return pools, err
}

// PoolSummary reports a pool's allocations and whether its seats are
// conserved.
func (s *Service) PoolSummary(ctx context.Context, poolID uint64) (sum model.PoolSummary, err error) {
	err = s.store.WithTx(ctx, func(tx Tx) error {
		pool, err := tx.Pools().Get(ctx, poolID)
		if err != nil {
			return err
		}
		classes, err := tx.Classes().ListByScope(ctx, pool.CourseID, pool.Scope)
		if err != nil {
			return err
		}
		sum = model.PoolSummary{Pool: pool, Classes: make([]model.ClassAllocation, 0, len(classes))}
		for _, c := range classes {
			sum.Allocated += c.LicensesAvailable
			sum.Classes = append(sum.Classes, model.ClassAllocation{
				ClassID:           c.ID,
				Identifier:        c.Identifier,
				LicensesAvailable: c.LicensesAvailable,
				LicensesUsed:      c.LicensesUsed,
			})
		}
		sum.Balanced = pool.QuantityAvailable+sum.Allocated == pool.QuantityPurchased
		return nil
	})
	return sum, err
}

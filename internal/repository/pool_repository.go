package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

const poolColumns = "id, course_id, diocese_id, parish_id, quantity_purchased, quantity_available, created_at, updated_at"

// PoolRepo persists license_pools rows.
type PoolRepo struct {
	q         sqlx.ExtContext
	forUpdate string
}

func (r *PoolRepo) Create(ctx context.Context, p *model.LicensePool) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO license_pools (course_id, diocese_id, parish_id, quantity_purchased, quantity_available, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.CourseID, p.DioceseID, p.ParishID, p.QuantityPurchased, p.QuantityAvailable, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return duplicate(err, service.ErrDuplicatePool, "insert license pool")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "license pool id")
	}
	p.ID = uint64(id)
	return nil
}

func (r *PoolRepo) get(ctx context.Context, id uint64, suffix string) (model.LicensePool, error) {
	var p model.LicensePool
	err := sqlx.GetContext(ctx, r.q, &p, "SELECT "+poolColumns+" FROM license_pools WHERE id = ?"+suffix, id)
	if err != nil {
		return p, notFound(err, "get license pool")
	}
	return p, nil
}

func (r *PoolRepo) Get(ctx context.Context, id uint64) (model.LicensePool, error) {
	return r.get(ctx, id, "")
}

func (r *PoolRepo) Lock(ctx context.Context, id uint64) (model.LicensePool, error) {
	return r.get(ctx, id, r.forUpdate)
}

func (r *PoolRepo) FindByScope(ctx context.Context, courseID uint64, scope model.Scope) (model.LicensePool, error) {
	var p model.LicensePool
	err := sqlx.GetContext(ctx, r.q, &p,
		"SELECT "+poolColumns+" FROM license_pools WHERE course_id = ? AND diocese_id = ? AND parish_id = ?",
		courseID, scope.DioceseID, scope.ParishID)
	if err != nil {
		return p, notFound(err, "find license pool")
	}
	return p, nil
}

func (r *PoolRepo) List(ctx context.Context, courseID uint64) ([]model.LicensePool, error) {
	pools := []model.LicensePool{}
	var err error
	if courseID == 0 {
		err = sqlx.SelectContext(ctx, r.q, &pools, "SELECT "+poolColumns+" FROM license_pools ORDER BY id")
	} else {
		err = sqlx.SelectContext(ctx, r.q, &pools, "SELECT "+poolColumns+" FROM license_pools WHERE course_id = ? ORDER BY id", courseID)
	}
	return pools, errors.Wrap(err, "list license pools")
}

func (r *PoolRepo) SetAvailable(ctx context.Context, id uint64, available int, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE license_pools SET quantity_available = ?, updated_at = ? WHERE id = ?", available, at, id)
	if err != nil {
		return errors.Wrap(err, "update license pool")
	}
	return affected(res, "update license pool")
}

package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// EnrollmentRepo records user to entity links in user_ref_data.
type EnrollmentRepo struct {
	q sqlx.ExtContext
}

func (r *EnrollmentRepo) Add(ctx context.Context, userID uint64, entityType string, entityID uint64, bundle string) error {
	ok, err := r.Get(ctx, userID, entityType, bundle, entityID)
	if err != nil || ok {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		"INSERT INTO user_ref_data (user_id, entity_type, entity_id, bundle, created_at) VALUES (?, ?, ?, ?, ?)",
		userID, entityType, entityID, bundle, time.Now().UTC())
	if err != nil && !isDuplicate(err) {
		return errors.Wrap(err, "insert user_ref_data")
	}
	return nil
}

func (r *EnrollmentRepo) Remove(ctx context.Context, userID uint64, entityType string, entityID uint64, bundle string) error {
	_, err := r.q.ExecContext(ctx,
		"DELETE FROM user_ref_data WHERE user_id = ? AND entity_type = ? AND entity_id = ? AND bundle = ?",
		userID, entityType, entityID, bundle)
	return errors.Wrap(err, "delete user_ref_data")
}

func (r *EnrollmentRepo) Get(ctx context.Context, userID uint64, entityType, bundle string, entityID uint64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n,
		"SELECT COUNT(*) FROM user_ref_data WHERE user_id = ? AND entity_type = ? AND entity_id = ? AND bundle = ?",
		userID, entityType, entityID, bundle)
	if err != nil {
		return false, errors.Wrap(err, "get user_ref_data")
	}
	return n > 0, nil
}

// GrantRepo writes zero-cost course orders to course_access_grants.
type GrantRepo struct {
	q sqlx.ExtContext
}

func (r *GrantRepo) Grant(ctx context.Context, userID, courseID uint64, source string, at time.Time) (bool, error) {
	ok, err := r.Has(ctx, userID, courseID)
	if err != nil || ok {
		return false, err
	}
	_, err = r.q.ExecContext(ctx,
		"INSERT INTO course_access_grants (user_id, course_id, source, amount_cents, created_at) VALUES (?, ?, ?, 0, ?)",
		userID, courseID, source, at)
	if isDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "insert course access grant")
	}
	return true, nil
}

func (r *GrantRepo) Has(ctx context.Context, userID, courseID uint64) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n,
		"SELECT COUNT(*) FROM course_access_grants WHERE user_id = ? AND course_id = ?", userID, courseID)
	if err != nil {
		return false, errors.Wrap(err, "check course access grant")
	}
	return n > 0, nil
}

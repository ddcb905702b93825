package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

const accessCodeColumns = "code, course_id, consumed, consumed_at, consumed_by, created_at"

// AccessCodeRepo persists access_codes rows.
type AccessCodeRepo struct {
	q sqlx.ExtContext
}

func (r *AccessCodeRepo) Create(ctx context.Context, ac *model.AccessCode) error {
	_, err := r.q.ExecContext(ctx,
		"INSERT INTO access_codes (code, course_id, consumed, created_at) VALUES (?, ?, ?, ?)",
		ac.Code, ac.CourseID, ac.Consumed, ac.CreatedAt)
	if err != nil {
		return duplicate(err, service.ErrDuplicateCode, "insert access code")
	}
	return nil
}

func (r *AccessCodeRepo) Get(ctx context.Context, code string) (model.AccessCode, error) {
	var ac model.AccessCode
	err := sqlx.GetContext(ctx, r.q, &ac, "SELECT "+accessCodeColumns+" FROM access_codes WHERE code = ?", code)
	if err != nil {
		return ac, notFound(err, "get access code")
	}
	return ac, nil
}

func (r *AccessCodeRepo) ListByCourse(ctx context.Context, courseID uint64) ([]model.AccessCode, error) {
	codes := []model.AccessCode{}
	err := sqlx.SelectContext(ctx, r.q, &codes,
		"SELECT "+accessCodeColumns+" FROM access_codes WHERE course_id = ? ORDER BY code", courseID)
	return codes, errors.Wrap(err, "list access codes")
}

// MarkConsumed only flips codes that are still unconsumed; a zero row
// count means someone else got there first.
func (r *AccessCodeRepo) MarkConsumed(ctx context.Context, code string, userID uint64, at time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		"UPDATE access_codes SET consumed = ?, consumed_at = ?, consumed_by = ? WHERE code = ? AND consumed = ?",
		true, at, userID, code, false)
	if err != nil {
		return false, errors.Wrap(err, "consume access code")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "consume access code")
	}
	return n == 1, nil
}

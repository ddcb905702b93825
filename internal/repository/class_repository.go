package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

const classColumns = "id, course_id, diocese_id, parish_id, identifier, licenses_available, licenses_used, created_at, updated_at"

// ClassRepo persists heart_classes rows and their class_members sets.
type ClassRepo struct {
	q         sqlx.ExtContext
	forUpdate string
}

func (r *ClassRepo) Create(ctx context.Context, c *model.Class) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO heart_classes (course_id, diocese_id, parish_id, identifier, licenses_available, licenses_used, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CourseID, c.DioceseID, c.ParishID, c.Identifier, c.LicensesAvailable, c.LicensesUsed, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return duplicate(err, service.ErrDuplicateClass, "insert class")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "class id")
	}
	c.ID = uint64(id)
	return nil
}

func (r *ClassRepo) get(ctx context.Context, id uint64, suffix string) (model.Class, error) {
	var c model.Class
	err := sqlx.GetContext(ctx, r.q, &c, "SELECT "+classColumns+" FROM heart_classes WHERE id = ?"+suffix, id)
	if err != nil {
		return c, notFound(err, "get class")
	}
	return c, nil
}

func (r *ClassRepo) Get(ctx context.Context, id uint64) (model.Class, error) {
	return r.get(ctx, id, "")
}

func (r *ClassRepo) Lock(ctx context.Context, id uint64) (model.Class, error) {
	return r.get(ctx, id, r.forUpdate)
}

func (r *ClassRepo) FindByIdentifier(ctx context.Context, courseID uint64, scope model.Scope, identifier string) (model.Class, error) {
	var c model.Class
	err := sqlx.GetContext(ctx, r.q, &c,
		"SELECT "+classColumns+" FROM heart_classes WHERE course_id = ? AND diocese_id = ? AND parish_id = ? AND identifier = ?",
		courseID, scope.DioceseID, scope.ParishID, identifier)
	if err != nil {
		return c, notFound(err, "find class")
	}
	return c, nil
}

func (r *ClassRepo) ListByScope(ctx context.Context, courseID uint64, scope model.Scope) ([]model.Class, error) {
	classes := []model.Class{}
	err := sqlx.SelectContext(ctx, r.q, &classes,
		"SELECT "+classColumns+" FROM heart_classes WHERE course_id = ? AND diocese_id = ? AND parish_id = ? ORDER BY id",
		courseID, scope.DioceseID, scope.ParishID)
	return classes, errors.Wrap(err, "list classes")
}

func (r *ClassRepo) SetCounters(ctx context.Context, id uint64, available, used int, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE heart_classes SET licenses_available = ?, licenses_used = ?, updated_at = ? WHERE id = ?",
		available, used, at, id)
	if err != nil {
		return errors.Wrap(err, "update class counters")
	}
	return affected(res, "update class counters")
}

func (r *ClassRepo) AddMember(ctx context.Context, classID, userID uint64, role string) (bool, error) {
	ok, err := r.IsMember(ctx, classID, userID, role)
	if err != nil || ok {
		return false, err
	}
	_, err = r.q.ExecContext(ctx,
		"INSERT INTO class_members (class_id, user_id, role) VALUES (?, ?, ?)", classID, userID, role)
	if isDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "insert class member")
	}
	return true, nil
}

func (r *ClassRepo) RemoveMember(ctx context.Context, classID, userID uint64, role string) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		"DELETE FROM class_members WHERE class_id = ? AND user_id = ? AND role = ?", classID, userID, role)
	if err != nil {
		return false, errors.Wrap(err, "delete class member")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "delete class member")
	}
	return n > 0, nil
}

func (r *ClassRepo) IsMember(ctx context.Context, classID, userID uint64, role string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n,
		"SELECT COUNT(*) FROM class_members WHERE class_id = ? AND user_id = ? AND role = ?", classID, userID, role)
	if err != nil {
		return false, errors.Wrap(err, "check class member")
	}
	return n > 0, nil
}

func (r *ClassRepo) Members(ctx context.Context, classID uint64, role string) ([]uint64, error) {
	ids := []uint64{}
	err := sqlx.SelectContext(ctx, r.q, &ids,
		"SELECT user_id FROM class_members WHERE class_id = ? AND role = ? ORDER BY user_id", classID, role)
	return ids, errors.Wrap(err, "list class members")
}

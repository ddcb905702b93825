package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/utils"
)

const userColumns = "id, email, password_hash, role, is_active, created_at, updated_at"

// UserRepo reads and writes the users table.
type UserRepo struct{ q sqlx.ExtContext }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{q: db} }

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		email, hash, role, true, now, now)
	if err != nil {
		return 0, duplicate(err, ErrEmailExists, "insert user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "user id")
	}
	return uint64(id), nil
}

// SetPassword replaces the password of an existing user and activates it.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, password, role string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, role = ?, is_active = ?, updated_at = ? WHERE id = ?",
		hash, role, true, time.Now().UTC(), id)
	if err != nil {
		return errors.Wrap(err, "update user")
	}
	return affected(res, "update user")
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := sqlx.GetContext(ctx, r.q, &u, "SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
	if err != nil {
		return u, notFound(err, "get user by email")
	}
	return u, nil
}

// Get fetches a user by id.
func (r *UserRepo) Get(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, r.q, &u, "SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	if err != nil {
		return u, notFound(err, "get user")
	}
	return u, nil
}

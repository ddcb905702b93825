package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

const invitationColumns = "id, class_id, user_id, type, status, token, invited_by, created_at, updated_at"

// InvitationRepo persists invitations rows.  The unique key on
// (class_id, user_id, type) backs the one-invitation-per-tuple rule.
type InvitationRepo struct {
	q         sqlx.ExtContext
	forUpdate string
}

func (r *InvitationRepo) Create(ctx context.Context, inv *model.Invitation) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO invitations (class_id, user_id, type, status, token, invited_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ClassID, inv.UserID, inv.Type, inv.Status, inv.Token, inv.InvitedBy, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return duplicate(err, service.ErrDuplicateInvitation, "insert invitation")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "invitation id")
	}
	inv.ID = uint64(id)
	return nil
}

func (r *InvitationRepo) one(ctx context.Context, where string, args ...interface{}) (model.Invitation, error) {
	var inv model.Invitation
	err := sqlx.GetContext(ctx, r.q, &inv, "SELECT "+invitationColumns+" FROM invitations WHERE "+where, args...)
	if err != nil {
		return inv, notFound(err, "get invitation")
	}
	return inv, nil
}

func (r *InvitationRepo) Get(ctx context.Context, id uint64) (model.Invitation, error) {
	return r.one(ctx, "id = ?", id)
}

func (r *InvitationRepo) Lock(ctx context.Context, id uint64) (model.Invitation, error) {
	return r.one(ctx, "id = ?"+r.forUpdate, id)
}

func (r *InvitationRepo) FindByToken(ctx context.Context, token string) (model.Invitation, error) {
	return r.one(ctx, "token = ?", token)
}

func (r *InvitationRepo) Find(ctx context.Context, classID, userID uint64, typ string) (model.Invitation, error) {
	return r.one(ctx, "class_id = ? AND user_id = ? AND type = ?", classID, userID, typ)
}

func (r *InvitationRepo) ListByClass(ctx context.Context, classID uint64) ([]model.Invitation, error) {
	invs := []model.Invitation{}
	err := sqlx.SelectContext(ctx, r.q, &invs,
		"SELECT "+invitationColumns+" FROM invitations WHERE class_id = ? ORDER BY id", classID)
	return invs, errors.Wrap(err, "list invitations")
}

func (r *InvitationRepo) Update(ctx context.Context, inv model.Invitation) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE invitations SET status = ?, token = ?, invited_by = ?, updated_at = ? WHERE id = ?",
		inv.Status, inv.Token, inv.InvitedBy, inv.UpdatedAt, inv.ID)
	if err != nil {
		return errors.Wrap(err, "update invitation")
	}
	return affected(res, "update invitation")
}

func (r *InvitationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM invitations WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "delete invitation")
	}
	return affected(res, "delete invitation")
}

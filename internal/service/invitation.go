package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
)

// authorizeClass allows admins and facilitators of the class.
func authorizeClass(ctx context.Context, tx Tx, actor Actor, classID uint64) error {
	if actor.Admin {
		return nil
	}
	ok, err := tx.Classes().IsMember(ctx, classID, actor.UserID, model.MemberFacilitator)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *Service) invitationNote(inv model.Invitation, class model.Class, to model.User) Notification {
	return Notification{
		Template: TemplateInvitation,
		To:       to.Email,
		Vars: map[string]string{
			"class":       class.Identifier,
			"course_id":   fmt.Sprint(class.CourseID),
			"role":        inv.Type,
			"accept_link": s.invitationLink(inv.Token) + "/accept",
			"reject_link": s.invitationLink(inv.Token) + "/reject",
		},
	}
}

// Invite offers userID a place in the class as typ.  A previously
// rejected invitation for the same tuple is reset to pending; a pending
// or accepted one makes the call fail with ErrDuplicateInvitation.
func (s *Service) Invite(ctx context.Context, actor Actor, classID, userID uint64, typ string) (inv model.Invitation, err error) {
	defer s.track("invite", time.Now(), &err)
	if !model.ValidMemberRole(typ) {
		return inv, fmt.Errorf("%w: invitation type %q", ErrInvalidInput, typ)
	}
	var note Notification
	err = s.store.WithTx(ctx, func(tx Tx) error {
		class, err := tx.Classes().Get(ctx, classID)
		if err != nil {
			return err
		}
		if err := authorizeClass(ctx, tx, actor, classID); err != nil {
			return err
		}
		user, err := tx.Users().Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("invited user %d: %w", userID, err)
		}
		if !user.IsActive {
			return fmt.Errorf("%w: user %d is inactive", ErrInvalidInput, userID)
		}
		if inv, err = s.upsertInvitation(ctx, tx, actor, classID, userID, typ); err != nil {
			return err
		}
		note = s.invitationNote(inv, class, user)
		return nil
	})
	if err != nil {
		return inv, err
	}
	return inv, s.notify(ctx, note)
}

func (s *Service) upsertInvitation(ctx context.Context, tx Tx, actor Actor, classID, userID uint64, typ string) (model.Invitation, error) {
	now := s.now()
	inv, err := tx.Invitations().Find(ctx, classID, userID, typ)
	if err == nil {
		inv, err = tx.Invitations().Lock(ctx, inv.ID)
	}
	switch {
	case err == nil && inv.Open():
		return inv, ErrDuplicateInvitation
	case err == nil:
		inv.Status = model.InvitationPending
		inv.Token = s.newToken()
		inv.InvitedBy = actor.UserID
		inv.UpdatedAt = now
		return inv, tx.Invitations().Update(ctx, inv)
	case !errors.Is(err, ErrNotFound):
		return inv, err
	}
	inv = model.Invitation{
		ClassID:   classID,
		UserID:    userID,
		Type:      typ,
		Status:    model.InvitationPending,
		Token:     s.newToken(),
		InvitedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return inv, tx.Invitations().Create(ctx, &inv)
}

// Accept records actingUser's acceptance.  A learner consumes one seat
// the first time they join the class; facilitators never consume one.
func (s *Service) Accept(ctx context.Context, invitationID, actingUser uint64) (inv model.Invitation, err error) {
	defer s.track("accept", time.Now(), &err)
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if inv, err = tx.Invitations().Lock(ctx, invitationID); err != nil {
			return err
		}
		return s.accept(ctx, tx, &inv, actingUser)
	})
	return inv, err
}

// AcceptByToken is Accept addressed by the link token.
func (s *Service) AcceptByToken(ctx context.Context, token string, actingUser uint64) (inv model.Invitation, err error) {
	defer s.track("accept", time.Now(), &err)
	err = s.store.WithTx(ctx, func(tx Tx) error {
		found, err := tx.Invitations().FindByToken(ctx, token)
		if err != nil {
			return err
		}
		if inv, err = tx.Invitations().Lock(ctx, found.ID); err != nil {
			return err
		}
		return s.accept(ctx, tx, &inv, actingUser)
	})
	return inv, err
}

func (s *Service) accept(ctx context.Context, tx Tx, inv *model.Invitation, actingUser uint64) error {
	if inv.UserID != actingUser {
		return ErrForbidden
	}
	switch inv.Status {
	case model.InvitationAccepted:
		return ErrAlreadyAccepted
	case model.InvitationPending:
	default:
		return fmt.Errorf("%w: cannot accept a %s invitation", ErrInvalidState, inv.Status)
	}
	class, err := tx.Classes().Lock(ctx, inv.ClassID)
	if err != nil {
		return err
	}
	added, err := tx.Classes().AddMember(ctx, class.ID, inv.UserID, inv.Type)
	if err != nil {
		return err
	}
	if added && inv.Type == model.MemberLearner {
		if err := s.consumeSeat(ctx, tx, &class); err != nil {
			return err
		}
	}
	if err := tx.Enrollments().Add(ctx, inv.UserID, model.EntityNode, class.ID, model.BundleFor(inv.Type)); err != nil {
		return err
	}
	if inv.Type == model.MemberLearner {
		if _, err := tx.Grants().Grant(ctx, inv.UserID, class.CourseID, model.GrantSourceInvitation, s.now()); err != nil {
			return err
		}
	}
	inv.Status = model.InvitationAccepted
	inv.UpdatedAt = s.now()
	return tx.Invitations().Update(ctx, *inv)
}

// Reject records actingUser's refusal of a pending invitation.
func (s *Service) Reject(ctx context.Context, invitationID, actingUser uint64) (inv model.Invitation, err error) {
	defer s.track("reject", time.Now(), &err)
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if inv, err = tx.Invitations().Lock(ctx, invitationID); err != nil {
			return err
		}
		return s.reject(ctx, tx, &inv, actingUser)
	})
	return inv, err
}

// RejectByToken is Reject addressed by the link token.
func (s *Service) RejectByToken(ctx context.Context, token string, actingUser uint64) (inv model.Invitation, err error) {
	defer s.track("reject", time.Now(), &err)
	err = s.store.WithTx(ctx, func(tx Tx) error {
		found, err := tx.Invitations().FindByToken(ctx, token)
		if err != nil {
			return err
		}
		if inv, err = tx.Invitations().Lock(ctx, found.ID); err != nil {
			return err
		}
		return s.reject(ctx, tx, &inv, actingUser)
	})
	return inv, err
}

func (s *Service) reject(ctx context.Context, tx Tx, inv *model.Invitation, actingUser uint64) error {
	if inv.UserID != actingUser {
		return ErrForbidden
	}
	switch inv.Status {
	case model.InvitationPending:
	case model.InvitationAccepted:
		return ErrAlreadyAccepted
	default:
		return fmt.Errorf("%w: invitation already %s", ErrInvalidState, inv.Status)
	}
	inv.Status = model.InvitationRejected
	inv.UpdatedAt = s.now()
	return tx.Invitations().Update(ctx, *inv)
}

// Resend puts the invitation back to pending under a fresh token and
// notifies the invitee again.
func (s *Service) Resend(ctx context.Context, invitationID uint64) (inv model.Invitation, err error) {
	defer s.track("resend", time.Now(), &err)
	var note Notification
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if inv, err = tx.Invitations().Lock(ctx, invitationID); err != nil {
			return err
		}
		class, err := tx.Classes().Get(ctx, inv.ClassID)
		if err != nil {
			return err
		}
		user, err := tx.Users().Get(ctx, inv.UserID)
		if err != nil {
			return err
		}
		inv.Status = model.InvitationPending
		inv.Token = s.newToken()
		inv.UpdatedAt = s.now()
		if err := tx.Invitations().Update(ctx, inv); err != nil {
			return err
		}
		note = s.invitationNote(inv, class, user)
		return nil
	})
	if err != nil {
		return inv, err
	}
	return inv, s.notify(ctx, note)
}

// Cancel deletes the invitation together with any class membership and
// enrollment record it produced; used seats stay used.
func (s *Service) Cancel(ctx context.Context, invitationID uint64) (err error) {
	defer s.track("cancel", time.Now(), &err)
	return s.store.WithTx(ctx, func(tx Tx) error {
		inv, err := tx.Invitations().Lock(ctx, invitationID)
		if err != nil {
			return err
		}
		// a resent or re-rejected invitation may still carry the
		// membership from an earlier acceptance
		if _, err := tx.Classes().Lock(ctx, inv.ClassID); err != nil {
			return err
		}
		if _, err := tx.Classes().RemoveMember(ctx, inv.ClassID, inv.UserID, inv.Type); err != nil {
			return err
		}
		if err := tx.Enrollments().Remove(ctx, inv.UserID, model.EntityNode, inv.ClassID, model.BundleFor(inv.Type)); err != nil {
			return err
		}
		return tx.Invitations().Delete(ctx, inv.ID)
	})
}

// GetInvitation returns one invitation.  Admins, class facilitators and
// the invitee may read it.
func (s *Service) GetInvitation(ctx context.Context, actor Actor, invitationID uint64) (inv model.Invitation, err error) {
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if inv, err = tx.Invitations().Get(ctx, invitationID); err != nil {
			return err
		}
		if inv.UserID == actor.UserID {
			return nil
		}
		return authorizeClass(ctx, tx, actor, inv.ClassID)
	})
	return inv, err
}

// ListInvitations returns every invitation of the class.
func (s *Service) ListInvitations(ctx context.Context, actor Actor, classID uint64) (invs []model.Invitation, err error) {
	err = s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.Classes().Get(ctx, classID); err != nil {
			return err
		}
		if err := authorizeClass(ctx, tx, actor, classID); err != nil {
			return err
		}
		invs, err = tx.Invitations().ListByClass(ctx, classID)
		return err
	})
	return invs, err
}

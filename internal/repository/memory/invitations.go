package memory

import (
	"context"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

type invitationRepo struct{ st *state }

func (r invitationRepo) Create(_ context.Context, inv *model.Invitation) error {
	for _, existing := range r.st.invitations {
		if existing.ClassID == inv.ClassID && existing.UserID == inv.UserID && existing.Type == inv.Type {
			return service.ErrDuplicateInvitation
		}
	}
	inv.ID = r.st.nextID()
	r.st.invitations[inv.ID] = *inv
	return nil
}

func (r invitationRepo) Get(_ context.Context, id uint64) (model.Invitation, error) {
	inv, ok := r.st.invitations[id]
	if !ok {
		return inv, service.ErrNotFound
	}
	return inv, nil
}

func (r invitationRepo) Lock(ctx context.Context, id uint64) (model.Invitation, error) {
	return r.Get(ctx, id)
}

func (r invitationRepo) FindByToken(_ context.Context, token string) (model.Invitation, error) {
	for _, inv := range r.st.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return model.Invitation{}, service.ErrNotFound
}

func (r invitationRepo) Find(_ context.Context, classID, userID uint64, typ string) (model.Invitation, error) {
	for _, inv := range r.st.invitations {
		if inv.ClassID == classID && inv.UserID == userID && inv.Type == typ {
			return inv, nil
		}
	}
	return model.Invitation{}, service.ErrNotFound
}

func (r invitationRepo) ListByClass(_ context.Context, classID uint64) ([]model.Invitation, error) {
	return sortedByID(r.st.invitations, func(inv model.Invitation) bool { return inv.ClassID == classID }), nil
}

func (r invitationRepo) Update(_ context.Context, inv model.Invitation) error {
	if _, ok := r.st.invitations[inv.ID]; !ok {
		return service.ErrNotFound
	}
	r.st.invitations[inv.ID] = inv
	return nil
}

func (r invitationRepo) Delete(_ context.Context, id uint64) error {
	if _, ok := r.st.invitations[id]; !ok {
		return service.ErrNotFound
	}
	delete(r.st.invitations, id)
	return nil
}

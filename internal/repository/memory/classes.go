package memory

import (
	"context"
	"sort"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

type classRepo struct{ st *state }

func (r classRepo) Create(_ context.Context, c *model.Class) error {
	for _, existing := range r.st.classes {
		if existing.CourseID == c.CourseID && existing.Scope == c.Scope && existing.Identifier == c.Identifier {
			return service.ErrDuplicateClass
		}
	}
	c.ID = r.st.nextID()
	r.st.classes[c.ID] = *c
	return nil
}

func (r classRepo) Get(_ context.Context, id uint64) (model.Class, error) {
	c, ok := r.st.classes[id]
	if !ok {
		return c, service.ErrNotFound
	}
	return c, nil
}

func (r classRepo) Lock(ctx context.Context, id uint64) (model.Class, error) {
	return r.Get(ctx, id)
}

func (r classRepo) FindByIdentifier(_ context.Context, courseID uint64, scope model.Scope, identifier string) (model.Class, error) {
	for _, c := range r.st.classes {
		if c.CourseID == courseID && c.Scope == scope && c.Identifier == identifier {
			return c, nil
		}
	}
	return model.Class{}, service.ErrNotFound
}

func (r classRepo) ListByScope(_ context.Context, courseID uint64, scope model.Scope) ([]model.Class, error) {
	return sortedByID(r.st.classes, func(c model.Class) bool {
		return c.CourseID == courseID && c.Scope == scope
	}), nil
}

func (r classRepo) SetCounters(_ context.Context, id uint64, available, used int, at time.Time) error {
	c, ok := r.st.classes[id]
	if !ok {
		return service.ErrNotFound
	}
	c.LicensesAvailable = available
	c.LicensesUsed = used
	c.UpdatedAt = at
	r.st.classes[id] = c
	return nil
}

func (r classRepo) AddMember(_ context.Context, classID, userID uint64, role string) (bool, error) {
	k := memberKey{classID, userID, role}
	if _, ok := r.st.members[k]; ok {
		return false, nil
	}
	r.st.members[k] = struct{}{}
	return true, nil
}

func (r classRepo) RemoveMember(_ context.Context, classID, userID uint64, role string) (bool, error) {
	k := memberKey{classID, userID, role}
	if _, ok := r.st.members[k]; !ok {
		return false, nil
	}
	delete(r.st.members, k)
	return true, nil
}

func (r classRepo) IsMember(_ context.Context, classID, userID uint64, role string) (bool, error) {
	_, ok := r.st.members[memberKey{classID, userID, role}]
	return ok, nil
}

func (r classRepo) Members(_ context.Context, classID uint64, role string) ([]uint64, error) {
	ids := []uint64{}
	for k := range r.st.members {
		if k.classID == classID && k.role == role {
			ids = append(ids, k.userID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

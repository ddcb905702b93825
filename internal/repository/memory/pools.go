package memory

import (
	"context"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

type poolRepo struct{ st *state }

func (r poolRepo) Create(_ context.Context, p *model.LicensePool) error {
	for _, existing := range r.st.pools {
		if existing.CourseID == p.CourseID && existing.Scope == p.Scope {
			return service.ErrDuplicatePool
		}
	}
	p.ID = r.st.nextID()
	r.st.pools[p.ID] = *p
	return nil
}

func (r poolRepo) Get(_ context.Context, id uint64) (model.LicensePool, error) {
	p, ok := r.st.pools[id]
	if !ok {
		return p, service.ErrNotFound
	}
	return p, nil
}

// Lock is Get: the store mutex already serializes transactions.
func (r poolRepo) Lock(ctx context.Context, id uint64) (model.LicensePool, error) {
	return r.Get(ctx, id)
}

func (r poolRepo) FindByScope(_ context.Context, courseID uint64, scope model.Scope) (model.LicensePool, error) {
	for _, p := range r.st.pools {
		if p.CourseID == courseID && p.Scope == scope {
			return p, nil
		}
	}
	return model.LicensePool{}, service.ErrNotFound
}

func (r poolRepo) List(_ context.Context, courseID uint64) ([]model.LicensePool, error) {
	return sortedByID(r.st.pools, func(p model.LicensePool) bool {
		return courseID == 0 || p.CourseID == courseID
	}), nil
}

func (r poolRepo) SetAvailable(_ context.Context, id uint64, available int, at time.Time) error {
	p, ok := r.st.pools[id]
	if !ok {
		return service.ErrNotFound
	}
	p.QuantityAvailable = available
	p.UpdatedAt = at
	r.st.pools[id] = p
	return nil
}

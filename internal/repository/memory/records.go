package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

type codeRepo struct{ st *state }

func (r codeRepo) Create(_ context.Context, ac *model.AccessCode) error {
	if _, ok := r.st.codes[ac.Code]; ok {
		return service.ErrDuplicateCode
	}
	r.st.codes[ac.Code] = *ac
	return nil
}

func (r codeRepo) Get(_ context.Context, code string) (model.AccessCode, error) {
	ac, ok := r.st.codes[code]
	if !ok {
		return ac, service.ErrNotFound
	}
	return ac, nil
}

func (r codeRepo) ListByCourse(_ context.Context, courseID uint64) ([]model.AccessCode, error) {
	out := []model.AccessCode{}
	for _, ac := range r.st.codes {
		if ac.CourseID == courseID {
			out = append(out, ac)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r codeRepo) MarkConsumed(_ context.Context, code string, userID uint64, at time.Time) (bool, error) {
	ac, ok := r.st.codes[code]
	if !ok || ac.Consumed {
		return false, nil
	}
	ac.Consumed = true
	ac.ConsumedAt = &at
	ac.ConsumedBy = &userID
	r.st.codes[code] = ac
	return true, nil
}

type enrollmentRepo struct{ st *state }

func (r enrollmentRepo) Add(_ context.Context, userID uint64, entityType string, entityID uint64, bundle string) error {
	r.st.enrollments[model.EnrollmentRecord{UserID: userID, EntityType: entityType, EntityID: entityID, Bundle: bundle}] = struct{}{}
	return nil
}

func (r enrollmentRepo) Remove(_ context.Context, userID uint64, entityType string, entityID uint64, bundle string) error {
	delete(r.st.enrollments, model.EnrollmentRecord{UserID: userID, EntityType: entityType, EntityID: entityID, Bundle: bundle})
	return nil
}

func (r enrollmentRepo) Get(_ context.Context, userID uint64, entityType, bundle string, entityID uint64) (bool, error) {
	_, ok := r.st.enrollments[model.EnrollmentRecord{UserID: userID, EntityType: entityType, EntityID: entityID, Bundle: bundle}]
	return ok, nil
}

type grantRepo struct{ st *state }

func (r grantRepo) Grant(_ context.Context, userID, courseID uint64, source string, at time.Time) (bool, error) {
	k := grantKey{userID, courseID}
	if _, ok := r.st.grants[k]; ok {
		return false, nil
	}
	r.st.grants[k] = model.CourseAccessGrant{
		ID:        r.st.nextID(),
		UserID:    userID,
		CourseID:  courseID,
		Source:    source,
		CreatedAt: at,
	}
	return true, nil
}

func (r grantRepo) Has(_ context.Context, userID, courseID uint64) (bool, error) {
	_, ok := r.st.grants[grantKey{userID, courseID}]
	return ok, nil
}

type userRepo struct{ st *state }

func (r userRepo) Get(_ context.Context, id uint64) (model.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return u, service.ErrNotFound
	}
	return u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, service.ErrNotFound
}

// Package memory is an in-process Store for tests and local tooling.
// Transactions are serialized behind one mutex and applied by swapping
// in a copy of the state on commit.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/karnika-s/heart-temp-sub000/internal/model"
	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

type memberKey struct {
	classID uint64
	userID  uint64
	role    string
}

type grantKey struct {
	userID   uint64
	courseID uint64
}

type state struct {
	lastID      uint64
	pools       map[uint64]model.LicensePool
	classes     map[uint64]model.Class
	members     map[memberKey]struct{}
	invitations map[uint64]model.Invitation
	codes       map[string]model.AccessCode
	enrollments map[model.EnrollmentRecord]struct{}
	grants      map[grantKey]model.CourseAccessGrant
	users       map[uint64]model.User
}

func newState() *state {
	return &state{
		pools:       map[uint64]model.LicensePool{},
		classes:     map[uint64]model.Class{},
		members:     map[memberKey]struct{}{},
		invitations: map[uint64]model.Invitation{},
		codes:       map[string]model.AccessCode{},
		enrollments: map[model.EnrollmentRecord]struct{}{},
		grants:      map[grantKey]model.CourseAccessGrant{},
		users:       map[uint64]model.User{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		lastID:      s.lastID,
		pools:       cloneMap(s.pools),
		classes:     cloneMap(s.classes),
		members:     cloneMap(s.members),
		invitations: cloneMap(s.invitations),
		codes:       cloneMap(s.codes),
		enrollments: cloneMap(s.enrollments),
		grants:      cloneMap(s.grants),
		users:       cloneMap(s.users),
	}
}

func (s *state) nextID() uint64 {
	s.lastID++
	return s.lastID
}

// Store implements service.Store.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ service.Store = (*Store)(nil)

func New() *Store { return &Store{st: newState()} }

func (s *Store) WithTx(ctx context.Context, fn func(service.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// AddUser registers an account and returns it with its id set.
func (s *Store) AddUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.st.nextID()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	s.st.users[u.ID] = u
	return u
}

// Enrollments returns a snapshot of every enrollment record.
func (s *Store) Enrollments() []model.EnrollmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EnrollmentRecord, 0, len(s.st.enrollments))
	for r := range s.st.enrollments {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Bundle < out[j].Bundle
	})
	return out
}

// Grants returns a snapshot of every course access grant.
func (s *Store) Grants() []model.CourseAccessGrant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.CourseAccessGrant, 0, len(s.st.grants))
	for _, g := range s.st.grants {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type tx struct{ st *state }

func (t *tx) Pools() service.PoolRepository             { return poolRepo{t.st} }
func (t *tx) Classes() service.ClassRepository          { return classRepo{t.st} }
func (t *tx) Invitations() service.InvitationRepository { return invitationRepo{t.st} }
func (t *tx) AccessCodes() service.AccessCodeRepository { return codeRepo{t.st} }
func (t *tx) Enrollments() service.EnrollmentRecorder   { return enrollmentRepo{t.st} }
func (t *tx) Grants() service.CourseAccessGranter       { return grantRepo{t.st} }
func (t *tx) Users() service.UserDirectory              { return userRepo{t.st} }

func sortedByID[T any](m map[uint64]T, keep func(T) bool) []T {
	ids := make([]uint64, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

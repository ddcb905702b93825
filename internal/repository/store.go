package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

// Store implements service.Store over a *sqlx.DB.  On MySQL the Lock
// methods issue SELECT ... FOR UPDATE; SQLite connections are opened
// with immediate transactions, which already hold the write lock.
type Store struct {
	db        *sqlx.DB
	forUpdate string
}

var _ service.Store = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	s := &Store{db: db}
	if db.DriverName() == "mysql" {
		s.forUpdate = " FOR UPDATE"
	}
	return s
}

// DB exposes the handle for callers that work outside a transaction.
func (s *Store) DB() *sqlx.DB { return s.db }

// Users returns a user repository bound to the pool.
func (s *Store) Users() *UserRepo { return &UserRepo{q: s.db} }

// WithTx runs fn in a transaction.  A panic in fn rolls back and is
// re-raised.
func (s *Store) WithTx(ctx context.Context, fn func(service.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		_ = tx.Rollback()
	}()

	if err = fn(&sqlTx{tx: tx, forUpdate: s.forUpdate}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	committed = true
	return nil
}

type sqlTx struct {
	tx        *sqlx.Tx
	forUpdate string
}

func (t *sqlTx) Pools() service.PoolRepository { return &PoolRepo{q: t.tx, forUpdate: t.forUpdate} }
func (t *sqlTx) Classes() service.ClassRepository {
	return &ClassRepo{q: t.tx, forUpdate: t.forUpdate}
}
func (t *sqlTx) Invitations() service.InvitationRepository {
	return &InvitationRepo{q: t.tx, forUpdate: t.forUpdate}
}
func (t *sqlTx) AccessCodes() service.AccessCodeRepository { return &AccessCodeRepo{q: t.tx} }
func (t *sqlTx) Enrollments() service.EnrollmentRecorder   { return &EnrollmentRepo{q: t.tx} }
func (t *sqlTx) Grants() service.CourseAccessGranter       { return &GrantRepo{q: t.tx} }
func (t *sqlTx) Users() service.UserDirectory              { return &UserRepo{q: t.tx} }

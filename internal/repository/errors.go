// Package repository implements the ledger store on MySQL or SQLite
// through sqlx.  Driver errors are wrapped with context; missing rows
// become service.ErrNotFound and unique key violations become the
// matching duplicate error of the service package.
package repository

import (
	"database/sql"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/karnika-s/heart-temp-sub000/internal/service"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// ErrEmailExists is returned when creating a user whose e-mail is taken.
var ErrEmailExists = errors.New("email already exists")

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps sql.ErrNoRows to service.ErrNotFound and wraps anything
// else with op.
func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return service.ErrNotFound
	}
	return errors.Wrap(err, op)
}

// duplicate maps a unique key violation to dup and wraps anything else
// with op.
func duplicate(err error, dup error, op string) error {
	if isDuplicate(err) {
		return dup
	}
	return errors.Wrap(err, op)
}

// affected turns an update or delete that matched nothing into
// service.ErrNotFound.  MySQL connections use clientFoundRows so that
// matched rows are counted even when no value changed.
func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return service.ErrNotFound
	}
	return nil
}

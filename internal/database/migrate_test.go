package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	src := `-- header comment
CREATE TABLE a (id INT);
  -- indented comment
INSERT INTO a VALUES ('x;y');

INSERT INTO a VALUES (2)`
	assert.Equal(t, []string{
		"CREATE TABLE a (id INT)",
		"INSERT INTO a VALUES ('x;y')",
		"INSERT INTO a VALUES (2)",
	}, splitStatements(src))
	assert.Empty(t, splitStatements("-- nothing\n;\n"))
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "/data/ledger.db", sqlitePath(SQLiteDSN("/data/ledger.db")))
	assert.Equal(t, "", sqlitePath("file::memory:?cache=shared"))
	assert.Equal(t, "plain.db", sqlitePath("plain.db"))
}

func TestMySQLDSN(t *testing.T) {
	assert.Equal(t,
		"app:pw@tcp(db:3306)/ledger?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		MySQLDSN("app", "pw", "db", "3306", "ledger"))
	assert.Contains(t, MySQLDSN("app", "", "db", "3306", "ledger"), "app@tcp(")
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	db, err := Open(DriverSQLite, SQLiteDSN(filepath.Join(t.TempDir(), "nested", "ledger.db")))
	require.NoError(t, err)
	defer db.Close()

	applied, err := Migrate(db)
	require.NoError(t, err)
	assert.NotEmpty(t, applied)

	again, err := Migrate(db)
	require.NoError(t, err)
	assert.Empty(t, again)

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, len(applied), n)
}

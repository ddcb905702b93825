package database

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/gommon/log"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate applies the embedded migrations for db's driver that are not
// yet recorded in schema_migrations.  It returns the applied file names.
func Migrate(db *sqlx.DB) ([]string, error) {
	dir := "migrations/" + db.DriverName()
	files, err := fs.Glob(migrations, dir+"/*.sql")
	if err != nil || len(files) == 0 {
		return nil, fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
	sort.Strings(files)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		filename VARCHAR(255) NOT NULL PRIMARY KEY,
		applied_at DATETIME NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var done []string
	if err := db.Select(&done, "SELECT filename FROM schema_migrations"); err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, f := range done {
		applied[f] = true
	}

	var ran []string
	for _, path := range files {
		name := path[strings.LastIndex(path, "/")+1:]
		if applied[name] {
			continue
		}
		content, err := fs.ReadFile(migrations, path)
		if err != nil {
			return ran, fmt.Errorf("read migration %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				return ran, fmt.Errorf("migration %s: %w", name, err)
			}
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", name, time.Now().UTC()); err != nil {
			return ran, fmt.Errorf("record migration %s: %w", name, err)
		}
		log.Infof("database: migration applied: %s", name)
		ran = append(ran, name)
	}
	return ran, nil
}

// splitStatements splits on semicolons outside single-quoted literals
// and drops "--" comment lines.
func splitStatements(src string) []string {
	var lines []string
	for _, l := range strings.Split(src, "\n") {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		lines = append(lines, l)
	}
	src = strings.Join(lines, "\n")

	var out []string
	var cur strings.Builder
	inString := false
	for i := 0; i < len(src); i++ {
		ch := src[i]
		if ch == '\'' {
			inString = !inString
		}
		if ch == ';' && !inString {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
			continue
		}
		cur.WriteByte(ch)
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

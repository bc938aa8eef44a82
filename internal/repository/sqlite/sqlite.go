// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// The blog is a single process with a handful of tables. SQLite keeps the
// whole store in one file next to the binary, needs no server, and gives us a
// fresh isolated database per test with ":memory:".
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so no C compiler and no CGo are
// needed to build or cross-compile.
//
// LAYOUT:
//   - DB          owns the *sql.DB pool and runs migrations
//   - UserDB      implements repository.UserRepository     (user.go)
//   - ArticleDB   implements repository.ArticleRepository  (article.go)
//   - SessionDB   implements repository.SessionRepository  (session.go)
//
// The three stores share the pool. Each is a thin struct around the same
// *sql.DB because their method sets overlap (Create, GetByID, Delete) and
// cannot all live on one type.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"

	// The blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// MIGRATIONS:
// The SQL files under migrations/ are compiled into the binary with
// go:embed and applied by goose. goose records each applied version in its
// goose_db_version table, so restarting the server never re-runs a migration
// and adding 00003_xxx.sql is all a schema change takes.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and applies all pending migrations.
//
// dbPath examples:
//   - "data/blog.db" → file-based database (persistent)
//   - ":memory:"     → in-memory database (tests)
//
// CONNECTION PRAGMAS:
// PRAGMA statements only affect the connection that runs them, and sql.DB is
// a pool of many connections. Passing them in the DSN (_pragma=...) makes the
// driver apply them to every connection it opens:
//   - foreign_keys(1)     sessions.user_id really references users.id
//   - journal_mode(WAL)   readers don't block the writer
//   - busy_timeout(5000)  wait up to 5s for a lock instead of failing with SQLITE_BUSY
//
// IN-MEMORY DATABASES:
// Every connection to ":memory:" gets its OWN empty database. If the pool
// opened a second connection, it would see no tables. We cap the pool at one
// connection so the whole process (or test) shares the same database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// newDB wraps an already-open pool without migrating it.
// Tests use it to put a sqlmock connection behind the real store code.
func newDB(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func dsn(dbPath string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_time_format=sqlite",
	}
	if !isMemory(dbPath) {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(params, "&")
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// Users returns the user store backed by this database.
func (db *DB) Users() *UserDB {
	return &UserDB{conn: db.conn}
}

// Articles returns the article store backed by this database.
func (db *DB) Articles() *ArticleDB {
	return &ArticleDB{conn: db.conn}
}

// Sessions returns the session store backed by this database.
func (db *DB) Sessions() *SessionDB {
	return &SessionDB{conn: db.conn}
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
//
// Wherever you call New(), immediately defer Close():
//
//	db, err := sqlite.New("data/blog.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies every migration in migrations/ that hasn't run yet.
//
// goose.NewProvider keeps its state in the Provider value instead of in
// package globals, so parallel tests each migrating their own ":memory:"
// database don't step on each other.
func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("locating embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating goose provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

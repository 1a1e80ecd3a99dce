package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"styleshop/internal/domain"
)

// Querier is the query surface shared by *sqlx.DB and *sqlx.Tx, so a repo
// can run either standalone or inside a transaction.
type Querier interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
	DriverName() string
}

// Dialect carries the SQL fragments that differ between stores.
type Dialect struct {
	Name   string
	Driver string
	goose  string
	lock   string
	instr  string
	iso    sql.IsolationLevel
}

var (
	SQLite = Dialect{
		Name:   "sqlite",
		Driver: "sqlite",
		goose:  "sqlite3",
		instr:  "instr(%s, ?) > 0",
		iso:    sql.LevelDefault,
	}
	Postgres = Dialect{
		Name:   "postgres",
		Driver: "pgx",
		goose:  "postgres",
		lock:   " FOR UPDATE",
		instr:  "strpos(%s, ?) > 0",
		iso:    sql.LevelReadCommitted,
	}
)

// DialectFor resolves a dialect by config name or database/sql driver name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "pgx", "pgx/v5":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
}

func dialectOf(q Querier) Dialect {
	d, err := DialectFor(q.DriverName())
	if err != nil {
		return SQLite
	}
	return d
}

// LockSuffix is appended to a SELECT that must hold row locks until commit.
func (d Dialect) LockSuffix() string { return d.lock }

// Contains returns a case-sensitive substring predicate over col.
func (d Dialect) Contains(col string) string { return fmt.Sprintf(d.instr, col) }

func (d Dialect) TxOptions() *sql.TxOptions {
	if d.iso == sql.LevelDefault {
		return nil
	}
	return &sql.TxOptions{Isolation: d.iso}
}

// DB is the catalog store handle.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// Wrap adopts an already opened connection.
func Wrap(db *sqlx.DB) *DB {
	return &DB{DB: db, Dialect: dialectOf(db)}
}

// OpenDB connects to the store and applies pending migrations.
func OpenDB(ctx context.Context, driver, dsn string) (*DB, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	x, err := sqlx.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", d.Name, err)
	}
	if err = x.PingContext(ctx); err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", d.Name, err)
	}
	db := &DB{DB: x, Dialect: d}
	if err := db.Migrate(ctx); err != nil {
		_ = x.Close()
		return nil, err
	}
	return db, nil
}

// InTx runs fn in a transaction. The transaction commits if fn returns nil
// and rolls back on error or panic.
func (db *DB) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, db.Dialect.TxOptions())
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

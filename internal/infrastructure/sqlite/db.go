// Package sqlite implementa los puertos del motor sobre SQLite (sqlx + go-sqlite3)
// para corridas locales y pruebas de adaptador.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// MemoryPath base de datos en memoria (pruebas).
const MemoryPath = ":memory:"

// DBTX lo implementan *sqlx.DB y *sqlx.Tx.
type DBTX interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PreparexContext(ctx context.Context, query string) (*sqlx.Stmt, error)
	Rebind(query string) string
}

var (
	_ DBTX = (*sqlx.DB)(nil)
	_ DBTX = (*sqlx.Tx)(nil)
)

// Open abre la base y aplica el esquema. Una sola conexión: SQLite admite un escritor
// y la base en memoria vive en esa conexión.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := path
	if path != MemoryPath {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, wrapErr("abrir sqlite", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate aplica schema.sql (idempotente).
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return wrapErr("aplicar esquema", err)
	}
	return nil
}

// in expande una consulta con IN (?) y la adapta al bindvar del driver.
func in(q DBTX, query string, args ...any) (string, []any, error) {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, fmt.Errorf("construir IN: %w", err)
	}
	return q.Rebind(query), args, nil
}

// wrapErr agrega contexto; base bloqueada, inaccesible o conexión cerrada = ErrStoreUnavailable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) && !errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr,
			sqlite3.ErrNotADB, sqlite3.ErrCorrupt, sqlite3.ErrFull:
			return true
		}
	}
	return false
}

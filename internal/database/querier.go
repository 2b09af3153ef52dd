package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools, so the same
// queries run against the pool, inside a transaction, or under test.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// ErrUserNotFound is returned by mutations targeting an id that does not
// exist. Lookups signal absence with a nil result instead.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken is returned when a create collides with an existing
// username under a different id.
var ErrUsernameTaken = errors.New("username is already taken")

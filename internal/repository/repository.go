package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Queryer is the subset of sqlx operations repository methods need. Both
// *sqlx.DB and *sqlx.Tx satisfy it, so multi-repository workflows can run
// every statement on one transaction.
type Queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

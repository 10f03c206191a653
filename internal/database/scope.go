package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type scopeContextKey struct{}

// Scope owns the database connection for a single HTTP request. The
// connection and its transaction are opened lazily on the first store call
// and resolved exactly once at teardown: commit unless the request failed
// with a database-layer error, rollback otherwise, close always. A Scope is
// carried in the request context and is never shared between requests.
type Scope struct {
	db   *DB
	conn *sqlx.Conn
	txn  *sqlx.Tx
	err  error
}

// NewScope creates a Scope bound to db. No connection is opened until the
// first store operation runs.
func NewScope(db *DB) *Scope {
	return &Scope{db: db}
}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

// ScopeFrom retrieves the request scope from ctx, or nil if absent.
func ScopeFrom(ctx context.Context) *Scope {
	s, ok := ctx.Value(scopeContextKey{}).(*Scope)
	if !ok {
		return nil
	}
	return s
}

// tx returns the request transaction, opening the connection and beginning
// the transaction on first use. Idempotent within the request.
func (s *Scope) tx(ctx context.Context) (*sqlx.Tx, error) {
	if s.txn != nil {
		return s.txn, nil
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, storagef("open connection", err)
	}

	txn, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close connection after begin failure")
		}
		return nil, storagef("begin transaction", err)
	}

	s.conn = conn
	s.txn = txn
	return s.txn, nil
}

// Fail records err for the teardown decision. The first error wins; nil is
// ignored. Handlers report their outcome through this before the response
// cycle ends.
func (s *Scope) Fail(err error) {
	if err != nil && s.err == nil {
		s.err = err
	}
}

// Err returns the recorded request error, if any.
func (s *Scope) Err() error {
	return s.err
}

// Teardown resolves the request transaction and releases the connection.
// It is a no-op when the request never acquired a connection, and idempotent
// after the first call. The transaction is rolled back only when the
// recorded error is database-classified; any other outcome, including
// non-database errors, commits. The connection is closed unconditionally
// once the commit/rollback decision has run. A commit or rollback failure
// is returned to the caller; there is no retry.
func (s *Scope) Teardown() error {
	if s.conn == nil {
		return nil
	}

	conn, txn := s.conn, s.txn
	s.conn = nil
	s.txn = nil

	defer func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close request connection")
		}
	}()

	if IsStorage(s.err) {
		log.Debug().Err(s.err).Msg("Rolling back request transaction")
		if err := txn.Rollback(); err != nil {
			return storagef("rollback", err)
		}
		return nil
	}

	if err := txn.Commit(); err != nil {
		return storagef("commit", err)
	}
	return nil
}

package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"qr-redirect/internal/domain"
)

const (
	sqlStateFKViolation     = "23503"
	sqlStateUniqueViolation = "23505"
	sqlStateCheckViolation  = "23514"
	sqlStateInvalidText     = "22P02"
)

// classify maps driver errors onto the domain taxonomy. Anything that is not a
// recognised "no such row" or constraint failure is treated as the store being unavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateFKViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case sqlStateUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrAlreadyExists)
		case sqlStateCheckViolation, sqlStateInvalidText:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidArgument, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

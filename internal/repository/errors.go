package repository

import (
	"context"
	"errors"
	"fmt"

	"whatsapp-fx/internal/common"

	"github.com/jackc/pgx/v5"
)

// wrapErr maps driver errors onto the shared taxonomy. Missing rows become
// ErrNotFound. Cancellation passes through untouched, as does an error an
// inner call already classified. Anything else means the store could not
// serve the request.
func wrapErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrStaleStatus),
		errors.Is(err, common.ErrStorageUnavailable), errors.Is(err, common.ErrNotFound):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, common.ErrStorageUnavailable, err)
	}
}

package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
)

const (
	sqlstateInsufficientPrivilege = "42501"
	// Class 23: integrity constraint violations. Retrying cannot fix them.
	sqlstateClassIntegrity = "23"
)

// mapError translates driver errors into the quiz error taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return quiz.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == sqlstateInsufficientPrivilege:
			return fmt.Errorf("%w: %s", quiz.ErrPermissionDenied, pgErr.Message)
		case strings.HasPrefix(pgErr.Code, sqlstateClassIntegrity):
			return fmt.Errorf("%w: %s (%s)", quiz.ErrIntegrity, pgErr.Message, pgErr.ConstraintName)
		}
	}
	return err
}

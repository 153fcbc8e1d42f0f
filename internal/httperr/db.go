package httperr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reconnaît une violation de contrainte d'unicité,
// quel que soit le dialecte (pgx en production, sqlite dans les tests).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// FromDB convertit une erreur GORM dans la taxonomie de l'API.
func FromDB(err error, notFoundCode, notFoundMsg string) *Error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound(notFoundCode, notFoundMsg)
	case IsUniqueViolation(err):
		return Conflict("duplicate_key", "Valeur déjà utilisée.")
	default:
		return Storage(err)
	}
}

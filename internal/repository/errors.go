package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidTextRepr     = "22P02"
)

var (
	// ErrDuplicateKey wraps unique constraint violations.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrForeignKey wraps foreign key violations, e.g. deleting a drive that has vaccinations.
	ErrForeignKey = errors.New("foreign key violation")
	// ErrStudentNotFound and ErrDriveNotFound both match sql.ErrNoRows.
	ErrStudentNotFound = fmt.Errorf("student: %w", sql.ErrNoRows)
	ErrDriveNotFound   = fmt.Errorf("drive: %w", sql.ErrNoRows)
	// ErrNoDosesLeft is returned when a decrement finds the drive already exhausted.
	ErrNoDosesLeft = errors.New("no doses left")
)

// mapPQError translates constraint violations into repository sentinels, preserving the driver error.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return fmt.Errorf("%w (%s): %v", ErrDuplicateKey, pqErr.Constraint, err)
	case pqForeignKeyViolation:
		return fmt.Errorf("%w (%s): %v", ErrForeignKey, pqErr.Constraint, err)
	default:
		return err
	}
}

// isMissingRow reports whether a lookup by primary key found nothing. An id that is not a
// valid uuid can never match a row, so postgres' invalid_text_representation counts too.
func isMissingRow(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqInvalidTextRepr
}

func likePattern(raw string) string {
	return "%" + escapeLike(raw) + "%"
}

func escapeLike(raw string) string {
	out := make([]rune, 0, len(raw))
	for _, r := range raw {
		switch r {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"participa/internal/apperrors"
	"participa/internal/database"
)

// ref ties a foreign-key constraint name to the entity and key it points at
type ref struct {
	constraint string
	entity     string
	key        uint
}

// writeError maps a failed write to ReferenceNotFound when a listed foreign
// key was violated, and classifies everything else.
func writeError(op string, err error, refs ...ref) error {
	if database.IsForeignKeyViolation(err) {
		constraint := database.Constraint(err)
		for _, r := range refs {
			if r.constraint == constraint {
				return &apperrors.Error{
					Kind:   apperrors.ErrReferenceNotFound,
					Entity: r.entity,
					Key:    fmt.Sprint(r.key),
					Err:    err,
				}
			}
		}
		return &apperrors.Error{Kind: apperrors.ErrReferenceNotFound, Entity: "reference", Err: err}
	}
	if database.IsNumericOutOfRange(err) {
		return &apperrors.Error{Kind: apperrors.ErrInvalidAmount, Message: "amount out of range", Err: err}
	}
	return database.Classify(fmt.Errorf("%s: %w", op, err))
}

// readError maps sql.ErrNoRows to ReferenceNotFound for entity/key.
func readError(op string, err error, entity string, key uint) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFound(entity, key)
	}
	return database.Classify(fmt.Errorf("%s: %w", op, err))
}

func queryError(op string, err error) error {
	return database.Classify(fmt.Errorf("%s: %w", op, err))
}

func keyOf(id uint) string {
	return fmt.Sprint(id)
}

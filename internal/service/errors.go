package service

import (
	"errors"
	"fmt"

	"opsportal/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound is returned when the addressed record does not exist.
var ErrNotFound = errors.New("not found")

// PersistenceError means the store could not complete an operation.
// It is the only hard failure besides ErrNotFound and validation errors.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// storeError classifies an error coming back from a repository call.
func storeError(op string, err error) error {
	var verr *model.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	case errors.As(err, &verr):
		return verr
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &model.ValidationError{Reason: "a record with the same unique reference already exists"}
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is a payload validation failure.
func IsValidation(err error) bool {
	var verr *model.ValidationError
	return errors.As(err, &verr)
}

// IsPersistence reports whether err is a store failure.
func IsPersistence(err error) bool {
	var perr *PersistenceError
	return errors.As(err, &perr)
}

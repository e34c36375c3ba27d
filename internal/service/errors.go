package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"complaint-service/internal/lifecycle"
	"complaint-service/internal/repository"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// translate maps store and lifecycle errors onto the service sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrStaleVersion):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, lifecycle.ErrIllegalTransition):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, lifecycle.ErrMissingPayload):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return err
}

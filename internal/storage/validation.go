package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/serena/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidLabel = errors.New("invalid label")
	ErrFailedRecord = errors.New("failed extraction records are not stored")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateLabel(label model.Label) error {
	if !label.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return nil
}

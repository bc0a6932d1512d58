package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptySubcategory   = errors.New("empty subcategory")
	ErrMissingAccount     = errors.New("source account is required")
	ErrUnknownAccount     = errors.New("account does not exist")
	ErrMissingDestination = errors.New("transfer destination is required")
	ErrNoCashAccount      = errors.New("no cash account configured")
	ErrSelfTransfer       = errors.New("source and destination account must differ")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidCategory    = errors.New("invalid category type")
	ErrNestedCategory     = errors.New("subcategories cannot have children")
	ErrCategoryMismatch   = errors.New("subcategory type must match its parent")
	ErrDefaultCategory    = errors.New("default categories cannot be deleted")
	ErrInvalidPeriod      = errors.New("invalid period")
	ErrInvalidSetting     = errors.New("invalid setting")
	ErrDuplicateName      = errors.New("name already in use")
)

// ValidationError reports a rejected input. Nothing is persisted when one is returned.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Invalid wraps err as a ValidationError on field. Used by callers that
// validate against stored state, such as name uniqueness.
func Invalid(field string, err error) error {
	return invalid(field, err)
}

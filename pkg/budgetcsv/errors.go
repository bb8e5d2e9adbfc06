package budgetcsv

import (
	"errors"
	"fmt"
)

var (
	ErrMissingHeader = errors.New("csv is missing headers: expected \"Category\" and \"January\" columns")
	ErrNoValidRows   = errors.New("no valid budget data found in csv")
	ErrNoRows        = errors.New("no budget lines found in import data")
	errUnterminated  = errors.New("unterminated quoted field")
)

// ValidationError reports input the user has to fix and re-upload.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field == "":
		return e.Message
	case e.Value == "":
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s (%q)", e.Field, e.Message, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidationError(field, value string, err error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: err.Error(), Err: err}
}

package testbean

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedDeclaration = errors.New("malformed property declaration")
	ErrExpressionEvaluation = errors.New("expression evaluation failed")
	ErrFieldAccess          = errors.New("field cannot be read")
	ErrOverlayInstallation  = errors.New("cannot install property overlay")
	ErrInvalidClass         = errors.New("invalid test class")
	ErrClassNotFound        = errors.New("test class not registered")
)

// FieldError ties a failure to the field and declaration that produced it.
type FieldError struct {
	Owner string
	Field string
	Expr  string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Expr == "" {
		return fmt.Sprintf("field %s.%s: %v", e.Owner, e.Field, e.Err)
	}
	return fmt.Sprintf("field %s.%s, declaration %q: %v", e.Owner, e.Field, e.Expr, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldError(b Binding, expr string, kind, cause error) error {
	err := kind
	if cause != nil {
		err = fmt.Errorf("%w: %w", kind, cause)
	}
	return &FieldError{Owner: b.Owner, Field: b.Field.Name, Expr: expr, Err: err}
}

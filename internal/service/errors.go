package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
)

// FormError is a rejected form submission. Fields holds the messages shown
// next to the form; it unwraps to domain.ErrValidation or domain.ErrSubmission
// and, for submissions, to the backend cause.
type FormError struct {
	Fields form.Errors
	kind   error
	cause  error
}

func (e *FormError) Error() string {
	if e.cause != nil {
		return e.kind.Error() + ": " + e.cause.Error()
	}
	return e.kind.Error()
}

func (e *FormError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func validationError(fields form.Errors) *FormError {
	return &FormError{Fields: fields, kind: domain.ErrValidation}
}

// submit runs one form submission and turns its outcome into a *FormError.
// Backend causes are logged under op and never reach Fields.
func submit[T any](ctx context.Context, op string, f *form.Form[T], fn func(context.Context, T) error) error {
	err := f.Submit(ctx, fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation):
		return validationError(f.Errors())
	case errors.Is(err, domain.ErrSubmission):
		slog.ErrorContext(ctx, op, "error", err)
		return &FormError{Fields: f.Errors(), kind: domain.ErrSubmission, cause: submissionCause(err)}
	default:
		return err
	}
}

// submissionCause returns the backend error that form.Submit joined with
// domain.ErrSubmission.
func submissionCause(err error) error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if e != domain.ErrSubmission {
				return e
			}
		}
	}
	return err
}

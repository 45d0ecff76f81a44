package form

import (
	"context"
	"errors"
	"sync"

	"github.com/msomdec/solifound/internal/domain"
)

// Status is the observable state of a form instance.
type Status int

const (
	Editing Status = iota
	Submitting
	Closed
)

func (s Status) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

var (
	ErrSubmitting = errors.New("form: submission already in flight")
	ErrClosed     = errors.New("form: closed")
)

// Validator maps a record to its field errors.
type Validator[T any] func(T) Errors

// Form holds one edited record, its current errors and the submission state.
// At most one submission is in flight per form.
type Form[T any] struct {
	mu       sync.Mutex
	record   T
	errors   Errors
	status   Status
	validate Validator[T]
	retryMsg string
}

// New returns a form in the Editing state, pre-filled with initial.
// retryMessage is shown under the submit key when the remote write fails.
func New[T any](initial T, validate Validator[T], retryMessage string) *Form[T] {
	return &Form[T]{
		record:   initial,
		errors:   Errors{},
		validate: validate,
		retryMsg: retryMessage,
	}
}

// Record returns a copy of the edited record.
func (f *Form[T]) Record() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record
}

// Errors returns a copy of the current errors.
func (f *Form[T]) Errors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.clone()
}

// Status returns the current state.
func (f *Form[T]) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Edit applies mutate to the record and drops the error of field, leaving
// every other error in place. It does nothing once the form is closed.
func (f *Form[T]) Edit(field string, mutate func(*T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == Closed {
		return
	}
	mutate(&f.record)
	delete(f.errors, field)
}

// Submit validates the record and, when valid, hands it to fn.
//
// Validation errors replace the error set and return domain.ErrValidation
// without calling fn. A failing fn returns the form to Editing with the retry
// message under SubmitField; the returned error wraps domain.ErrSubmission and
// the cause. A successful fn closes the form and clears record and errors.
func (f *Form[T]) Submit(ctx context.Context, fn func(context.Context, T) error) error {
	f.mu.Lock()
	switch f.status {
	case Submitting:
		f.mu.Unlock()
		return ErrSubmitting
	case Closed:
		f.mu.Unlock()
		return ErrClosed
	}

	if errs := f.validate(f.record); !errs.Empty() {
		f.errors = errs
		f.mu.Unlock()
		return domain.ErrValidation
	}

	f.status = Submitting
	record := f.record
	f.mu.Unlock()

	err := fn(ctx, record)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.status = Editing
		f.errors = Errors{SubmitField: f.retryMsg}
		return errors.Join(domain.ErrSubmission, err)
	}

	var zero T
	f.record = zero
	f.errors = Errors{}
	f.status = Closed
	return nil
}

package form_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
)

const retry = "Error al guardar la formación. Por favor, inténtalo de nuevo."

func newEducationForm(initial domain.Education) *form.Form[domain.Education] {
	return form.New(initial, func(e domain.Education) form.Errors {
		return form.ValidateEducation(e, now)
	}, retry)
}

func TestForm_InvalidSubmitStaysEditing(t *testing.T) {
	f := newEducationForm(domain.Education{})
	called := false

	err := f.Submit(context.Background(), func(context.Context, domain.Education) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, called)
	assert.Equal(t, form.Editing, f.Status())
	assert.Len(t, f.Errors(), 3)
}

func TestForm_EditClearsOnlyThatField(t *testing.T) {
	f := newEducationForm(domain.Education{})
	_ = f.Submit(context.Background(), func(context.Context, domain.Education) error { return nil })

	f.Edit("titulo", func(e *domain.Education) { e.Titulo = "Grado" })

	errs := f.Errors()
	assert.False(t, errs.Has("titulo"))
	assert.True(t, errs.Has("institucion"))
	assert.True(t, errs.Has("fecha_inicio"))
	assert.Equal(t, "Grado", f.Record().Titulo)
}

func TestForm_SubmitFailureReturnsToEditing(t *testing.T) {
	f := newEducationForm(domain.Education{Titulo: "Grado", Institucion: "UM", FechaInicio: "2020-09-01"})
	cause := errors.New("connection refused")

	err := f.Submit(context.Background(), func(context.Context, domain.Education) error { return cause })

	require.ErrorIs(t, err, domain.ErrSubmission)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, form.Editing, f.Status())
	assert.Equal(t, form.Errors{form.SubmitField: retry}, f.Errors())
	assert.Equal(t, "Grado", f.Record().Titulo, "record must survive a failed submission")
}

func TestForm_SubmitSuccessCloses(t *testing.T) {
	f := newEducationForm(domain.Education{Titulo: "Grado", Institucion: "UM", FechaInicio: "2020-09-01"})
	var got domain.Education

	err := f.Submit(context.Background(), func(_ context.Context, e domain.Education) error {
		assert.Equal(t, form.Submitting, f.Status())
		got = e
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Grado", got.Titulo)
	assert.Equal(t, form.Closed, f.Status())
	assert.Equal(t, domain.Education{}, f.Record())
	assert.Empty(t, f.Errors())

	assert.ErrorIs(t, f.Submit(context.Background(), nil), form.ErrClosed)
}

func TestForm_RejectsReentrantSubmit(t *testing.T) {
	f := newEducationForm(domain.Education{Titulo: "Grado", Institucion: "UM", FechaInicio: "2020-09-01"})

	err := f.Submit(context.Background(), func(ctx context.Context, e domain.Education) error {
		inner := f.Submit(ctx, func(context.Context, domain.Education) error {
			t.Fatal("nested submission must not run")
			return nil
		})
		assert.ErrorIs(t, inner, form.ErrSubmitting)
		return nil
	})
	require.NoError(t, err)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/solifound/internal/backend"
	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
)

// RecordService submits education or work-experience records for their owner
// and reports each confirmed write as a list patch.
type RecordService[T form.Identifiable] struct {
	repo     domain.OwnedRecordRepository[T]
	name     string
	validate func(T, time.Time) form.Errors
	clean    func(T) T
	failMsg  string
	now      func() time.Time
}

// NewEducationService creates the education record service.
func NewEducationService(b *backend.Backend) *RecordService[domain.Education] {
	return &RecordService[domain.Education]{
		repo:     b.Education,
		name:     "education",
		validate: form.ValidateEducation,
		clean:    form.CleanEducation,
		failMsg:  "Error al guardar la formación. Por favor, inténtalo de nuevo.",
		now:      time.Now,
	}
}

// NewWorkExperienceService creates the work-experience record service.
func NewWorkExperienceService(b *backend.Backend) *RecordService[domain.WorkExperience] {
	return &RecordService[domain.WorkExperience]{
		repo:     b.WorkExperience,
		name:     "work experience",
		validate: form.ValidateWorkExperience,
		clean:    form.CleanWorkExperience,
		failMsg:  "Error al guardar la experiencia laboral. Por favor, inténtalo de nuevo.",
		now:      time.Now,
	}
}

// SetClock replaces the clock used for the future-date rule.
func (s *RecordService[T]) SetClock(now func() time.Time) { s.now = now }

// List returns the owner's records, latest start date first.
func (s *RecordService[T]) List(ctx context.Context, owner string) ([]T, error) {
	records, err := s.repo.ListByUser(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.name, err)
	}
	return records, nil
}

// NewForm returns an editing form seeded with initial.
func (s *RecordService[T]) NewForm(initial T) *form.Form[T] {
	return form.New(initial, func(r T) form.Errors {
		return s.validate(s.clean(r), s.now())
	}, s.failMsg)
}

// Save submits f as a create (op == form.OpCreate) or an update of the
// owner's record and returns the patch that reflects the stored record.
func (s *RecordService[T]) Save(ctx context.Context, owner string, op form.Op, f *form.Form[T]) (form.Patch[T], error) {
	patch := form.Patch[T]{Op: op}
	err := submit(ctx, "save "+s.name, f, func(ctx context.Context, r T) error {
		r = s.clean(r)
		switch op {
		case form.OpCreate:
			if err := s.repo.Create(ctx, owner, &r); err != nil {
				return err
			}
		case form.OpUpdate:
			if err := s.repo.Update(ctx, owner, &r); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s is not a save", domain.ErrInvalidInput, op)
		}
		patch.Record = r
		patch.ID = r.RecordID()
		return nil
	})
	if err != nil {
		return form.Patch[T]{}, err
	}
	return patch, nil
}

// Delete removes the owner's record with the given id.
func (s *RecordService[T]) Delete(ctx context.Context, owner, id string) (form.Patch[T], error) {
	if err := s.repo.Delete(ctx, owner, id); err != nil {
		return form.Patch[T]{}, fmt.Errorf("delete %s: %w", s.name, err)
	}
	return form.Patch[T]{Op: form.OpDelete, ID: id}, nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/msomdec/solifound/internal/backend"
	"github.com/msomdec/solifound/internal/domain"
)

// Cascade steps of a user deletion, in execution order.
const (
	StepEducation      = "education"
	StepWorkExperience = "work_experience"
	StepProfile        = "profile"
	StepIdentity       = "identity"
)

// CascadeError reports a user deletion that stopped part way. Steps in
// Completed stay done; nothing is rolled back.
type CascadeError struct {
	UserID    string
	Completed []string
	Failed    string
	Err       error
}

func (e *CascadeError) Error() string {
	done := "none"
	if len(e.Completed) > 0 {
		done = strings.Join(e.Completed, ", ")
	}
	return fmt.Sprintf("delete user %s: step %s failed (completed: %s): %v", e.UserID, e.Failed, done, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }

// UserDetail is the expanded row of the admin user table.
type UserDetail struct {
	Education      []domain.Education
	WorkExperience []domain.WorkExperience
}

// AdminService backs the administration panel. Every method checks the
// caller against the Policy first.
type AdminService struct {
	b      *backend.Backend
	policy *Policy
}

// NewAdminService creates a new AdminService.
func NewAdminService(b *backend.Backend, policy *Policy) *AdminService {
	return &AdminService{b: b, policy: policy}
}

// ListUsers returns every profile, newest first.
func (s *AdminService) ListUsers(ctx context.Context, caller *Principal) ([]domain.UserProfile, error) {
	if err := s.policy.Authorize(caller); err != nil {
		return nil, err
	}
	users, err := s.b.Profiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UserDetail fetches a user's education and work experience concurrently.
func (s *AdminService) UserDetail(ctx context.Context, caller *Principal, userID string) (*UserDetail, error) {
	if err := s.policy.Authorize(caller); err != nil {
		return nil, err
	}

	detail := &UserDetail{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.b.Education.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list education: %w", err)
		}
		detail.Education = list
		return nil
	})
	g.Go(func() error {
		list, err := s.b.WorkExperience.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list work experience: %w", err)
		}
		detail.WorkExperience = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// DeleteUser removes education rows, work experience rows, the profile and
// the identity, in that order. The first failing step stops the cascade and
// is reported as a *CascadeError.
func (s *AdminService) DeleteUser(ctx context.Context, caller *Principal, userID string) error {
	if err := s.policy.Authorize(caller); err != nil {
		return err
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{StepEducation, func(ctx context.Context) error { return s.b.Education.DeleteByUser(ctx, userID) }},
		{StepWorkExperience, func(ctx context.Context) error { return s.b.WorkExperience.DeleteByUser(ctx, userID) }},
		{StepProfile, func(ctx context.Context) error { return s.b.Profiles.Delete(ctx, userID) }},
		{StepIdentity, func(ctx context.Context) error { return s.b.Identities.DeleteIdentity(ctx, userID) }},
	}

	var completed []string
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			cascadeErr := &CascadeError{UserID: userID, Completed: completed, Failed: step.name, Err: err}
			if step.name == StepIdentity {
				slog.ErrorContext(ctx, "identity left without profile", "user_id", userID, "error", err)
			} else {
				slog.ErrorContext(ctx, "delete user", "user_id", userID, "step", step.name, "error", err)
			}
			return cascadeErr
		}
		completed = append(completed, step.name)
	}

	slog.InfoContext(ctx, "user deleted", "user_id", userID, "by", caller.Email())
	return nil
}

// DownloadCV returns a user's stored CV.
func (s *AdminService) DownloadCV(ctx context.Context, caller *Principal, userID string) (*domain.CVDocument, error) {
	if err := s.policy.Authorize(caller); err != nil {
		return nil, err
	}
	doc, err := s.b.Profiles.GetCV(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("download cv: %w", err)
	}
	return doc, nil
}

package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/msomdec/solifound/internal/backend"
	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
)

const msgPersonalInfoFailed = "Error al actualizar la información personal. Por favor, inténtalo de nuevo."

// ProfileView is everything the profile page shows for one identity.
type ProfileView struct {
	Profile        *domain.UserProfile
	Education      form.List[domain.Education]
	WorkExperience form.List[domain.WorkExperience]
	Achievements   []domain.Achievement
}

// ProfileService reads and edits the caller's own profile.
type ProfileService struct {
	profiles     domain.ProfileRepository
	education    domain.EducationRepository
	experience   domain.WorkExperienceRepository
	achievements domain.AchievementRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(b *backend.Backend) *ProfileService {
	return &ProfileService{
		profiles:     b.Profiles,
		education:    b.Education,
		experience:   b.WorkExperience,
		achievements: b.Achievements,
	}
}

// Get returns the owner's profile.
func (s *ProfileService) Get(ctx context.Context, owner string) (*domain.UserProfile, error) {
	p, err := s.profiles.GetByUserID(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Load fetches the profile and its three lists concurrently.
func (s *ProfileService) Load(ctx context.Context, owner string) (*ProfileView, error) {
	view := &ProfileView{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.profiles.GetByUserID(gctx, owner)
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		view.Profile = p
		return nil
	})
	g.Go(func() error {
		list, err := s.education.ListByUser(gctx, owner)
		if err != nil {
			return fmt.Errorf("list education: %w", err)
		}
		view.Education = list
		return nil
	})
	g.Go(func() error {
		list, err := s.experience.ListByUser(gctx, owner)
		if err != nil {
			return fmt.Errorf("list work experience: %w", err)
		}
		view.WorkExperience = list
		return nil
	})
	g.Go(func() error {
		list, err := s.achievements.ListByUser(gctx, owner)
		if err != nil {
			return fmt.Errorf("list achievements: %w", err)
		}
		view.Achievements = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// Achievements returns the owner's granted achievements.
func (s *ProfileService) Achievements(ctx context.Context, owner string) ([]domain.Achievement, error) {
	list, err := s.achievements.ListByUser(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return list, nil
}

// UpdatePersonalInfo validates and stores the personal fields.
func (s *ProfileService) UpdatePersonalInfo(ctx context.Context, owner string, info domain.PersonalInfo) (domain.PersonalInfo, error) {
	info = form.CleanPersonalInfo(info)
	f := form.New(info, form.ValidatePersonalInfo, msgPersonalInfoFailed)
	err := submit(ctx, "update personal info", f, func(ctx context.Context, info domain.PersonalInfo) error {
		return s.profiles.UpdatePersonalInfo(ctx, owner, info)
	})
	if err != nil {
		return info, err
	}
	return info, nil
}

package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/msomdec/solifound/internal/domain"
)

// IdentityService implements domain.IdentityService against GoTrue.
type IdentityService struct {
	c *Client
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authSession struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   int64     `json:"expires_at"`
	User        *authUser `json:"user"`
}

// signUpResponse is either a bare user (email confirmation pending) or a session.
type signUpResponse struct {
	authUser
	User *authUser `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *IdentityService) SignUp(ctx context.Context, email, password string) (*domain.Identity, error) {
	var resp signUpResponse
	err := s.c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "signup",
		body:   credentials{Email: email, Password: password},
		bearer: s.c.anonKey,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	user := &resp.authUser
	if resp.User != nil {
		user = resp.User
	}
	if user.ID == "" {
		return nil, fmt.Errorf("sign up: response carries no user id")
	}
	return &domain.Identity{ID: user.ID, Email: user.Email}, nil
}

func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var resp authSession
	err := s.c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
		bearer: s.c.anonKey,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, domain.ErrUnauthorized
	}

	expires := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	if resp.ExpiresAt > 0 {
		expires = time.Unix(resp.ExpiresAt, 0)
	}
	return &domain.Session{
		AccessToken: resp.AccessToken,
		Identity:    domain.Identity{ID: resp.User.ID, Email: resp.User.Email},
		ExpiresAt:   expires,
	}, nil
}

func (s *IdentityService) SignOut(ctx context.Context, accessToken string) error {
	err := s.c.do(ctx, request{
		method: http.MethodPost,
		path:   authPrefix + "logout",
		bearer: accessToken,
	}, nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (s *IdentityService) CurrentUser(ctx context.Context, accessToken string) (*domain.Identity, error) {
	var user authUser
	err := s.c.do(ctx, request{
		method: http.MethodGet,
		path:   authPrefix + "user",
		bearer: accessToken,
	}, &user)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if user.ID == "" {
		return nil, domain.ErrUnauthorized
	}
	return &domain.Identity{ID: user.ID, Email: user.Email}, nil
}

// DeleteIdentity needs the service-role key; without it the call is refused
// locally.
func (s *IdentityService) DeleteIdentity(ctx context.Context, id string) error {
	if s.c.serviceKey == "" {
		return fmt.Errorf("delete identity: %w: service role key not configured", domain.ErrForbidden)
	}
	err := s.c.do(ctx, request{
		method: http.MethodDelete,
		path:   authPrefix + "admin/users/" + url.PathEscape(id),
		bearer: s.c.serviceKey,
	}, nil)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

// Package rest talks to a hosted Supabase-compatible backend: PostgREST for
// records under /rest/v1 and a GoTrue-style identity service under /auth/v1.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/msomdec/solifound/internal/domain"
)

const (
	restPrefix = "/rest/v1/"
	authPrefix = "/auth/v1/"
)

// Config holds the connection settings read once at start-up.
type Config struct {
	URL string
	// AnonKey is the public API key sent on every request.
	AnonKey string
	// ServiceRoleKey authorizes admin identity calls. Optional.
	ServiceRoleKey string
	HTTPClient     *http.Client
}

// Client is a thin HTTP client for the hosted backend. It holds no per-user
// state; the caller's access token travels in the request context.
type Client struct {
	baseURL    string
	anonKey    string
	serviceKey string
	http       *http.Client
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: service url missing", domain.ErrInvalidInput)
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("%w: service url: %v", domain.ErrInvalidInput, err)
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, fmt.Errorf("%w: service api key missing", domain.ErrInvalidInput)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:    base,
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceRoleKey,
		http:       hc,
	}, nil
}

// Profiles returns the loggedusers repository.
func (c *Client) Profiles() *ProfileRepository { return &ProfileRepository{c: c} }

// Education returns the education repository.
func (c *Client) Education() *EducationRepository {
	return &EducationRepository{ownedTable[domain.Education, educationRow]{
		c:      c,
		table:  "education",
		encode: encodeEducation,
	}}
}

// WorkExperience returns the work_experience repository.
func (c *Client) WorkExperience() *WorkExperienceRepository {
	return &WorkExperienceRepository{ownedTable[domain.WorkExperience, workExperienceRow]{
		c:      c,
		table:  "work_experience",
		encode: encodeWorkExperience,
	}}
}

// Achievements returns the achievement repository.
func (c *Client) Achievements() *AchievementRepository { return &AchievementRepository{c: c} }

// Identities returns the identity service.
func (c *Client) Identities() *IdentityService { return &IdentityService{c: c} }

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// bearer overrides the token taken from the context.
	bearer string
	// representation asks PostgREST to echo affected rows.
	representation bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+c.bearer(ctx, r.bearer))
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.representation {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 8*1024))
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s response: %w", r.path, err)
	}
	return nil
}

func (c *Client) bearer(ctx context.Context, override string) string {
	if override != "" {
		return override
	}
	if token, ok := domain.AccessTokenFrom(ctx); ok {
		return token
	}
	return c.anonKey
}

func eq(v string) string { return "eq." + v }

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/solifound/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// IdentityService implements domain.IdentityService with bcrypt password
// hashes and HS256 access tokens.
type IdentityService struct {
	db         *sql.DB
	jwtSecret  []byte
	bcryptCost int
	now        func() time.Time
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(db *DB, jwtSecret string, bcryptCost int) *IdentityService {
	return &IdentityService{
		db:         db.SqlDB,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

func (s *IdentityService) SignUp(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO identities (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		id, email, string(hash), s.now().UTC(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}

	return &domain.Identity{ID: id, Email: email}, nil
}

func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	var (
		identity domain.Identity
		hash     string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM identities WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&identity.ID, &identity.Email, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("query identity: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	now := s.now()
	expires := now.Add(tokenTTL)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   identity.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.Session{AccessToken: token, Identity: identity, ExpiresAt: expires}, nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *IdentityService) SignOut(ctx context.Context, accessToken string) error {
	claims, err := s.parse(accessToken)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		claims.ID, claims.ExpiresAt.Time.UTC(),
	)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, s.now().UTC())
	if err != nil {
		return fmt.Errorf("prune revoked tokens: %w", err)
	}
	return nil
}

func (s *IdentityService) CurrentUser(ctx context.Context, accessToken string) (*domain.Identity, error) {
	claims, err := s.parse(accessToken)
	if err != nil {
		return nil, err
	}

	var revoked int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, claims.ID,
	).Scan(&revoked)
	if err != nil {
		return nil, fmt.Errorf("check revoked token: %w", err)
	}
	if revoked > 0 {
		return nil, domain.ErrUnauthorized
	}

	identity := &domain.Identity{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, email FROM identities WHERE id = ?`, claims.Subject,
	).Scan(&identity.ID, &identity.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("query identity: %w", err)
	}
	return identity, nil
}

func (s *IdentityService) DeleteIdentity(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *IdentityService) parse(accessToken string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

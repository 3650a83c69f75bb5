package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/auth"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

const minPasswordLength = 8

// CreateUserInput describes a new profile.
type CreateUserInput struct {
	FullName       string
	Email          string
	Password       string
	Role           domain.UserRole
	TelegramChatID *string
}

// AuthService coordinates login and user management.
type AuthService struct {
	profiles   repository.ProfileRepository
	perms      *auth.Permissions
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, profiles repository.ProfileRepository, perms *auth.Permissions) *AuthService {
	return &AuthService{
		profiles:   profiles,
		perms:      perms,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Login authenticates a profile by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Profile, domain.Token, error) {
	profile, err := s.profiles.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, domain.Token{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(profile.PasswordHash, password); err != nil {
		return nil, domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, err := s.issue(profile)
	if err != nil {
		return nil, domain.Token{}, apperrors.NewInternalError(err)
	}
	return profile, token, nil
}

// CreateUser registers a profile. Requires manage_users.
func (s *AuthService) CreateUser(ctx context.Context, caller *Caller, input CreateUserInput) (*domain.Profile, error) {
	if caller == nil || !s.perms.Has(caller.Role(), auth.PermManageUsers) {
		return nil, apperrors.NewForbidden("not allowed to manage users")
	}

	details := map[string]any{}
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		details["full_name"] = "required"
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "must be a valid email"
	}
	if len(input.Password) < minPasswordLength {
		details["password"] = "must be at least 8 characters"
	}
	if input.Role == "" {
		input.Role = domain.RoleReporter
	}
	if !input.Role.Valid() {
		details["role"] = "unknown role"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid user", details)
	}

	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	profile := &domain.Profile{
		FullName:       name,
		Email:          email,
		PasswordHash:   hash,
		Role:           input.Role,
		TelegramChatID: input.TelegramChatID,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}
	return profile, nil
}

// ListAssignable returns profiles that may receive ticket assignments.
func (s *AuthService) ListAssignable(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.profiles.ListByRoles(ctx, domain.AssignableRoles)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	return profiles, nil
}

// PermissionsFor lists the capabilities of role.
func (s *AuthService) PermissionsFor(role domain.UserRole) []auth.Permission {
	return s.perms.For(role)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(profile *domain.Profile) (domain.Token, error) {
	access, exp, err := s.tokenMgr.GenerateToken(profile.ID, profile.Role)
	if err != nil {
		return domain.Token{}, err
	}
	return domain.Token{AccessToken: access, SubjectID: profile.ID, Role: profile.Role, ExpiresAt: exp}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = domain.NewError(domain.ErrUnauthorized, "invalid or expired credentials")
	ErrAccountInactive    = domain.NewError(domain.ErrUnauthorized, "account is inactive")
)

type TokenIssuer interface {
	GenerateTokenPair(claims *domain.Claims) (*domain.TokenPair, error)
	ValidateRefreshToken(token string) (*domain.Claims, error)
}

// AuthService mints tokens for accounts that already exist. Credentials are
// checked upstream; this only binds the current role and status of a user
// to a token pair.
type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
	log    *zap.Logger
}

func NewAuthService(users UserRepository, tokens TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// IssueToken returns a fresh pair for an active user.
func (s *AuthService) IssueToken(ctx context.Context, userID uuid.UUID) (*domain.TokenPair, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("token issued",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return pair, nil
}

// RefreshToken issues a new pair given a valid refresh token. The user is
// reloaded so a role change or deactivation takes effect.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*domain.TokenPair, error) {
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if !user.Role.IsValid() {
		return nil, fmt.Errorf("user %s has unknown role %q", user.ID, user.Role)
	}

	pair, err := s.tokens.GenerateTokenPair(&domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generating tokens: %w", err)
	}
	return pair, nil
}

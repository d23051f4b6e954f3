package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew is how far apart the issuing and validating clocks may drift.
const clockSkew = 10 * time.Second

var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalid      = errors.New("token is invalid")
	ErrTokenTypeMismatch = errors.New("wrong token type")
	ErrUnknownRole       = errors.New("token carries an unknown role")
)

// accessClaims authorize API calls, so they carry the caller's role.
type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// refreshClaims name the user only. The role is reloaded on refresh so a
// demotion or deactivation cannot outlive the access token.
type refreshClaims struct {
	jwt.RegisteredClaims
}

// JWTManager signs HS256 tokens. Access and refresh tokens are told apart
// by audience, so one can never be replayed as the other.
type JWTManager struct {
	secret      []byte
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	accessAud   string
	refreshAud  string
	parseAccess *jwt.Parser
	parseFresh  *jwt.Parser
}

func NewJWTManager(cfg config.JWTConfig) *JWTManager {
	m := &JWTManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		accessAud:  cfg.Issuer + ":access",
		refreshAud: cfg.Issuer + ":refresh",
	}
	m.parseAccess = m.parser(m.accessAud)
	m.parseFresh = m.parser(m.refreshAud)
	return m
}

func (m *JWTManager) parser(audience string) *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)
}

func (m *JWTManager) GenerateTokenPair(claims *domain.Claims) (*domain.TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(m.accessTTL)

	access, err := m.sign(accessClaims{
		RegisteredClaims: m.registered(claims.UserID, m.accessAud, now, expiresAt),
		Email:            claims.Email,
		Role:             string(claims.Role),
	})
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	refresh, err := m.sign(refreshClaims{
		RegisteredClaims: m.registered(claims.UserID, m.refreshAud, now, now.Add(m.refreshTTL)),
	})
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// ValidateAccessToken returns the caller identity an access token carries.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*domain.Claims, error) {
	var c accessClaims
	if err := parse(m.parseAccess, tokenString, &c, m.secret); err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	role := domain.Role(c.Role)
	if !role.IsValid() {
		return nil, ErrUnknownRole
	}
	return &domain.Claims{UserID: userID, Email: c.Email, Role: role}, nil
}

// ValidateRefreshToken returns only the user id. Callers must reload the
// user before issuing a new pair.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*domain.Claims, error) {
	var c refreshClaims
	if err := parse(m.parseFresh, tokenString, &c, m.secret); err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &domain.Claims{UserID: userID}, nil
}

func (m *JWTManager) registered(userID uuid.UUID, audience string, now, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}
}

func (m *JWTManager) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func parse[C jwt.Claims](p *jwt.Parser, tokenString string, claims C, secret []byte) error {
	token, err := p.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrTokenTypeMismatch
	case err != nil, !token.Valid:
		return ErrTokenInvalid
	}
	return nil
}

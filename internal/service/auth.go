// Package service: AuthService guards the dashboard's write operations
// behind a shared password and short-lived JWTs with rotating refresh tokens.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/moreirajr/funnelboard-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

// AuthService authenticates the dashboard operator. There is a single
// credential (bcrypt hash supplied via config); refresh tokens are rotated
// on every use and held hashed in an in-memory store.
type AuthService struct {
	passwordHash []byte
	jwtSecret    []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	tokens       RefreshTokenCache
	logger       *zap.Logger
}

// RefreshTokenCache holds sha256 refresh-token hashes with their expiry.
// Satisfied by cache.InMemory[time.Time].
type RefreshTokenCache interface {
	Get(key string) (time.Time, bool)
	SetWithTTL(key string, value time.Time, ttl time.Duration)
	Delete(key string)
}

// NewAuthService creates a new auth service.
func NewAuthService(passwordHash, jwtSecret string, accessTTL, refreshTTL time.Duration, tokens RefreshTokenCache, logger *zap.Logger) *AuthService {
	return &AuthService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		tokens:       tokens,
		logger:       logger,
	}
}

// ============================================================
// Login (POST /v1/auth/login)
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	_, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		s.logger.Warn("login: wrong password")
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	accessToken, err := s.signAccessToken()
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, refreshHash, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	s.tokens.SetWithTTL(refreshHash, time.Now().Add(s.refreshTTL), s.refreshTTL)

	s.logger.Info("operator logged in")

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

// ============================================================
// Refresh (POST /v1/auth/refresh)
// ============================================================

func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.LoginResponse, error) {
	_, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	tokenHash := hashToken(req.RefreshToken)

	expiresAt, ok := s.tokens.Get(tokenHash)
	if !ok {
		return nil, &domain.ErrUnauthorized{Message: "invalid refresh token"}
	}
	if expiresAt.Before(time.Now()) {
		s.logger.Warn("refresh: expired token used")
		s.tokens.Delete(tokenHash)
		return nil, &domain.ErrUnauthorized{Message: "expired refresh token"}
	}

	// Rotation: the presented token is consumed whether or not signing
	// succeeds below.
	s.tokens.Delete(tokenHash)

	accessToken, err := s.signAccessToken()
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	newRefreshToken, newRefreshHash, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	s.tokens.SetWithTTL(newRefreshHash, time.Now().Add(s.refreshTTL), s.refreshTTL)

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}

// ============================================================
// Logout (POST /v1/auth/logout)
// ============================================================

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	_, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if refreshToken != "" {
		s.tokens.Delete(hashToken(refreshToken))
	}
	s.logger.Info("operator logged out")
	return nil
}

// ============================================================
// ValidateToken (used by middleware)
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}

	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}

	return claims, nil
}

// ============================================================
// Internal JWT helpers
// ============================================================

func (s *AuthService) signAccessToken() (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:  "dashboard-operator",
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "funnelboard-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) generateRefreshToken() (raw string, hashed string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	hashed = hashToken(raw)
	return raw, hashed, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

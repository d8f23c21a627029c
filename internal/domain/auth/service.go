package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yanqian/surgecast/pkg/errors"
)

// Service exposes operator authentication.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg       Config
	directory Directory
	logger    *slog.Logger
	now       func() time.Time
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// NewService constructs a Service instance.
func NewService(cfg Config, directory Directory, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		directory: directory,
		logger:    logger.With("component", "auth.service"),
		now:       time.Now,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	username := normalizeUsername(req.Username)
	if username == "" {
		return TokenResponse{}, apperrors.Wrap("invalid_input", "username cannot be empty", nil)
	}
	if strings.TrimSpace(req.Password) == "" {
		return TokenResponse{}, apperrors.Wrap("invalid_input", "password cannot be empty", nil)
	}
	op, found, err := s.directory.GetByUsername(ctx, username)
	if err != nil {
		return TokenResponse{}, apperrors.Wrap("auth_error", "failed to fetch operator", err)
	}
	if !found {
		return TokenResponse{}, apperrors.Wrap("invalid_credentials", "invalid username or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("operator login rejected", "username", username)
		return TokenResponse{}, apperrors.Wrap("invalid_credentials", "invalid username or password", nil)
	}
	s.logger.Info("operator logged in", "username", username, "role", op.Role)
	return s.buildTokenResponse(op)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		return TokenResponse{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return TokenResponse{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	op, found, err := s.directory.GetByUsername(ctx, claims.Username)
	if err != nil {
		return TokenResponse{}, apperrors.Wrap("auth_error", "failed to load operator", err)
	}
	if !found {
		return TokenResponse{}, apperrors.Wrap("invalid_token", "operator no longer exists", nil)
	}
	return s.buildTokenResponse(op)
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenTypeAccess {
		return Claims{}, apperrors.Wrap("invalid_token", "token type mismatch", nil)
	}
	return claims, nil
}

func (s *service) buildTokenResponse(op Operator) (TokenResponse, error) {
	access, expires, err := s.generateToken(op, tokenTypeAccess, s.cfg.TokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	refresh, _, err := s.generateToken(op, tokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    expires,
		Operator:     OperatorView{Username: op.Username, Role: op.Role},
	}, nil
}

func (s *service) generateToken(op Operator, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(ttl)
	claims := tokenClaims{
		Role:      op.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   op.Username,
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	return signed, expires, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing expiry", nil)
	}
	if !claims.Role.Valid() {
		return Claims{}, apperrors.Wrap("invalid_token", "token carries unknown role", nil)
	}
	return Claims{
		Username:  claims.Subject,
		Role:      claims.Role,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// HashPassword produces a bcrypt hash suitable for operator config.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func normalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role      Role   `json:"role"`
	TokenType string `json:"type"`
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}

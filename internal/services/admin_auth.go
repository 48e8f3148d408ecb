package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/allbound-backend/internal/platform/apierr"
	"github.com/yungbote/allbound-backend/internal/platform/authtoken"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

type AdminAuthConfig struct {
	Email string
	// PasswordHash is a bcrypt hash of the admin password.
	PasswordHash string
}

type AdminSession struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AdminAuthService interface {
	Login(ctx context.Context, req AdminLoginRequest) (*AdminSession, error)
	Verify(ctx context.Context, token string) (authtoken.Claims, error)
}

type adminAuthService struct {
	log    *logger.Logger
	cfg    AdminAuthConfig
	tokens authtoken.TokenService
}

func NewAdminAuthService(baseLog *logger.Logger, cfg AdminAuthConfig, tokens authtoken.TokenService) AdminAuthService {
	cfg.Email = strings.ToLower(strings.TrimSpace(cfg.Email))
	return &adminAuthService{
		log:    baseLog.With("service", "AdminAuthService"),
		cfg:    cfg,
		tokens: tokens,
	}
}

var errBadCredentials = apierr.Unauthorized("invalid email or password")

func (s *adminAuthService) Login(ctx context.Context, req AdminLoginRequest) (*AdminSession, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if s.cfg.Email == "" || s.cfg.PasswordHash == "" || s.tokens == nil {
		s.log.Error("Admin login attempted without ADMIN_EMAIL / ADMIN_PASSWORD_HASH configured")
		return nil, apierr.New(http.StatusServiceUnavailable, "admin_unavailable", errors.New("admin login not configured"))
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.Email)) == 1
	// Always run bcrypt so a wrong email costs the same as a wrong password.
	pwErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password))
	if !emailOK || pwErr != nil {
		s.log.Warn("Admin login rejected")
		return nil, errBadCredentials
	}
	token, claims, err := s.tokens.Issue(s.cfg.Email)
	if err != nil {
		s.log.Error("Issue admin token failed", "error", err)
		return nil, apierr.New(http.StatusInternalServerError, "token_issue_failed", err)
	}
	s.log.Info("Admin logged in")
	return &AdminSession{Token: token, Email: claims.Email, ExpiresAt: claims.ExpiresAt}, nil
}

func (s *adminAuthService) Verify(ctx context.Context, token string) (authtoken.Claims, error) {
	if s.tokens == nil {
		return authtoken.Claims{}, apierr.Unauthorized("admin auth not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return authtoken.Claims{}, apierr.Unauthorized("missing admin token")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, authtoken.ErrExpired) {
			return authtoken.Claims{}, apierr.New(http.StatusUnauthorized, "token_expired", err)
		}
		return authtoken.Claims{}, apierr.New(http.StatusUnauthorized, "invalid_token", err)
	}
	if s.cfg.Email != "" && !strings.EqualFold(claims.Email, s.cfg.Email) {
		return authtoken.Claims{}, apierr.Unauthorized("token is not for the configured admin")
	}
	return claims, nil
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/platform/apierr"
	"github.com/yungbote/allbound-backend/internal/platform/ctxutil"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/services"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

// ---- learners ----

type LearnerAuthConfig struct {
	// JWTSecret is the identity provider's HS256 signing secret.
	JWTSecret string
	// Audience is checked when set; the provider issues "authenticated".
	Audience string
}

type learnerClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type LearnerAuth struct {
	log      *logger.Logger
	secret   []byte
	audience string
}

func NewLearnerAuth(log *logger.Logger, cfg LearnerAuthConfig) *LearnerAuth {
	return &LearnerAuth{
		log:      log.With("middleware", "LearnerAuth"),
		secret:   []byte(strings.TrimSpace(cfg.JWTSecret)),
		audience: strings.TrimSpace(cfg.Audience),
	}
}

// Verify checks an access token and returns the learner it names.
func (m *LearnerAuth) Verify(token string) (*ctxutil.Learner, error) {
	if len(m.secret) == 0 {
		return nil, errors.New("learner auth not configured")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}
	var claims learnerClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	return &ctxutil.Learner{UserID: claims.Subject, Email: strings.ToLower(claims.Email)}, nil
}

func (m *LearnerAuth) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		learner, err := m.Verify(token)
		if err != nil {
			m.log.Debug("Learner token rejected", "error", err)
			code := "unauthorized"
			if errors.Is(err, jwt.ErrTokenExpired) {
				code = "token_expired"
			}
			response.AbortError(c, http.StatusUnauthorized, code, "missing or invalid token")
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithLearner(c.Request.Context(), learner))
		c.Next()
	}
}

// ---- admin ----

type AdminAuth struct {
	log  *logger.Logger
	auth services.AdminAuthService
}

func NewAdminAuth(log *logger.Logger, auth services.AdminAuthService) *AdminAuth {
	return &AdminAuth{log: log.With("middleware", "AdminAuth"), auth: auth}
}

func (m *AdminAuth) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token")
			return
		}
		claims, err := m.auth.Verify(c.Request.Context(), token)
		if err != nil {
			m.log.Warn("Admin token rejected", "error", err)
			response.AbortError(c, http.StatusUnauthorized, apierr.CodeOf(err), "missing or invalid token")
			return
		}
		c.Request = c.Request.WithContext(ctxutil.WithAdmin(c.Request.Context(), claims.Email))
		c.Next()
	}
}

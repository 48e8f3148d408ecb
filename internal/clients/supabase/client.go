package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/allbound-backend/internal/platform/ctxutil"
	"github.com/yungbote/allbound-backend/internal/platform/envutil"
	"github.com/yungbote/allbound-backend/internal/platform/httpx"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

var ErrUserExists = errors.New("supabase: user already registered")

// AuthAdmin is the slice of the Supabase auth admin API used to provision
// learner accounts. It authenticates with the service role key.
type AuthAdmin interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, userID string) error
	UpdateUserEmail(ctx context.Context, userID, email string) error
	// RecoveryLink returns a one-time link that lets the user set a password.
	RecoveryLink(ctx context.Context, email, redirectTo string) (string, error)
}

type Config struct {
	URL            string
	ServiceRoleKey string
	Timeout        time.Duration
	MaxRetries     int
}

func ConfigFromEnv() Config {
	return Config{
		URL:            envutil.String("SUPABASE_URL", ""),
		ServiceRoleKey: envutil.String("SUPABASE_SERVICE_ROLE_KEY", ""),
		Timeout:        envutil.Seconds("SUPABASE_TIMEOUT_SECONDS", 15*time.Second),
		MaxRetries:     envutil.Int("SUPABASE_MAX_RETRIES", 2),
	}
}

type CreateUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password,omitempty"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *resty.Client
}

func New(log *logger.Logger, cfg Config) (AuthAdmin, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing SUPABASE_URL")
	}
	if strings.TrimSpace(cfg.ServiceRoleKey) == "" {
		return nil, fmt.Errorf("missing SUPABASE_SERVICE_ROLE_KEY")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	hc := resty.New().
		SetBaseURL(base+"/auth/v1").
		SetTimeout(cfg.Timeout).
		SetHeader("apikey", cfg.ServiceRoleKey).
		SetAuthToken(cfg.ServiceRoleKey).
		SetHeader("Content-Type", "application/json")
	return &client{log: log.With("client", "SupabaseAuthAdmin"), cfg: cfg, http: hc}, nil
}

func (c *client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return nil, fmt.Errorf("supabase: email required")
	}
	resp, err := c.http.R().
		SetContext(ctxutil.Default(ctx)).
		SetBody(req).
		Post("/admin/users")
	if err != nil {
		return nil, fmt.Errorf("supabase create user: %w", err)
	}
	if isUserExists(resp) {
		return nil, ErrUserExists
	}
	if !resp.IsSuccess() {
		return nil, statusError(resp)
	}
	var u User
	if err := json.Unmarshal(resp.Body(), &u); err != nil {
		return nil, fmt.Errorf("supabase create user: decode: %w", err)
	}
	c.log.Info("Auth user created", "user_id", u.ID)
	return &u, nil
}

func (c *client) DeleteUser(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("supabase: user id required")
	}
	ctx = ctxutil.Default(ctx)
	return httpx.Retry(ctx, c.log, "supabase.admin.delete_user", c.cfg.MaxRetries, 500*time.Millisecond, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			Delete("/admin/users/" + url.PathEscape(userID))
		if err != nil {
			return err
		}
		if resp.StatusCode() == http.StatusNotFound {
			return nil
		}
		if !resp.IsSuccess() {
			return statusError(resp)
		}
		return nil
	})
}

type updateUserRequest struct {
	Email        string `json:"email"`
	EmailConfirm bool   `json:"email_confirm"`
}

func (c *client) UpdateUserEmail(ctx context.Context, userID, email string) error {
	userID = strings.TrimSpace(userID)
	email = strings.ToLower(strings.TrimSpace(email))
	if userID == "" || email == "" {
		return fmt.Errorf("supabase: user id and email required")
	}
	resp, err := c.http.R().
		SetContext(ctxutil.Default(ctx)).
		SetBody(updateUserRequest{Email: email, EmailConfirm: true}).
		Put("/admin/users/" + url.PathEscape(userID))
	if err != nil {
		return fmt.Errorf("supabase update user: %w", err)
	}
	if isUserExists(resp) {
		return ErrUserExists
	}
	if !resp.IsSuccess() {
		return statusError(resp)
	}
	c.log.Info("Auth user email updated", "user_id", userID)
	return nil
}

type generateLinkRequest struct {
	Type       string `json:"type"`
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

type generateLinkResponse struct {
	ActionLink string `json:"action_link"`
	Properties struct {
		ActionLink string `json:"action_link"`
	} `json:"properties"`
}

func (c *client) RecoveryLink(ctx context.Context, email, redirectTo string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("supabase: email required")
	}
	resp, err := c.http.R().
		SetContext(ctxutil.Default(ctx)).
		SetBody(generateLinkRequest{Type: "recovery", Email: email, RedirectTo: redirectTo}).
		Post("/admin/generate_link")
	if err != nil {
		return "", fmt.Errorf("supabase generate link: %w", err)
	}
	if !resp.IsSuccess() {
		return "", statusError(resp)
	}
	var out generateLinkResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("supabase generate link: decode: %w", err)
	}
	link := out.ActionLink
	if link == "" {
		link = out.Properties.ActionLink
	}
	if link == "" {
		return "", fmt.Errorf("supabase generate link: empty action_link")
	}
	return link, nil
}

// isUserExists matches the duplicate-email answers GoTrue has used across
// versions (422 email_exists, 400 or 422 "already been registered").
func isUserExists(resp *resty.Response) bool {
	code := resp.StatusCode()
	if code != http.StatusUnprocessableEntity && code != http.StatusBadRequest && code != http.StatusConflict {
		return false
	}
	body := strings.ToLower(string(resp.Body()))
	return strings.Contains(body, "email_exists") ||
		strings.Contains(body, "already been registered") ||
		strings.Contains(body, "already registered")
}

func statusError(resp *resty.Response) error {
	return &httpx.StatusError{
		Service:    "supabase",
		StatusCode: resp.StatusCode(),
		Body:       string(resp.Body()),
		RetryAfter: httpx.RetryAfterDuration(resp.Header(), 0, 10*time.Second),
	}
}

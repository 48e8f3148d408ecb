package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/allbound-backend/internal/platform/ctxutil"
	"github.com/yungbote/allbound-backend/internal/platform/envutil"
	"github.com/yungbote/allbound-backend/internal/platform/httpx"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

const DefaultBaseURL = "https://api.razorpay.com"

// Client talks to the payment gateway's REST API and checks the signatures
// it attaches to checkout callbacks and webhooks.
type Client interface {
	KeyID() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	// VerifyPaymentSignature checks hex(hmac_sha256(key_secret, order_id|payment_id)).
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	// VerifyWebhookSignature checks hex(hmac_sha256(webhook_secret, body)).
	VerifyWebhookSignature(body []byte, signature string) bool
}

type Config struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int
}

func ConfigFromEnv() Config {
	return Config{
		KeyID:         envutil.String("RAZORPAY_KEY_ID", ""),
		KeySecret:     envutil.String("RAZORPAY_KEY_SECRET", ""),
		WebhookSecret: envutil.String("RAZORPAY_WEBHOOK_SECRET", ""),
		BaseURL:       envutil.String("RAZORPAY_BASE_URL", DefaultBaseURL),
		Timeout:       envutil.Seconds("RAZORPAY_TIMEOUT_SECONDS", 20*time.Second),
		MaxRetries:    envutil.Int("RAZORPAY_MAX_RETRIES", 2),
	}
}

type OrderRequest struct {
	// Amount is in minor units.
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID       string            `json:"id"`
	Entity   string            `json:"entity"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

const (
	PaymentCreated    = "created"
	PaymentAuthorized = "authorized"
	PaymentCaptured   = "captured"
	PaymentFailed     = "failed"
	PaymentRefunded   = "refunded"
)

type Payment struct {
	ID        string            `json:"id"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Status    string            `json:"status"`
	OrderID   string            `json:"order_id"`
	Email     string            `json:"email"`
	Contact   string            `json:"contact"`
	Captured  bool              `json:"captured"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

// Paid reports whether the money has been taken.
func (p *Payment) Paid() bool {
	return p != nil && (p.Status == PaymentCaptured || p.Status == PaymentAuthorized)
}

type client struct {
	log  *logger.Logger
	cfg  Config
	http *resty.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.KeyID) == "" || strings.TrimSpace(cfg.KeySecret) == "" {
		return nil, fmt.Errorf("missing RAZORPAY_KEY_ID or RAZORPAY_KEY_SECRET")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	hc := resty.New().
		SetBaseURL(base).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &client{log: log.With("client", "Razorpay"), cfg: cfg, http: hc}, nil
}

func (c *client) KeyID() string { return c.cfg.KeyID }

func (c *client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("razorpay: amount must be positive")
	}
	if strings.TrimSpace(req.Currency) == "" {
		return nil, fmt.Errorf("razorpay: currency required")
	}
	// Single attempt; orders are not idempotent at the gateway.
	resp, err := c.http.R().
		SetContext(ctxutil.Default(ctx)).
		SetBody(req).
		Post("/v1/orders")
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, statusError(resp)
	}
	var out Order
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("razorpay create order: decode: %w", err)
	}
	c.log.Info("Gateway order created", "gateway_order_id", out.ID, "amount", out.Amount, "currency", out.Currency)
	return &out, nil
}

func (c *client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("razorpay: payment id required")
	}
	ctx = ctxutil.Default(ctx)
	var out Payment
	err := httpx.Retry(ctx, c.log, "razorpay.payments.fetch", c.cfg.MaxRetries, 500*time.Millisecond, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			Get("/v1/payments/" + url.PathEscape(paymentID))
		if err != nil {
			return err
		}
		if !resp.IsSuccess() {
			return statusError(resp)
		}
		return json.Unmarshal(resp.Body(), &out)
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch payment: %w", err)
	}
	return &out, nil
}

func (c *client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.cfg.KeySecret, []byte(orderID+"|"+paymentID), signature)
}

func (c *client) VerifyWebhookSignature(body []byte, signature string) bool {
	if strings.TrimSpace(c.cfg.WebhookSecret) == "" {
		c.log.Warn("Webhook received without RAZORPAY_WEBHOOK_SECRET configured")
		return false
	}
	return VerifySignature(c.cfg.WebhookSecret, body, signature)
}

// Sign returns the lowercase hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret string, payload []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if secret == "" || signature == "" {
		return false
	}
	want := Sign(secret, payload)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(signature)))
}

func statusError(resp *resty.Response) error {
	return &httpx.StatusError{
		Service:    "razorpay",
		StatusCode: resp.StatusCode(),
		Body:       string(resp.Body()),
		RetryAfter: httpx.RetryAfterDuration(resp.Header(), 0, 10*time.Second),
	}
}

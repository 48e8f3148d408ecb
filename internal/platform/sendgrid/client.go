package sendgrid

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/yungbote/allbound-backend/internal/platform/ctxutil"
	"github.com/yungbote/allbound-backend/internal/platform/envutil"
	"github.com/yungbote/allbound-backend/internal/platform/httpx"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
)

// Mailer sends transactional mail and keeps the marketing contact list in
// sync with paying customers.
type Mailer interface {
	Send(ctx context.Context, msg Message) (*Result, error)
	UpsertContact(ctx context.Context, c Contact) error
}

type Config struct {
	APIKey        string
	BaseURL       string
	FromEmail     string
	FromName      string
	ContactListID string
	Timeout       time.Duration
	MaxRetries    int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:        envutil.String("SENDGRID_API_KEY", ""),
		BaseURL:       envutil.String("SENDGRID_BASE_URL", ""),
		FromEmail:     envutil.String("SENDGRID_FROM_EMAIL", ""),
		FromName:      envutil.String("SENDGRID_FROM_NAME", "Allbound"),
		ContactListID: envutil.String("SENDGRID_CONTACT_LIST_ID", ""),
		Timeout:       envutil.Seconds("SENDGRID_TIMEOUT_SECONDS", 30*time.Second),
		MaxRetries:    envutil.Int("SENDGRID_MAX_RETRIES", 3),
	}
}

func New(log *logger.Logger, cfg Config) (Mailer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, fmt.Errorf("missing SENDGRID_FROM_EMAIL")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:  log.With("client", "SendGrid"),
		cfg:  cfg,
		rest: &rest.Client{HTTPClient: &http.Client{Timeout: cfg.Timeout}},
	}, nil
}

type client struct {
	log  *logger.Logger
	cfg  Config
	rest *rest.Client
}

type Address struct {
	Email string
	Name  string
}

type Attachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Message is either a dynamic-template send (TemplateID + Data) or a plain
// send (Subject + Text/HTML).
type Message struct {
	To          Address
	Subject     string
	Text        string
	HTML        string
	TemplateID  string
	Data        map[string]any
	Categories  []string
	Attachments []Attachment
}

type Result struct {
	StatusCode int
	MessageID  string
}

type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Country   string
}

func (c *client) Send(ctx context.Context, msg Message) (*Result, error) {
	m, err := c.build(msg)
	if err != nil {
		return nil, err
	}
	req := sg.GetRequest(c.cfg.APIKey, "/v3/mail/send", c.cfg.BaseURL)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(m)

	resp, err := c.do(ctx, "mail.send", req)
	if err != nil {
		return nil, err
	}
	out := &Result{StatusCode: resp.StatusCode}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		out.MessageID = ids[0]
	}
	c.log.Debug("Email sent", "template_id", msg.TemplateID, "status", resp.StatusCode)
	return out, nil
}

func (c *client) build(msg Message) (*mail.SGMailV3, error) {
	to := strings.TrimSpace(msg.To.Email)
	if to == "" {
		return nil, fmt.Errorf("sendgrid: recipient required")
	}
	tmpl := strings.TrimSpace(msg.TemplateID)
	if tmpl == "" {
		if strings.TrimSpace(msg.Subject) == "" {
			return nil, fmt.Errorf("sendgrid: subject required without a template")
		}
		if strings.TrimSpace(msg.Text) == "" && strings.TrimSpace(msg.HTML) == "" {
			return nil, fmt.Errorf("sendgrid: text or html required without a template")
		}
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(c.cfg.FromName, c.cfg.FromEmail))
	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(strings.TrimSpace(msg.To.Name), to))
	for k, v := range msg.Data {
		p.SetDynamicTemplateData(k, v)
	}
	m.AddPersonalizations(p)

	if tmpl != "" {
		m.SetTemplateID(tmpl)
	} else {
		m.Subject = strings.TrimSpace(msg.Subject)
		if t := strings.TrimSpace(msg.Text); t != "" {
			m.AddContent(mail.NewContent("text/plain", t))
		}
		if h := strings.TrimSpace(msg.HTML); h != "" {
			m.AddContent(mail.NewContent("text/html", h))
		}
	}
	if len(msg.Categories) > 0 {
		m.AddCategories(msg.Categories...)
	}
	for _, a := range msg.Attachments {
		if strings.TrimSpace(a.Filename) == "" || len(a.Content) == 0 {
			return nil, fmt.Errorf("sendgrid: attachment needs a filename and content")
		}
		att := mail.NewAttachment()
		att.SetFilename(a.Filename)
		att.SetType(a.MIMEType)
		att.SetDisposition("attachment")
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		m.AddAttachment(att)
	}
	return m, nil
}

type contactsBody struct {
	ListIDs  []string      `json:"list_ids,omitempty"`
	Contacts []contactWire `json:"contacts"`
}

type contactWire struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Country     string `json:"country,omitempty"`
}

// UpsertContact adds or updates a marketing contact. SendGrid processes the
// upsert asynchronously and answers 202.
func (c *client) UpsertContact(ctx context.Context, contact Contact) error {
	email := strings.TrimSpace(contact.Email)
	if email == "" {
		return fmt.Errorf("sendgrid: contact email required")
	}
	body := contactsBody{Contacts: []contactWire{{
		Email:       email,
		FirstName:   strings.TrimSpace(contact.FirstName),
		LastName:    strings.TrimSpace(contact.LastName),
		PhoneNumber: strings.TrimSpace(contact.Phone),
		Country:     strings.TrimSpace(contact.Country),
	}}}
	if c.cfg.ContactListID != "" {
		body.ListIDs = []string{c.cfg.ContactListID}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req := sg.GetRequest(c.cfg.APIKey, "/v3/marketing/contacts", c.cfg.BaseURL)
	req.Method = rest.Put
	req.Body = raw
	_, err = c.do(ctx, "marketing.contacts", req)
	return err
}

func (c *client) do(ctx context.Context, op string, req rest.Request) (*rest.Response, error) {
	var resp *rest.Response
	err := httpx.Retry(ctxutil.Default(ctx), c.log, "sendgrid."+op, c.cfg.MaxRetries, time.Second, func() error {
		r, err := c.rest.SendWithContext(ctx, req)
		if err != nil {
			return err
		}
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			return &httpx.StatusError{
				Service:    "sendgrid",
				StatusCode: r.StatusCode,
				Body:       r.Body,
				RetryAfter: httpx.RetryAfterDuration(http.Header(r.Headers), 0, 10*time.Second),
			}
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

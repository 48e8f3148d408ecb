package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/commerce/invoice"
	"github.com/yungbote/allbound-backend/internal/data/repos"
	"github.com/yungbote/allbound-backend/internal/domain/commerce"
	"github.com/yungbote/allbound-backend/internal/observability"
	"github.com/yungbote/allbound-backend/internal/platform/apierr"
	"github.com/yungbote/allbound-backend/internal/platform/gcp"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/platform/sendgrid"
)

type InvoiceConfig struct {
	GSTRate    float64
	TemplateID string
	// CopyTo receives a copy of every invoice email when set.
	CopyTo string
}

type InvoiceFailure struct {
	Number string `json:"invoice_number"`
	Step   string `json:"step"`
	Error  string `json:"error"`
}

type SendResult struct {
	Month    string           `json:"month"`
	Pending  int              `json:"pending"`
	Sent     []string         `json:"sent"`
	Archived map[string]string `json:"archived,omitempty"`
	Failed   []InvoiceFailure `json:"failed"`
}

type InvoiceService interface {
	Report(ctx context.Context, month invoice.Month) (*invoice.Report, error)
	// Send emails every invoice of month not yet sent. A failure on one
	// invoice is recorded and the rest are still attempted.
	Send(ctx context.Context, month invoice.Month) (*SendResult, error)
}

type invoiceService struct {
	db       *gorm.DB
	log      *logger.Logger
	cfg      InvoiceConfig
	orders   repos.OrderRepo
	renderer *invoice.Renderer
	mailer   sendgrid.Mailer
	archive  gcp.InvoiceArchive
}

// NewInvoiceService wires invoice delivery. archive may be nil; mailer may
// be nil only for report-only use.
func NewInvoiceService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg InvoiceConfig,
	orderRepo repos.OrderRepo,
	renderer *invoice.Renderer,
	mailer sendgrid.Mailer,
	archive gcp.InvoiceArchive,
) InvoiceService {
	if cfg.GSTRate <= 0 {
		cfg.GSTRate = invoice.DefaultGSTRate
	}
	return &invoiceService{
		db:       db,
		log:      baseLog.With("service", "InvoiceService"),
		cfg:      cfg,
		orders:   orderRepo,
		renderer: renderer,
		mailer:   mailer,
		archive:  archive,
	}
}

func (s *invoiceService) Report(ctx context.Context, month invoice.Month) (*invoice.Report, error) {
	if month.IsZero() {
		return nil, apierr.BadRequest("month is required (YYYY-MM)")
	}
	orders, err := s.orders.ListBetween(ctx, nil, commerce.RegionIndia, month.Start(), month.End())
	if err != nil {
		s.log.Error("List orders for invoices failed", "error", err, "month", month.String())
		return nil, apierr.FromDB("orders", err)
	}
	report := invoice.Generate(orders, month, s.cfg.GSTRate)
	return &report, nil
}

func (s *invoiceService) Send(ctx context.Context, month invoice.Month) (*SendResult, error) {
	if s.mailer == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "email_unavailable", fmt.Errorf("mailer not configured"))
	}
	if s.renderer == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "renderer_unavailable", fmt.Errorf("invoice renderer not configured"))
	}
	report, err := s.Report(ctx, month)
	if err != nil {
		return nil, err
	}
	pending := report.Pending()
	res := &SendResult{Month: month.String(), Pending: len(pending), Sent: []string{}, Failed: []InvoiceFailure{}}
	if s.archive != nil {
		res.Archived = map[string]string{}
	}

	for _, inv := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		step, err := s.deliver(ctx, inv, res)
		if err != nil {
			observability.Current().IncInvoice(string(inv.Kind), "failed")
			s.log.Warn("Invoice delivery failed", "invoice", inv.Number, "step", step, "error", err)
			res.Failed = append(res.Failed, InvoiceFailure{Number: inv.Number, Step: step, Error: err.Error()})
			continue
		}
		observability.Current().IncInvoice(string(inv.Kind), "sent")
		res.Sent = append(res.Sent, inv.Number)
	}
	s.log.Info("Invoice run finished", "month", res.Month, "pending", res.Pending, "sent", len(res.Sent), "failed", len(res.Failed))
	return res, nil
}

func (s *invoiceService) deliver(ctx context.Context, inv invoice.Invoice, res *SendResult) (string, error) {
	png, err := s.renderer.Render(inv)
	if err != nil {
		return "render", err
	}
	name := invoice.Filename(inv)

	if s.archive != nil {
		key := inv.Date.In(invoice.IST).Format("2006-01") + "/" + name
		url, err := s.archive.Put(ctx, key, "image/png", png)
		if err != nil {
			s.log.Warn("Invoice archive upload failed", "invoice", inv.Number, "error", err)
		} else {
			res.Archived[inv.Number] = url
		}
	}

	msg := sendgrid.Message{
		To:         sendgrid.Address{Email: inv.CustomerEmail, Name: inv.CustomerName},
		TemplateID: s.cfg.TemplateID,
		Data: map[string]any{
			"customer_name":  inv.CustomerName,
			"invoice_number": inv.Number,
			"amount":         fmt.Sprintf("%.2f", inv.Amount),
			"date":           inv.Date.In(invoice.IST).Format("02 Jan 2006"),
		},
		Categories:  []string{"invoice"},
		Attachments: []sendgrid.Attachment{{Filename: name, MIMEType: "image/png", Content: png}},
	}
	if msg.TemplateID == "" {
		msg.Subject = "Your Allbound invoice " + inv.Number
		msg.Text = fmt.Sprintf("Hi %s,\n\nPlease find attached invoice %s for INR %.2f.\n\nThank you,\nAllbound", firstWord(inv.CustomerName), inv.Number, inv.Amount)
	}
	if _, err := s.mailer.Send(ctx, msg); err != nil {
		return "email", err
	}
	if s.cfg.CopyTo != "" {
		cp := msg
		cp.To = sendgrid.Address{Email: s.cfg.CopyTo}
		if _, err := s.mailer.Send(ctx, cp); err != nil {
			s.log.Warn("Invoice copy email failed", "invoice", inv.Number, "error", err)
		}
	}

	if err := s.orders.MarkInvoiceSent(ctx, nil, inv.OrderID, inv.Number, time.Now().UTC()); err != nil {
		return "mark_sent", err
	}
	return "", nil
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return "there"
}

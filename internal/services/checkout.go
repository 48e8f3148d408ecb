package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/allbound-backend/internal/clients/razorpay"
	"github.com/yungbote/allbound-backend/internal/commerce/pricing"
	"github.com/yungbote/allbound-backend/internal/data/repos"
	repocommerce "github.com/yungbote/allbound-backend/internal/data/repos/commerce"
	"github.com/yungbote/allbound-backend/internal/domain/commerce"
	"github.com/yungbote/allbound-backend/internal/observability"
	"github.com/yungbote/allbound-backend/internal/platform/apierr"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/platform/outcome"
)

// Gateway order note keys. The confirm and webhook paths rebuild the
// customer from these, so they are the contract between the two halves.
const (
	NoteName        = "name"
	NoteEmail       = "email"
	NotePhone       = "phone"
	NoteCountry     = "country"
	NoteRegion      = "region"
	NoteCoupon      = "coupon"
	NoteGSTNumber   = "gst_number"
	NoteCompanyName = "company_name"
)

type Customer struct {
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"max=32"`
	Country     string `json:"country" validate:"omitempty,len=2"`
	GSTNumber   string `json:"gst_number" validate:"omitempty,len=15,alphanum"`
	CompanyName string `json:"company_name" validate:"required_with=GSTNumber,max=200"`
}

type CreateOrderRequest struct {
	Customer Customer `json:"customer"`
	Coupon   string   `json:"coupon"`
}

type CheckoutOrder struct {
	GatewayOrderID string            `json:"order_id"`
	KeyID          string            `json:"key_id"`
	Amount         int64             `json:"amount"`
	Currency       commerce.Currency `json:"currency"`
	Receipt        string            `json:"receipt"`
	Quote          pricing.Quote     `json:"quote"`
	Customer       Customer          `json:"customer"`
}

type ConfirmRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	PaymentID      string `json:"razorpay_payment_id" validate:"required"`
	Signature      string `json:"razorpay_signature" validate:"required"`
}

type ConfirmResult struct {
	Order        *commerce.Order  `json:"order"`
	Member       *commerce.Member `json:"member,omitempty"`
	OrderCreated bool             `json:"order_created"`
	outcome.Outcome
}

type WebhookResult struct {
	Event   string         `json:"event"`
	Handled bool           `json:"handled"`
	Result  *ConfirmResult `json:"result,omitempty"`
}

type CheckoutService interface {
	Quote(ctx context.Context, pctx pricing.Context, coupon string) pricing.Quote
	ValidateCoupon(ctx context.Context, code string) pricing.Coupon
	CreateOrder(ctx context.Context, pctx pricing.Context, req CreateOrderRequest) (*CheckoutOrder, error)
	// Confirm is called by the browser after checkout. It is idempotent per
	// payment id.
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error)
	// HandleWebhook covers payments whose browser confirmation never arrived.
	HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error)
}

type checkoutService struct {
	db      *gorm.DB
	log     *logger.Logger
	table   *pricing.Table
	gateway razorpay.Client
	orders  repos.OrderRepo
	members MemberService
}

func NewCheckoutService(
	db *gorm.DB,
	baseLog *logger.Logger,
	table *pricing.Table,
	gateway razorpay.Client,
	orderRepo repos.OrderRepo,
	memberSvc MemberService,
) CheckoutService {
	return &checkoutService{
		db:      db,
		log:     baseLog.With("service", "CheckoutService"),
		table:   table,
		gateway: gateway,
		orders:  orderRepo,
		members: memberSvc,
	}
}

func (s *checkoutService) Quote(ctx context.Context, pctx pricing.Context, coupon string) pricing.Quote {
	return s.table.Quote(pctx, coupon)
}

func (s *checkoutService) ValidateCoupon(ctx context.Context, code string) pricing.Coupon {
	return s.table.ValidateCoupon(code)
}

func (s *checkoutService) requireGateway() error {
	if s.gateway == nil {
		return apierr.New(http.StatusServiceUnavailable, "payments_unavailable", errors.New("payment gateway not configured"))
	}
	return nil
}

func (s *checkoutService) CreateOrder(ctx context.Context, pctx pricing.Context, req CreateOrderRequest) (*CheckoutOrder, error) {
	if err := s.requireGateway(); err != nil {
		return nil, err
	}
	c := normalizeCustomer(req.Customer)
	if err := validateInput(c); err != nil {
		return nil, err
	}

	q := s.table.Quote(pctx, req.Coupon)
	notes := map[string]string{
		NoteName:    c.Name,
		NoteEmail:   c.Email,
		NoteRegion:  string(q.Context.Region),
		NotePhone:   c.Phone,
		NoteCountry: c.Country,
	}
	if q.Coupon != nil && q.Coupon.Valid {
		notes[NoteCoupon] = q.Coupon.Code
	}
	if c.GSTNumber != "" {
		notes[NoteGSTNumber] = c.GSTNumber
		notes[NoteCompanyName] = c.CompanyName
	}
	for k, v := range notes {
		if v == "" {
			delete(notes, k)
		}
	}

	receipt := "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	order, err := s.gateway.CreateOrder(ctx, razorpay.OrderRequest{
		Amount:   q.Breakdown.TotalMinor,
		Currency: string(q.Price.Currency),
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		observability.Current().IncCheckout("order", string(q.Context.Region), "error")
		s.log.Error("Gateway order creation failed", "error", err, "region", q.Context.Region)
		return nil, apierr.Upstream("payment_gateway_error", err)
	}
	observability.Current().IncCheckout("order", string(q.Context.Region), "ok")
	s.log.Info("Checkout order created", "gateway_order_id", order.ID, "region", q.Context.Region, "amount", order.Amount)

	return &CheckoutOrder{
		GatewayOrderID: order.ID,
		KeyID:          s.gateway.KeyID(),
		Amount:         order.Amount,
		Currency:       q.Price.Currency,
		Receipt:        receipt,
		Quote:          q,
		Customer:       c,
	}, nil
}

func normalizeCustomer(c Customer) Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = repocommerce.NormalizeEmail(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Country = strings.ToUpper(strings.TrimSpace(c.Country))
	c.GSTNumber = strings.ToUpper(strings.TrimSpace(c.GSTNumber))
	c.CompanyName = strings.TrimSpace(c.CompanyName)
	return c
}

func (s *checkoutService) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	if err := s.requireGateway(); err != nil {
		return nil, err
	}
	req.GatewayOrderID = strings.TrimSpace(req.GatewayOrderID)
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	req.Signature = strings.TrimSpace(req.Signature)
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if !s.gateway.VerifyPaymentSignature(req.GatewayOrderID, req.PaymentID, req.Signature) {
		observability.Current().IncCheckout("verify", "", "bad_signature")
		s.log.Warn("Payment signature mismatch", "payment_id", req.PaymentID)
		return nil, apierr.New(http.StatusBadRequest, "invalid_signature", errors.New("payment signature verification failed"))
	}

	if existing, err := s.orders.GetByPaymentID(ctx, nil, req.PaymentID); err == nil {
		return s.complete(ctx, existing, false)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.FromDB("order", err)
	}

	payment, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		s.log.Error("Fetch payment failed", "error", err, "payment_id", req.PaymentID)
		return nil, apierr.Upstream("payment_gateway_error", err)
	}
	if payment.OrderID != "" && payment.OrderID != req.GatewayOrderID {
		return nil, apierr.BadRequest("payment %s does not belong to order %s", req.PaymentID, req.GatewayOrderID)
	}
	if !payment.Paid() {
		observability.Current().IncCheckout("verify", "", "unpaid")
		return nil, apierr.New(http.StatusPaymentRequired, "payment_not_captured", fmt.Errorf("payment status is %q", payment.Status))
	}
	if payment.OrderID == "" {
		payment.OrderID = req.GatewayOrderID
	}
	return s.record(ctx, payment)
}

func (s *checkoutService) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if err := s.requireGateway(); err != nil {
		return nil, err
	}
	if !s.gateway.VerifyWebhookSignature(body, signature) {
		s.log.Warn("Webhook signature mismatch")
		return nil, apierr.Unauthorized("invalid webhook signature")
	}
	ev, err := razorpay.ParseWebhook(body)
	if err != nil {
		return nil, apierr.BadRequest("%v", err)
	}
	out := &WebhookResult{Event: ev.Event}
	if ev.Event != razorpay.EventPaymentCaptured {
		s.log.Debug("Ignoring webhook event", "event", ev.Event)
		return out, nil
	}
	payment := ev.Payment()
	if payment == nil {
		return nil, apierr.BadRequest("webhook has no payment entity")
	}
	res, err := s.record(ctx, payment)
	if err != nil {
		return nil, err
	}
	out.Handled = true
	out.Result = res
	return out, nil
}

// record stores the order for a paid payment and provisions its member.
// Replays find the stored order and only re-run provisioning.
func (s *checkoutService) record(ctx context.Context, p *razorpay.Payment) (*ConfirmResult, error) {
	o := orderFromPayment(p)
	o.Region = s.paymentRegion(p)
	stored, created, err := s.orders.CreateIfAbsent(ctx, nil, o)
	if err != nil {
		s.log.Error("Persist order failed", "error", err, "payment_id", p.ID)
		return nil, apierr.FromDB("order", err)
	}
	if created {
		observability.Current().IncCheckout("verify", string(stored.Region), "ok")
		observability.Current().AddRevenue(string(stored.Currency), stored.Amount)
		s.log.Info("Order recorded", "payment_id", stored.PaymentID, "region", stored.Region, "amount", stored.Amount)
	}
	return s.complete(ctx, stored, created)
}

func (s *checkoutService) complete(ctx context.Context, o *commerce.Order, created bool) (*ConfirmResult, error) {
	res := &ConfirmResult{Order: o, OrderCreated: created}
	if s.members == nil {
		res.Skip("member", "member provisioning not configured")
		return res, nil
	}
	mr, err := s.members.Provision(ctx, MemberInput{
		Email:     o.CustomerEmail,
		Name:      o.CustomerName,
		Phone:     o.CustomerPhone,
		Country:   noteString(o.Notes, NoteCountry),
		Region:    string(o.Region),
		PaymentID: o.PaymentID,
		Source:    commerce.MemberSourceCheckout,
	})
	if err != nil {
		// The payment is recorded; access can be granted from the admin panel.
		s.log.Error("Member provisioning failed", "error", err, "payment_id", o.PaymentID)
		res.Record("member", err)
		return res, nil
	}
	res.Member = mr.Member
	res.Record("member", nil)
	res.Merge("member", &mr.Outcome)
	return res, nil
}

// paymentRegion takes the region from the gateway currency: INR is always
// INDIA and any other currency never is. The region note only picks between
// the non-INDIA regions, and a note that contradicts the currency is ignored.
func (s *checkoutService) paymentRegion(p *razorpay.Payment) commerce.Region {
	note, ok := commerce.ParseRegion(p.Notes[NoteRegion])
	switch commerce.Currency(strings.ToUpper(strings.TrimSpace(p.Currency))) {
	case commerce.CurrencyINR:
		if ok && note != commerce.RegionIndia {
			s.log.Warn("Region note contradicts payment currency", "payment_id", p.ID, "note", note, "currency", p.Currency)
		}
		return commerce.RegionIndia
	case "":
		return note
	default:
		if ok && note != commerce.RegionIndia {
			return note
		}
		if ok {
			s.log.Warn("Region note contradicts payment currency", "payment_id", p.ID, "note", note, "currency", p.Currency)
		}
		return commerce.RegionInternational
	}
}

func orderFromPayment(p *razorpay.Payment) *commerce.Order {
	notes := p.Notes
	region, _ := commerce.ParseRegion(notes[NoteRegion])
	email := notes[NoteEmail]
	if email == "" {
		email = p.Email
	}
	phone := notes[NotePhone]
	if phone == "" {
		phone = p.Contact
	}
	created := time.Now().UTC()
	if p.CreatedAt > 0 {
		created = time.Unix(p.CreatedAt, 0).UTC()
	}
	stored := datatypes.JSONMap{}
	for k, v := range notes {
		stored[k] = v
	}
	gst := strings.TrimSpace(notes[NoteGSTNumber])
	return &commerce.Order{
		ID:             uuid.NewString(),
		PaymentID:      p.ID,
		GatewayOrderID: p.OrderID,
		Amount:         p.Amount,
		Currency:       commerce.Currency(strings.ToUpper(p.Currency)),
		Region:         region,
		CustomerName:   strings.TrimSpace(notes[NoteName]),
		CustomerEmail:  repocommerce.NormalizeEmail(email),
		CustomerPhone:  strings.TrimSpace(phone),
		GSTNumber:      gst,
		CompanyName:    strings.TrimSpace(notes[NoteCompanyName]),
		HasGST:         gst != "",
		CouponCode:     notes[NoteCoupon],
		Notes:          stored,
		CreatedAt:      created,
		UpdatedAt:      time.Now().UTC(),
	}
}

func noteString(notes datatypes.JSONMap, key string) string {
	if notes == nil {
		return ""
	}
	s, _ := notes[key].(string)
	return s
}

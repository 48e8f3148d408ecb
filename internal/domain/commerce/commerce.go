package commerce

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Region string

const (
	RegionIndia         Region = "INDIA"
	RegionSAARC         Region = "SAARC"
	RegionInternational Region = "INTERNATIONAL"
)

// ParseRegion normalizes a region name. Empty and unknown names fall back
// to INDIA; ok reports whether the input named a known region.
func ParseRegion(s string) (Region, bool) {
	switch Region(strings.ToUpper(strings.TrimSpace(s))) {
	case RegionIndia:
		return RegionIndia, true
	case RegionSAARC:
		return RegionSAARC, true
	case RegionInternational:
		return RegionInternational, true
	default:
		return RegionIndia, false
	}
}

type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
)

// Order is one captured payment. Amount is in minor units (paise, cents).
type Order struct {
	ID             string            `gorm:"column:id;primaryKey" json:"id"`
	PaymentID      string            `gorm:"column:payment_id;not null;uniqueIndex" json:"payment_id"`
	GatewayOrderID string            `gorm:"column:gateway_order_id;index" json:"gateway_order_id,omitempty"`
	Amount         int64             `gorm:"column:amount;not null" json:"amount"`
	Currency       Currency          `gorm:"column:currency;not null" json:"currency"`
	Region         Region            `gorm:"column:region;not null;index" json:"region"`
	CustomerName   string            `gorm:"column:customer_name" json:"customer_name"`
	CustomerEmail  string            `gorm:"column:customer_email;not null;index" json:"customer_email"`
	CustomerPhone  string            `gorm:"column:customer_phone" json:"customer_phone,omitempty"`
	GSTNumber      string            `gorm:"column:gst_number" json:"gst_number,omitempty"`
	CompanyName    string            `gorm:"column:company_name" json:"company_name,omitempty"`
	HasGST         bool              `gorm:"column:has_gst;not null;default:false" json:"has_gst"`
	CouponCode     string            `gorm:"column:coupon_code" json:"coupon_code,omitempty"`
	InvoiceSent    bool              `gorm:"column:invoice_sent;not null;default:false" json:"invoice_sent"`
	InvoiceNumber  string            `gorm:"column:invoice_number" json:"invoice_number,omitempty"`
	InvoiceSentAt  *time.Time        `gorm:"column:invoice_sent_at" json:"invoice_sent_at,omitempty"`
	Notes          datatypes.JSONMap `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

const (
	MemberSourceAdmin    = "admin"
	MemberSourceCheckout = "checkout"

	MemberStatusActive   = "active"
	MemberStatusDisabled = "disabled"
)

// Member is a learner with access to the course.
type Member struct {
	ID         string            `gorm:"column:id;primaryKey" json:"id"`
	Email      string            `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Name       string            `gorm:"column:name" json:"name"`
	Phone      string            `gorm:"column:phone" json:"phone,omitempty"`
	Country    string            `gorm:"column:country" json:"country,omitempty"`
	Region     Region            `gorm:"column:region" json:"region,omitempty"`
	AuthUserID *string           `gorm:"column:auth_user_id;index" json:"auth_user_id,omitempty"`
	PaymentID  *string           `gorm:"column:payment_id;index" json:"payment_id,omitempty"`
	Source     string            `gorm:"column:source;not null;default:'admin'" json:"source"`
	Status     string            `gorm:"column:status;not null;default:'active'" json:"status"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updated_at"`
}

func (Member) TableName() string { return "members" }

// FirstName is the first word of the member's name.
func (m *Member) FirstName() string {
	if m == nil {
		return ""
	}
	parts := strings.Fields(m.Name)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

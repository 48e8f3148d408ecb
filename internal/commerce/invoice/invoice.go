// Package invoice turns a month of captured INDIA orders into numbered GST
// invoices. Generation is a pure function of its inputs and can be rerun
// at any time with the same result.
package invoice

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/allbound-backend/internal/domain/commerce"
)

// DefaultGSTRate is the rate amounts are assumed to include.
const DefaultGSTRate = 0.18

type Kind string

const (
	KindB2B Kind = "B2B"
	KindB2C Kind = "B2C"
)

type Invoice struct {
	Number        string    `json:"invoice_number"`
	Kind          Kind      `json:"type"`
	OrderID       string    `json:"order_id"`
	PaymentID     string    `json:"payment_id"`
	Date          time.Time `json:"date"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	CompanyName   string    `json:"company_name,omitempty"`
	GSTNumber     string    `json:"gst_number,omitempty"`
	CouponCode    string    `json:"coupon_code,omitempty"`
	AmountMinor   int64     `json:"amount_minor"`
	Amount        float64   `json:"amount"`
	BaseAmount    float64   `json:"base_amount"`
	GSTAmount     float64   `json:"total_gst"`
	CGST          float64   `json:"cgst"`
	SGST          float64   `json:"sgst"`
	InvoiceSent   bool      `json:"invoice_sent"`
}

type Summary struct {
	TotalOrders  int     `json:"total_orders"`
	B2BCount     int     `json:"b2b_count"`
	B2CCount     int     `json:"b2c_count"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalBase    float64 `json:"total_base"`
	TotalGST     float64 `json:"total_gst"`
	TotalCGST    float64 `json:"total_cgst"`
	TotalSGST    float64 `json:"total_sgst"`
}

type Report struct {
	Month    string    `json:"month"`
	GSTRate  float64   `json:"gst_rate"`
	Invoices []Invoice `json:"invoices"`
	B2B      []Invoice `json:"b2b"`
	B2C      []Invoice `json:"b2c"`
	Summary  Summary   `json:"summary"`
}

// Split breaks a GST-inclusive amount in minor units into base, GST and the
// CGST/SGST halves. Each part is derived from the unrounded figures and
// rounded to two places on its own.
func Split(amountMinor int64, gstRate float64) (base, gst, cgst, sgst decimal.Decimal) {
	amount := decimal.NewFromInt(amountMinor).Shift(-2)
	if gstRate < 0 {
		gstRate = 0
	}
	b := amount.Div(decimal.NewFromInt(1).Add(decimal.NewFromFloat(gstRate)))
	g := amount.Sub(b)
	half := g.Div(decimal.NewFromInt(2))
	return b.Round(2), g.Round(2), half.Round(2), half.Round(2)
}

// Number formats INV-{TYPE}-{YYYYMM}-{seq}.
func Number(kind Kind, month Month, seq int) string {
	return fmt.Sprintf("INV-%s-%s-%03d", kind, month.Compact(), seq)
}

// Eligible reports whether o belongs in month's GST report.
func Eligible(o *commerce.Order, month Month) bool {
	if o == nil || o.Region != commerce.RegionIndia {
		return false
	}
	return month.Contains(o.CreatedAt)
}

// Generate builds month's report from orders. Orders outside INDIA or the
// month are ignored. Sequence numbers follow the order of the input within
// each type, so callers must pass a stable ordering.
//
// The summary totals are split once from the grand total rather than
// summed from the rounded per-invoice figures; InvoiceSum gives the other
// reading.
func Generate(orders []*commerce.Order, month Month, gstRate float64) Report {
	r := Report{
		Month:    month.String(),
		GSTRate:  gstRate,
		Invoices: []Invoice{},
		B2B:      []Invoice{},
		B2C:      []Invoice{},
	}

	var grand int64
	for _, o := range orders {
		if !Eligible(o, month) {
			continue
		}
		kind := KindB2C
		if o.HasGST {
			kind = KindB2B
		}
		var seq int
		if kind == KindB2B {
			seq = len(r.B2B) + 1
		} else {
			seq = len(r.B2C) + 1
		}
		inv := build(o, Number(kind, month, seq), kind, gstRate)
		if kind == KindB2B {
			r.B2B = append(r.B2B, inv)
		} else {
			r.B2C = append(r.B2C, inv)
		}
		grand += o.Amount
	}
	r.Invoices = append(r.Invoices, r.B2B...)
	r.Invoices = append(r.Invoices, r.B2C...)

	base, gst, cgst, sgst := Split(grand, gstRate)
	r.Summary = Summary{
		TotalOrders:  len(r.Invoices),
		B2BCount:     len(r.B2B),
		B2CCount:     len(r.B2C),
		TotalRevenue: decimal.NewFromInt(grand).Shift(-2).InexactFloat64(),
		TotalBase:    base.InexactFloat64(),
		TotalGST:     gst.InexactFloat64(),
		TotalCGST:    cgst.InexactFloat64(),
		TotalSGST:    sgst.InexactFloat64(),
	}
	return r
}

func build(o *commerce.Order, number string, kind Kind, gstRate float64) Invoice {
	base, gst, cgst, sgst := Split(o.Amount, gstRate)
	return Invoice{
		Number:        number,
		Kind:          kind,
		OrderID:       o.ID,
		PaymentID:     o.PaymentID,
		Date:          o.CreatedAt.In(IST),
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		CustomerPhone: o.CustomerPhone,
		CompanyName:   o.CompanyName,
		GSTNumber:     o.GSTNumber,
		CouponCode:    o.CouponCode,
		AmountMinor:   o.Amount,
		Amount:        decimal.NewFromInt(o.Amount).Shift(-2).InexactFloat64(),
		BaseAmount:    base.InexactFloat64(),
		GSTAmount:     gst.InexactFloat64(),
		CGST:          cgst.InexactFloat64(),
		SGST:          sgst.InexactFloat64(),
		InvoiceSent:   o.InvoiceSent,
	}
}

// InvoiceSum totals the already-rounded invoice fields. It can differ from
// Report.Summary by a few paise when there are many invoices.
func InvoiceSum(invoices []Invoice) Summary {
	var s Summary
	revenue := decimal.Zero
	base := decimal.Zero
	gst := decimal.Zero
	cgst := decimal.Zero
	sgst := decimal.Zero
	for _, inv := range invoices {
		s.TotalOrders++
		if inv.Kind == KindB2B {
			s.B2BCount++
		} else {
			s.B2CCount++
		}
		revenue = revenue.Add(decimal.NewFromInt(inv.AmountMinor).Shift(-2))
		base = base.Add(decimal.NewFromFloat(inv.BaseAmount))
		gst = gst.Add(decimal.NewFromFloat(inv.GSTAmount))
		cgst = cgst.Add(decimal.NewFromFloat(inv.CGST))
		sgst = sgst.Add(decimal.NewFromFloat(inv.SGST))
	}
	s.TotalRevenue = revenue.InexactFloat64()
	s.TotalBase = base.Round(2).InexactFloat64()
	s.TotalGST = gst.Round(2).InexactFloat64()
	s.TotalCGST = cgst.Round(2).InexactFloat64()
	s.TotalSGST = sgst.Round(2).InexactFloat64()
	return s
}

// Pending returns the invoices not yet emailed.
func (r Report) Pending() []Invoice {
	var out []Invoice
	for _, inv := range r.Invoices {
		if !inv.InvoiceSent {
			out = append(out, inv)
		}
	}
	return out
}

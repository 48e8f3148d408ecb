package invoice

import (
	"bytes"
	"errors"
	"image/png"
	"reflect"
	"testing"
	"time"

	"github.com/yungbote/allbound-backend/internal/domain/commerce"
)

func order(id string, amount int64, hasGST bool, at time.Time) *commerce.Order {
	return &commerce.Order{
		ID:            id,
		PaymentID:     "pay_" + id,
		Amount:        amount,
		Currency:      commerce.CurrencyINR,
		Region:        commerce.RegionIndia,
		CustomerName:  "Customer " + id,
		CustomerEmail: id + "@example.com",
		HasGST:        hasGST,
		CreatedAt:     at,
	}
}

func jan(day int) time.Time {
	return time.Date(2025, time.January, day, 12, 0, 0, 0, IST)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-01")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	if m.String() != "2025-01" || m.Compact() != "202501" {
		t.Fatalf("got=%s/%s", m.String(), m.Compact())
	}
	for _, bad := range []string{"", "2025-13", "2025/01", "25-01", "2025-1", "january"} {
		if _, err := ParseMonth(bad); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("ParseMonth(%q): got=%v want ErrInvalidMonth", bad, err)
		}
	}
	if got := m.Previous().String(); got != "2024-12" {
		t.Fatalf("Previous: got=%s want=2024-12", got)
	}
}

func TestMonthBoundariesAreIST(t *testing.T) {
	m, _ := ParseMonth("2025-02")
	// 2025-01-31 19:00 UTC is 2025-02-01 00:30 IST.
	if !m.Contains(time.Date(2025, time.January, 31, 19, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected UTC evening of Jan 31 to fall in Feb IST")
	}
	if m.Contains(time.Date(2025, time.January, 31, 18, 29, 0, 0, time.UTC)) {
		t.Fatalf("expected 23:59 IST Jan 31 to fall outside Feb")
	}
}

func TestGenerateSingleB2C(t *testing.T) {
	m, _ := ParseMonth("2025-01")
	r := Generate([]*commerce.Order{order("o1", 500000, false, jan(10))}, m, DefaultGSTRate)
	if len(r.Invoices) != 1 || len(r.B2C) != 1 || len(r.B2B) != 0 {
		t.Fatalf("counts: got=%d/%d/%d", len(r.Invoices), len(r.B2B), len(r.B2C))
	}
	inv := r.Invoices[0]
	if inv.Number != "INV-B2C-202501-001" {
		t.Fatalf("number: got=%s", inv.Number)
	}
	if inv.BaseAmount != 4237.29 || inv.GSTAmount != 762.71 {
		t.Fatalf("amounts: base=%v gst=%v", inv.BaseAmount, inv.GSTAmount)
	}
	if inv.CGST != inv.SGST || inv.CGST < 381.34 || inv.CGST > 381.36 {
		t.Fatalf("cgst/sgst: got=%v/%v want 381.35±0.01", inv.CGST, inv.SGST)
	}
	if inv.Amount != 5000 {
		t.Fatalf("amount: got=%v want=5000", inv.Amount)
	}
}

func TestGenerateFiltersAndNumbers(t *testing.T) {
	m, _ := ParseMonth("2025-01")
	intl := order("x", 9700, false, jan(3))
	intl.Region = commerce.RegionInternational
	orders := []*commerce.Order{
		order("c1", 247600, false, jan(2)),
		order("b1", 247600, true, jan(3)),
		intl,
		order("c2", 247600, false, jan(4)),
		order("late", 247600, false, time.Date(2025, time.February, 1, 0, 0, 0, 0, IST)),
		nil,
		order("b2", 247600, true, jan(5)),
	}
	r := Generate(orders, m, DefaultGSTRate)
	var got []string
	for _, inv := range r.Invoices {
		got = append(got, inv.OrderID+"="+inv.Number)
	}
	want := []string{
		"b1=INV-B2B-202501-001",
		"b2=INV-B2B-202501-002",
		"c1=INV-B2C-202501-001",
		"c2=INV-B2C-202501-002",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got=%v want=%v", got, want)
	}
	if r.Summary.TotalOrders != 4 || r.Summary.B2BCount != 2 || r.Summary.B2CCount != 2 {
		t.Fatalf("summary counts: %+v", r.Summary)
	}
	if r.Summary.TotalRevenue != 9904 {
		t.Fatalf("revenue: got=%v want=9904", r.Summary.TotalRevenue)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	m, _ := ParseMonth("2025-01")
	orders := []*commerce.Order{
		order("a", 123456, true, jan(1)),
		order("b", 99, false, jan(2)),
		order("c", 247600, false, jan(3)),
	}
	first := Generate(orders, m, DefaultGSTRate)
	second := Generate(orders, m, DefaultGSTRate)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reports differ:\n%+v\n%+v", first, second)
	}
}

func TestSummaryUsesGrandTotal(t *testing.T) {
	m, _ := ParseMonth("2025-01")
	orders := []*commerce.Order{
		order("a", 100, false, jan(1)),
		order("b", 100, false, jan(2)),
		order("c", 100, false, jan(3)),
	}
	r := Generate(orders, m, DefaultGSTRate)
	if r.Invoices[0].BaseAmount != 0.85 {
		t.Fatalf("per-invoice base: got=%v want=0.85", r.Invoices[0].BaseAmount)
	}
	if r.Summary.TotalBase != 2.54 || r.Summary.TotalGST != 0.46 {
		t.Fatalf("summary: got base=%v gst=%v want 2.54/0.46", r.Summary.TotalBase, r.Summary.TotalGST)
	}
	sum := InvoiceSum(r.Invoices)
	if sum.TotalBase != 2.55 || sum.TotalGST != 0.45 {
		t.Fatalf("invoice sum: got base=%v gst=%v want 2.55/0.45", sum.TotalBase, sum.TotalGST)
	}
	if sum.TotalRevenue != r.Summary.TotalRevenue {
		t.Fatalf("revenue should agree: %v vs %v", sum.TotalRevenue, r.Summary.TotalRevenue)
	}
}

func TestGenerateEmpty(t *testing.T) {
	m, _ := ParseMonth("2025-01")
	r := Generate(nil, m, DefaultGSTRate)
	if r.Invoices == nil || len(r.Invoices) != 0 || r.Summary.TotalOrders != 0 || r.Summary.TotalBase != 0 {
		t.Fatalf("empty report: %+v", r)
	}
}

func TestPending(t *testing.T) {
	m, _ := ParseMonth("2025-01")
	sent := order("s", 1000, false, jan(1))
	sent.InvoiceSent = true
	r := Generate([]*commerce.Order{sent, order("u", 1000, false, jan(2))}, m, DefaultGSTRate)
	p := r.Pending()
	if len(p) != 1 || p[0].OrderID != "u" || p[0].Number != "INV-B2C-202501-002" {
		t.Fatalf("pending: %+v", p)
	}
}

func TestRender(t *testing.T) {
	rr, err := NewRenderer(Issuer{Name: "Allbound", GSTIN: "29ABCDE1234F1Z5"})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	m, _ := ParseMonth("2025-01")
	o := order("b", 247600, true, jan(9))
	o.CompanyName = "Acme Pvt Ltd"
	o.GSTNumber = "27AAACA1234A1Z1"
	r := Generate([]*commerce.Order{o}, m, DefaultGSTRate)

	raw, err := rr.Render(r.Invoices[0])
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != pageW || b.Dy() != pageH {
		t.Fatalf("bounds: got=%v", b)
	}
	if got := Filename(r.Invoices[0]); got != "INV-B2B-202501-001.png" {
		t.Fatalf("filename: got=%s", got)
	}
}

// Package pricing resolves the list price for a buyer's region, applies
// coupons and adds GST. Every function here is pure; the region a request
// is priced in arrives as an explicit Context.
package pricing

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/allbound-backend/internal/domain/commerce"
)

//go:embed pricing.yaml
var embeddedTable []byte

type Price struct {
	Region        commerce.Region   `json:"region"`
	Currency      commerce.Currency `json:"currency"`
	BasePrice     float64           `json:"base_price"`
	OriginalPrice float64           `json:"original_price"`
	GSTRate       float64           `json:"gst_rate"`
}

type Coupon struct {
	Valid    bool   `json:"valid"`
	Discount int    `json:"discount"`
	Code     string `json:"code"`
}

type Table struct {
	regions map[commerce.Region]Price
	coupons map[string]int
}

type yamlRegion struct {
	Currency      string  `yaml:"currency"`
	BasePrice     float64 `yaml:"base_price"`
	OriginalPrice float64 `yaml:"original_price"`
	GSTRate       float64 `yaml:"gst_rate"`
}

type yamlTable struct {
	Regions map[string]yamlRegion `yaml:"regions"`
	Coupons map[string]int        `yaml:"coupons"`
}

func Load() (*Table, error) {
	return Parse(embeddedTable)
}

// MustLoad panics if the embedded table is invalid.
func MustLoad() *Table {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

func LoadFile(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Load()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing table %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Table, error) {
	var yt yamlTable
	if err := yaml.Unmarshal(raw, &yt); err != nil {
		return nil, fmt.Errorf("parse pricing table: %w", err)
	}
	t := &Table{regions: map[commerce.Region]Price{}, coupons: map[string]int{}}
	for name, yr := range yt.Regions {
		region, ok := commerce.ParseRegion(name)
		if !ok {
			return nil, fmt.Errorf("pricing table: unknown region %q", name)
		}
		cur := commerce.Currency(strings.ToUpper(strings.TrimSpace(yr.Currency)))
		if cur != commerce.CurrencyINR && cur != commerce.CurrencyUSD {
			return nil, fmt.Errorf("pricing table: region %s has unsupported currency %q", region, yr.Currency)
		}
		if yr.BasePrice <= 0 || yr.GSTRate < 0 || yr.GSTRate >= 1 {
			return nil, fmt.Errorf("pricing table: region %s has invalid amounts", region)
		}
		t.regions[region] = Price{
			Region:        region,
			Currency:      cur,
			BasePrice:     yr.BasePrice,
			OriginalPrice: yr.OriginalPrice,
			GSTRate:       yr.GSTRate,
		}
	}
	if _, ok := t.regions[commerce.RegionIndia]; !ok {
		return nil, fmt.Errorf("pricing table: INDIA row required")
	}
	for code, pct := range yt.Coupons {
		norm := normalizeCode(code)
		if norm == "" || pct <= 0 || pct > 100 {
			return nil, fmt.Errorf("pricing table: invalid coupon %q=%d", code, pct)
		}
		t.coupons[norm] = pct
	}
	return t, nil
}

// ResolveBasePrice returns the row for region, or the INDIA row when the
// region has none.
func (t *Table) ResolveBasePrice(region commerce.Region) Price {
	if p, ok := t.regions[region]; ok {
		return p
	}
	p := t.regions[commerce.RegionIndia]
	return p
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCoupon looks up code case-insensitively. Unknown codes are
// reported as invalid with zero discount.
func (t *Table) ValidateCoupon(code string) Coupon {
	norm := normalizeCode(code)
	if pct, ok := t.coupons[norm]; ok && norm != "" {
		return Coupon{Valid: true, Discount: pct, Code: norm}
	}
	return Coupon{Valid: false, Discount: 0, Code: norm}
}

type Breakdown struct {
	Currency        commerce.Currency `json:"currency"`
	BasePrice       float64           `json:"base_price"`
	DiscountPercent int               `json:"discount_percent"`
	DiscountAmount  float64           `json:"discount_amount"`
	DiscountedPrice float64           `json:"discounted_price"`
	GSTRate         float64           `json:"gst_rate"`
	GSTAmount       float64           `json:"gst_amount"`
	Total           float64           `json:"total"`
	// TotalMinor is Total in paise or cents, as the payment gateway wants it.
	TotalMinor int64 `json:"total_minor"`
}

// displayPlaces is how many decimals a currency is priced in.
func displayPlaces(c commerce.Currency) int32 {
	if c == commerce.CurrencyUSD {
		return 2
	}
	return 0
}

// ComputeTotal rounds every step to whole units:
// discount = round(base*pct/100), gst = round((base-discount)*rate).
func ComputeTotal(base float64, discountPercent int, gstRate float64) Breakdown {
	return compute("", base, discountPercent, gstRate, 0)
}

// ComputeTotalIn is ComputeTotal at the precision of currency (whole rupees,
// cents for USD).
func ComputeTotalIn(currency commerce.Currency, base float64, discountPercent int, gstRate float64) Breakdown {
	return compute(currency, base, discountPercent, gstRate, displayPlaces(currency))
}

func compute(currency commerce.Currency, base float64, discountPercent int, gstRate float64, places int32) Breakdown {
	if discountPercent < 0 {
		discountPercent = 0
	}
	if discountPercent > 100 {
		discountPercent = 100
	}
	if gstRate < 0 {
		gstRate = 0
	}
	b := decimal.NewFromFloat(base).Round(places)
	discount := b.Mul(decimal.NewFromInt(int64(discountPercent))).Div(decimal.NewFromInt(100)).Round(places)
	discounted := b.Sub(discount)
	gst := discounted.Mul(decimal.NewFromFloat(gstRate)).Round(places)
	total := discounted.Add(gst)

	return Breakdown{
		Currency:        currency,
		BasePrice:       b.InexactFloat64(),
		DiscountPercent: discountPercent,
		DiscountAmount:  discount.InexactFloat64(),
		DiscountedPrice: discounted.InexactFloat64(),
		GSTRate:         gstRate,
		GSTAmount:       gst.InexactFloat64(),
		Total:           total.InexactFloat64(),
		TotalMinor:      total.Shift(2).Round(0).IntPart(),
	}
}

// Quote is everything the checkout page shows for one region and coupon.
type Quote struct {
	Context       Context   `json:"context"`
	Price         Price     `json:"price"`
	Coupon        *Coupon   `json:"coupon,omitempty"`
	Breakdown     Breakdown `json:"breakdown"`
	InvalidCoupon bool      `json:"invalid_coupon"`
	Notice        string    `json:"notice,omitempty"`
}

const InvalidCouponNotice = "Coupon code is not valid. Continuing at the regular price."

// Quote prices the course for pctx. A blank coupon means none was entered;
// an unknown one sets InvalidCoupon and prices without discount.
func (t *Table) Quote(pctx Context, couponCode string) Quote {
	price := t.ResolveBasePrice(pctx.Region)
	q := Quote{Context: pctx, Price: price}
	discount := 0
	if strings.TrimSpace(couponCode) != "" {
		c := t.ValidateCoupon(couponCode)
		q.Coupon = &c
		if c.Valid {
			discount = c.Discount
		} else {
			q.InvalidCoupon = true
			q.Notice = InvalidCouponNotice
		}
	}
	q.Breakdown = ComputeTotalIn(price.Currency, price.BasePrice, discount, price.GSTRate)
	return q
}

package invoice

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// IST is the zone invoice months are cut in. A fixed offset keeps the
// boundaries stable on hosts without tzdata.
var IST = time.FixedZone("IST", 5*60*60+30*60)

var ErrInvalidMonth = errors.New("month must be formatted YYYY-MM")

// Month is a calendar month in IST.
type Month struct {
	Year  int
	Month time.Month
}

func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation("2006-01", s, IST)
	if err != nil || len(s) != len("2006-01") {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the IST month containing t.
func MonthOf(t time.Time) Month {
	l := t.In(IST)
	return Month{Year: l.Year(), Month: l.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Compact is the YYYYMM form used in invoice numbers.
func (m Month) Compact() string {
	return fmt.Sprintf("%04d%02d", m.Year, int(m.Month))
}

func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, IST)
}

// End is the first instant of the following month.
func (m Month) End() time.Time {
	return m.Start().AddDate(0, 1, 0)
}

func (m Month) Contains(t time.Time) bool {
	return !t.Before(m.Start()) && t.Before(m.End())
}

func (m Month) Previous() Month {
	return MonthOf(m.Start().AddDate(0, -1, 0))
}

func (m Month) IsZero() bool {
	return m.Year == 0
}

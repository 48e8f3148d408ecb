package pricing

import (
	"strings"

	"github.com/yungbote/allbound-backend/internal/domain/commerce"
)

const (
	SourceOverride = "override"
	SourceCountry  = "country"
	SourceDefault  = "default"
)

// Context is the region a request is priced in and where that came from.
// It is resolved once per request and passed down explicitly.
type Context struct {
	Region  commerce.Region `json:"region"`
	Source  string          `json:"source"`
	Country string          `json:"country,omitempty"`
}

func DefaultContext() Context {
	return Context{Region: commerce.RegionIndia, Source: SourceDefault}
}

var saarcCountries = map[string]bool{
	"AF": true, "BD": true, "BT": true, "MV": true, "NP": true, "PK": true, "LK": true,
}

// RegionForCountry maps an ISO 3166 alpha-2 code to a pricing region. An
// empty or placeholder code ("XX", "T1") prices as INDIA.
func RegionForCountry(iso2 string) commerce.Region {
	code := strings.ToUpper(strings.TrimSpace(iso2))
	switch {
	case code == "", code == "XX", code == "T1":
		return commerce.RegionIndia
	case code == "IN":
		return commerce.RegionIndia
	case saarcCountries[code]:
		return commerce.RegionSAARC
	default:
		return commerce.RegionInternational
	}
}

// ResolveContext prefers an explicit region override (the region query
// parameter used for testing), then the CDN country header, then INDIA.
func ResolveContext(override, country string) Context {
	if r, ok := commerce.ParseRegion(override); ok {
		return Context{Region: r, Source: SourceOverride}
	}
	code := strings.ToUpper(strings.TrimSpace(country))
	if code != "" && code != "XX" && code != "T1" {
		return Context{Region: RegionForCountry(code), Source: SourceCountry, Country: code}
	}
	return DefaultContext()
}

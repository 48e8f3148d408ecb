package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/commerce/pricing"
)

const pricingContextKey = "pricing_context"

// Country headers set by the CDN in front of the API, in preference order.
var countryHeaders = []string{"CF-IPCountry", "X-Country-Code"}

// AttachPricingContext resolves the region a request is priced in. The
// region query parameter overrides the country header.
func AttachPricingContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		country := ""
		for _, h := range countryHeaders {
			if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
				country = v
				break
			}
		}
		c.Set(pricingContextKey, pricing.ResolveContext(c.Query("region"), country))
		c.Next()
	}
}

// PricingContext returns the context attached by AttachPricingContext, or
// the default when the middleware did not run.
func PricingContext(c *gin.Context) pricing.Context {
	if v, ok := c.Get(pricingContextKey); ok {
		if pctx, ok := v.(pricing.Context); ok {
			return pctx
		}
	}
	return pricing.DefaultContext()
}

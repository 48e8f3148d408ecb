package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/http/middleware"
	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/services"
)

type PricingHandler struct {
	checkout services.CheckoutService
}

func NewPricingHandler(checkout services.CheckoutService) *PricingHandler {
	return &PricingHandler{checkout: checkout}
}

// GET /api/pricing?coupon=
func (h *PricingHandler) Quote(c *gin.Context) {
	q := h.checkout.Quote(c.Request.Context(), middleware.PricingContext(c), c.Query("coupon"))
	response.RespondOK(c, q)
}

// POST /api/coupons/validate
func (h *PricingHandler) ValidateCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if !bindJSON(c, &req) {
		return
	}
	response.RespondOK(c, h.checkout.ValidateCoupon(c.Request.Context(), req.Code))
}

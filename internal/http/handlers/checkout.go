package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/http/middleware"
	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/services"
)

const maxWebhookBody = 1 << 20

type CheckoutHandler struct {
	log      *logger.Logger
	checkout services.CheckoutService
}

func NewCheckoutHandler(log *logger.Logger, checkout services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{log: log.With("handler", "CheckoutHandler"), checkout: checkout}
}

// POST /api/checkout/order
func (h *CheckoutHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.checkout.CreateOrder(c.Request.Context(), middleware.PricingContext(c), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, order)
}

// POST /api/checkout/verify
func (h *CheckoutHandler) Verify(c *gin.Context) {
	var req services.ConfirmRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.checkout.Confirm(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/webhooks/razorpay
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.checkout.HandleWebhook(c.Request.Context(), body, c.GetHeader("X-Razorpay-Signature"))
	if err != nil {
		h.log.Warn("Webhook rejected", "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

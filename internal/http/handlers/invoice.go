package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/commerce/invoice"
	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/services"
)

type InvoiceHandler struct {
	invoices services.InvoiceService
}

func NewInvoiceHandler(invoices services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

func monthParam(c *gin.Context) (invoice.Month, bool) {
	raw := strings.TrimSpace(c.Query("month"))
	if raw == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_month", errMissingMonth)
		return invoice.Month{}, false
	}
	m, err := invoice.ParseMonth(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_month", err)
		return invoice.Month{}, false
	}
	return m, true
}

// GET /api/admin/invoices?month=YYYY-MM
func (h *InvoiceHandler) Report(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	rep, err := h.invoices.Report(c.Request.Context(), month)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, rep)
}

// POST /api/admin/invoices/send?month=YYYY-MM
func (h *InvoiceHandler) Send(c *gin.Context) {
	month, ok := monthParam(c)
	if !ok {
		return
	}
	res, err := h.invoices.Send(c.Request.Context(), month)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

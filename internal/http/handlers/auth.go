package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/services"
)

type AuthHandler struct {
	log  *logger.Logger
	auth services.AdminAuthService
}

func NewAuthHandler(log *logger.Logger, auth services.AdminAuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), auth: auth}
}

// POST /api/admin/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.AdminLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.log.Warn("Admin login failed", "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, session)
}

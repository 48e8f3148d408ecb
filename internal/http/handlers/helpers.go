package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/platform/ctxutil"
)

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// bindJSON decodes the body and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissingID)
		return "", false
	}
	return id, true
}

// learnerID reads the user set by the learner auth middleware.
func learnerID(c *gin.Context) (string, bool) {
	l := ctxutil.GetLearner(c.Request.Context())
	if l == nil || l.UserID == "" {
		response.AbortError(c, http.StatusUnauthorized, "unauthorized", "not signed in")
		return "", false
	}
	return l.UserID, true
}

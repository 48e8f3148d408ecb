package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/services"
)

type LessonHandler struct {
	svc services.AdminContentService
}

func NewLessonHandler(svc services.AdminContentService) *LessonHandler {
	return &LessonHandler{svc: svc}
}

// GET /api/admin/modules/:id/lessons
func (h *LessonHandler) ListForModule(c *gin.Context) {
	moduleID, ok := pathID(c)
	if !ok {
		return
	}
	lessons, err := h.svc.ListLessons(c.Request.Context(), moduleID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}

// POST /api/admin/modules/:id/lessons
func (h *LessonHandler) Create(c *gin.Context) {
	moduleID, ok := pathID(c)
	if !ok {
		return
	}
	var in services.LessonInput
	if !bindJSON(c, &in) {
		return
	}
	l, err := h.svc.CreateLesson(c.Request.Context(), moduleID, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"lesson": l})
}

// PUT /api/admin/modules/:id/lessons/reorder
func (h *LessonHandler) Reorder(c *gin.Context) {
	moduleID, ok := pathID(c)
	if !ok {
		return
	}
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	lessons, err := h.svc.ReorderLessons(c.Request.Context(), moduleID, req.IDs)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lessons": lessons})
}

// GET /api/admin/lessons/:id
func (h *LessonHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	l, err := h.svc.GetLesson(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": l})
}

// PUT /api/admin/lessons/:id
func (h *LessonHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.LessonPatch
	if !bindJSON(c, &in) {
		return
	}
	l, err := h.svc.UpdateLesson(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": l})
}

// DELETE /api/admin/lessons/:id
func (h *LessonHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteLesson(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/services"
)

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /api/progress
func (h *ProgressHandler) Get(c *gin.Context) {
	userID, ok := learnerID(c)
	if !ok {
		return
	}
	view, err := h.progress.Get(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// PUT /api/progress
func (h *ProgressHandler) Save(c *gin.Context) {
	userID, ok := learnerID(c)
	if !ok {
		return
	}
	var req struct {
		CompletedLessons []string `json:"completed_lessons"`
		CurrentLesson    *string  `json:"current_lesson"`
	}
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.progress.Save(c.Request.Context(), userID, req.CompletedLessons, req.CurrentLesson)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/progress/lessons/:id
func (h *ProgressHandler) Complete(c *gin.Context) {
	h.toggle(c, true)
}

// DELETE /api/progress/lessons/:id
func (h *ProgressHandler) Uncomplete(c *gin.Context) {
	h.toggle(c, false)
}

func (h *ProgressHandler) toggle(c *gin.Context, done bool) {
	userID, ok := learnerID(c)
	if !ok {
		return
	}
	lessonID, ok := pathID(c)
	if !ok {
		return
	}
	var (
		view *services.ProgressView
		err  error
	)
	if done {
		view, err = h.progress.MarkComplete(c.Request.Context(), userID, lessonID)
	} else {
		view, err = h.progress.MarkIncomplete(c.Request.Context(), userID, lessonID)
	}
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

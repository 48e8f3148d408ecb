package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/services"
)

type CourseHandler struct {
	content services.ContentService
}

func NewCourseHandler(content services.ContentService) *CourseHandler {
	return &CourseHandler{content: content}
}

// GET /api/course
func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.content.LearnerCourse(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// GET /api/lessons/:id
func (h *CourseHandler) GetLesson(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.content.Lesson(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// GET /api/resources
func (h *CourseHandler) ResourceLibrary(c *gin.Context) {
	groups, err := h.content.ResourceLibrary(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"groups": groups})
}

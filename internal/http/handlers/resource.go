package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/data/repos"
	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/services"
)

type ResourceHandler struct {
	svc services.AdminContentService
}

func NewResourceHandler(svc services.AdminContentService) *ResourceHandler {
	return &ResourceHandler{svc: svc}
}

func filterFromQuery(c *gin.Context) repos.ResourceFilter {
	global, _ := strconv.ParseBool(c.Query("global"))
	return repos.ResourceFilter{
		LessonID: strings.TrimSpace(c.Query("lesson_id")),
		ModuleID: strings.TrimSpace(c.Query("module_id")),
		Global:   global,
	}
}

// GET /api/admin/resources?lesson_id=|module_id=|global=true
func (h *ResourceHandler) List(c *gin.Context) {
	items, err := h.svc.ListResources(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resources": items})
}

// POST /api/admin/resources
func (h *ResourceHandler) Create(c *gin.Context) {
	var in services.ResourceInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.CreateResource(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"resource": r})
}

// PUT /api/admin/resources/reorder
func (h *ResourceHandler) Reorder(c *gin.Context) {
	var req struct {
		LessonID string   `json:"lesson_id"`
		ModuleID string   `json:"module_id"`
		Global   bool     `json:"global"`
		IDs      []string `json:"ids"`
	}
	if !bindJSON(c, &req) {
		return
	}
	filter := repos.ResourceFilter{
		LessonID: strings.TrimSpace(req.LessonID),
		ModuleID: strings.TrimSpace(req.ModuleID),
		Global:   req.Global,
	}
	items, err := h.svc.ReorderResources(c.Request.Context(), filter, req.IDs)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resources": items})
}

// GET /api/admin/resources/:id
func (h *ResourceHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	r, err := h.svc.GetResource(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resource": r})
}

// PUT /api/admin/resources/:id
func (h *ResourceHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.ResourcePatch
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.UpdateResource(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"resource": r})
}

// DELETE /api/admin/resources/:id
func (h *ResourceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteResource(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

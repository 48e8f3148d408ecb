package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/services"
)

type ModuleHandler struct {
	svc services.AdminContentService
}

func NewModuleHandler(svc services.AdminContentService) *ModuleHandler {
	return &ModuleHandler{svc: svc}
}

// GET /api/admin/modules
func (h *ModuleHandler) List(c *gin.Context) {
	modules, err := h.svc.ListModules(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"modules": modules})
}

// GET /api/admin/modules/:id
func (h *ModuleHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.svc.GetModule(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"module": m})
}

// POST /api/admin/modules
func (h *ModuleHandler) Create(c *gin.Context) {
	var in services.ModuleInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.CreateModule(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"module": m})
}

// PUT /api/admin/modules/:id
func (h *ModuleHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.ModulePatch
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.svc.UpdateModule(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"module": m})
}

// DELETE /api/admin/modules/:id
func (h *ModuleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteModule(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PUT /api/admin/modules/reorder
func (h *ModuleHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	modules, err := h.svc.ReorderModules(c.Request.Context(), req.IDs)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"modules": modules})
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/allbound-backend/internal/http/response"
	"github.com/yungbote/allbound-backend/internal/platform/logger"
	"github.com/yungbote/allbound-backend/internal/services"
)

type MemberHandler struct {
	log     *logger.Logger
	members services.MemberService
}

func NewMemberHandler(log *logger.Logger, members services.MemberService) *MemberHandler {
	return &MemberHandler{log: log.With("handler", "MemberHandler"), members: members}
}

// GET /api/admin/members
func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.members.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"members": members})
}

// GET /api/admin/members/:id
func (h *MemberHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.members.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"member": m})
}

// POST /api/admin/members
// The member row is the primary write; failed side effects are listed in
// side_effects with the 201.
func (h *MemberHandler) Create(c *gin.Context) {
	var in services.MemberInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.members.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// PUT /api/admin/members/:id
func (h *MemberHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in services.MemberUpdate
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.members.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// DELETE /api/admin/members/:id
func (h *MemberHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	out, err := h.members.Delete(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true, "side_effects": out.Effects})
}

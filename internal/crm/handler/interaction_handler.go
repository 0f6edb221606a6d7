package handler

import (
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// InteractionHandler 互动记录处理器
type InteractionHandler struct {
	svc *service.InteractionService
}

// NewInteractionHandler 创建互动记录处理器
func NewInteractionHandler(svc *service.InteractionService) *InteractionHandler {
	return &InteractionHandler{svc: svc}
}

// List 获取互动记录列表
// GET /api/v1/interactions
func (h *InteractionHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"type":       c.Query("type"),
		"deal_id":    c.Query("deal_id"),
		"company_id": c.Query("company_id"),
		"contact_id": c.Query("contact_id"),
		"author_id":  c.Query("author_id"),
		"keyword":    c.Query("keyword"),
		"ordering":   c.Query("ordering"),
	}

	interactions, total, err := h.svc.List(c.Request.Context(), CurrentActor(c), page, pageSize, filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, ListResponse{Items: interactions, Pagination: NewPagination(page, pageSize, total)})
}

// Get 获取互动记录详情
// GET /api/v1/interactions/:id
func (h *InteractionHandler) Get(c *gin.Context) {
	interaction, err := h.svc.Get(c.Request.Context(), CurrentActor(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, interaction)
}

// Create 创建互动记录
// POST /api/v1/interactions
func (h *InteractionHandler) Create(c *gin.Context) {
	var req service.CreateInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	interaction, err := h.svc.Create(c.Request.Context(), CurrentActor(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, interaction)
}

// Update 更新互动记录
// PATCH /api/v1/interactions/:id
func (h *InteractionHandler) Update(c *gin.Context) {
	var req service.UpdateInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	interaction, err := h.svc.Update(c.Request.Context(), CurrentActor(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, interaction)
}

// Delete 删除互动记录
// DELETE /api/v1/interactions/:id
func (h *InteractionHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentActor(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

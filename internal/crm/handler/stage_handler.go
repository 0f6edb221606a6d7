package handler

import (
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// StageHandler 管线阶段处理器
type StageHandler struct {
	svc *service.StageService
}

// NewStageHandler 创建管线阶段处理器
func NewStageHandler(svc *service.StageService) *StageHandler {
	return &StageHandler{svc: svc}
}

// List 获取按顺序排列的阶段列表
// GET /api/v1/stages
func (h *StageHandler) List(c *gin.Context) {
	stages, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": stages})
}

// Get 获取阶段详情
// GET /api/v1/stages/:id
func (h *StageHandler) Get(c *gin.Context) {
	stage, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, stage)
}

// Create 创建阶段
// POST /api/v1/stages
func (h *StageHandler) Create(c *gin.Context) {
	var req service.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	stage, err := h.svc.Create(c.Request.Context(), CurrentActor(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, stage)
}

// Update 更新阶段
// PATCH /api/v1/stages/:id
func (h *StageHandler) Update(c *gin.Context) {
	var req service.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	stage, err := h.svc.Update(c.Request.Context(), CurrentActor(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, stage)
}

// Delete 删除阶段，被交易引用时返回冲突
// DELETE /api/v1/stages/:id
func (h *StageHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentActor(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

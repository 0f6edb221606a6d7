package handler

import (
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// NDAHandler 保密协议处理器
type NDAHandler struct {
	svc *service.NDAService
}

// NewNDAHandler 创建保密协议处理器
func NewNDAHandler(svc *service.NDAService) *NDAHandler {
	return &NDAHandler{svc: svc}
}

// List 获取保密协议列表
// GET /api/v1/ndas
func (h *NDAHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"deal_id":      c.Query("deal_id"),
		"status":       c.Query("status"),
		"counterparty": c.Query("counterparty"),
	}

	ndas, total, err := h.svc.List(c.Request.Context(), CurrentActor(c), page, pageSize, filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, ListResponse{Items: ndas, Pagination: NewPagination(page, pageSize, total)})
}

// Get 获取保密协议详情
// GET /api/v1/ndas/:id
func (h *NDAHandler) Get(c *gin.Context) {
	nda, err := h.svc.Get(c.Request.Context(), CurrentActor(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nda)
}

// Create 创建保密协议
// POST /api/v1/ndas
func (h *NDAHandler) Create(c *gin.Context) {
	var req service.CreateNDARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	nda, err := h.svc.Create(c.Request.Context(), CurrentActor(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, nda)
}

// Update 更新保密协议
// PATCH /api/v1/ndas/:id
func (h *NDAHandler) Update(c *gin.Context) {
	var req service.UpdateNDARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	nda, err := h.svc.Update(c.Request.Context(), CurrentActor(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nda)
}

// Delete 删除保密协议
// DELETE /api/v1/ndas/:id
func (h *NDAHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentActor(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

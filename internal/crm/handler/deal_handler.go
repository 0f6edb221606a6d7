package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// DealHandler 交易处理器
type DealHandler struct {
	svc *service.DealService
}

// NewDealHandler 创建交易处理器
func NewDealHandler(svc *service.DealService) *DealHandler {
	return &DealHandler{svc: svc}
}

func dealFilters(c *gin.Context) map[string]interface{} {
	return map[string]interface{}{
		"stage_id":   c.Query("stage_id"),
		"owner_id":   c.Query("owner_id"),
		"company_id": c.Query("company_id"),
		"keyword":    c.Query("keyword"),
		"ordering":   c.Query("ordering"),
	}
}

// List 获取交易列表
// GET /api/v1/deals
func (h *DealHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	result, err := h.svc.List(c.Request.Context(), CurrentActor(c), page, pageSize, dealFilters(c))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, result)
}

// Get 获取交易详情
// GET /api/v1/deals/:id
func (h *DealHandler) Get(c *gin.Context) {
	deal, err := h.svc.Get(c.Request.Context(), CurrentActor(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, deal)
}

// Create 创建交易
// POST /api/v1/deals
func (h *DealHandler) Create(c *gin.Context) {
	var req service.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	deal, err := h.svc.Create(c.Request.Context(), CurrentActor(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, deal)
}

// Update 更新交易
// PATCH /api/v1/deals/:id
func (h *DealHandler) Update(c *gin.Context) {
	var req service.UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	deal, err := h.svc.Update(c.Request.Context(), CurrentActor(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, deal)
}

// Delete 删除交易
// DELETE /api/v1/deals/:id
func (h *DealHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentActor(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// MoveStageRequest 移动阶段请求
type MoveStageRequest struct {
	StageID           string `json:"stage_id" binding:"required"`
	UpdateProbability bool   `json:"update_probability"`
}

// MoveStage 把交易移动到新阶段
// PATCH /api/v1/deals/:id/move_stage
func (h *DealHandler) MoveStage(c *gin.Context) {
	var req MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "stage_id is required")
		return
	}

	deal, err := h.svc.MoveStage(c.Request.Context(), CurrentActor(c), c.Param("id"), req.StageID, req.UpdateProbability)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, deal)
}

// Kanban 按阶段分组的看板视图
// GET /api/v1/deals/kanban
func (h *DealHandler) Kanban(c *gin.Context) {
	columns, err := h.svc.Kanban(c.Request.Context(), CurrentActor(c), dealFilters(c))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"columns": columns})
}

// Export 导出管线为 xlsx
// GET /api/v1/deals/export
func (h *DealHandler) Export(c *gin.Context) {
	data, err := h.svc.ExportExcel(c.Request.Context(), CurrentActor(c), dealFilters(c))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	filename := fmt.Sprintf("pipeline_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

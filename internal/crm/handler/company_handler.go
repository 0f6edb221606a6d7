package handler

import (
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// CompanyHandler 公司处理器
type CompanyHandler struct {
	svc *service.CompanyService
}

// NewCompanyHandler 创建公司处理器
func NewCompanyHandler(svc *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// List 获取公司列表
// GET /api/v1/companies
func (h *CompanyHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"country": c.Query("country"),
		"sector":  c.Query("sector"),
		"size":    c.Query("size"),
		"keyword": c.Query("keyword"),
	}

	companies, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, ListResponse{Items: companies, Pagination: NewPagination(page, pageSize, total)})
}

// Get 获取公司详情
// GET /api/v1/companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, company)
}

// Create 创建公司
// POST /api/v1/companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var req service.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	company, err := h.svc.Create(c.Request.Context(), CurrentActor(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, company)
}

// Update 更新公司
// PATCH /api/v1/companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	var req service.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	company, err := h.svc.Update(c.Request.Context(), CurrentActor(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, company)
}

// Delete 删除公司及其联系人与交易
// DELETE /api/v1/companies/:id
func (h *CompanyHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentActor(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

package handler

import (
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// ContactHandler 联系人处理器
type ContactHandler struct {
	svc *service.ContactService
}

// NewContactHandler 创建联系人处理器
func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

// List 获取联系人列表
// GET /api/v1/contacts
func (h *ContactHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"company_id": c.Query("company_id"),
		"seniority":  c.Query("seniority"),
		"keyword":    c.Query("keyword"),
	}

	contacts, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, ListResponse{Items: contacts, Pagination: NewPagination(page, pageSize, total)})
}

// Get 获取联系人详情
// GET /api/v1/contacts/:id
func (h *ContactHandler) Get(c *gin.Context) {
	contact, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, contact)
}

// Create 创建联系人
// POST /api/v1/contacts
func (h *ContactHandler) Create(c *gin.Context) {
	var req service.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	contact, err := h.svc.Create(c.Request.Context(), CurrentActor(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, contact)
}

// Update 更新联系人
// PATCH /api/v1/contacts/:id
func (h *ContactHandler) Update(c *gin.Context) {
	var req service.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	contact, err := h.svc.Update(c.Request.Context(), CurrentActor(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, contact)
}

// Delete 删除联系人
// DELETE /api/v1/contacts/:id
func (h *ContactHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentActor(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

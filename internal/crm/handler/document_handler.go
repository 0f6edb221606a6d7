package handler

import (
	"fmt"
	"io"

	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// DocumentHandler 文档处理器
type DocumentHandler struct {
	svc *service.DocumentService
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// List 获取文档列表
// GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]interface{}{
		"deal_id":     c.Query("deal_id"),
		"uploaded_by": c.Query("uploaded_by"),
		"keyword":     c.Query("keyword"),
	}

	docs, total, err := h.svc.List(c.Request.Context(), CurrentActor(c), page, pageSize, filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, ListResponse{Items: docs, Pagination: NewPagination(page, pageSize, total)})
}

// Get 获取文档详情
// GET /api/v1/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), CurrentActor(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, doc)
}

// Upload 上传文件，multipart 表单，file 字段必填，deal_id 可选
// POST /api/v1/documents/upload
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}

	var dealID *string
	if v := c.PostForm("deal_id"); v != "" {
		dealID = &v
	}

	f, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "open upload: "+err.Error())
		return
	}
	defer f.Close()

	doc, err := h.svc.Upload(c.Request.Context(), CurrentActor(c), dealID, fileHeader.Filename, f)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, doc)
}

// Download 下载文档内容
// GET /api/v1/documents/:id/download
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, body, err := h.svc.Download(c.Request.Context(), CurrentActor(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	c.Header("Content-Type", doc.ContentType)
	c.Status(200)
	_, _ = io.Copy(c.Writer, body)
}

// Delete 删除文档
// DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentActor(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/dealflow/internal/config"
	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Auth        *AuthHandler
	User        *UserHandler
	Company     *CompanyHandler
	Contact     *ContactHandler
	Stage       *StageHandler
	Deal        *DealHandler
	Task        *TaskHandler
	Interaction *InteractionHandler
	Document    *DocumentHandler
	NDA         *NDAHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:        NewAuthHandler(svc.Auth),
		User:        NewUserHandler(svc.User),
		Company:     NewCompanyHandler(svc.Company),
		Contact:     NewContactHandler(svc.Contact),
		Stage:       NewStageHandler(svc.Stage),
		Deal:        NewDealHandler(svc.Deal),
		Task:        NewTaskHandler(svc.Task),
		Interaction: NewInteractionHandler(svc.Interaction),
		Document:    NewDocumentHandler(svc.Document),
		NDA:         NewNDAHandler(svc.NDA),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// NewPagination 计算分页信息
func NewPagination(page, pageSize int, total int64) *Pagination {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 资源冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondError 把业务错误映射为统一的错误响应
func RespondError(c *gin.Context, err error) {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		BadRequest(c, ve.Error())
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "resource not found")
	case errors.Is(err, repository.ErrStageInUse):
		Conflict(c, "stage is referenced by existing deals")
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, "operation not allowed for this role")
	default:
		InternalError(c, err.Error())
	}
}

// CurrentActor 从上下文获取当前用户身份
func CurrentActor(c *gin.Context) policy.Actor {
	actor := policy.Actor{}
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(string); ok {
			actor.ID = id
		}
	}
	if v, ok := c.Get("user_role"); ok {
		if role, ok := v.(string); ok {
			actor.Role = role
		}
	}
	return actor
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

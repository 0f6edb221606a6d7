package handler

import (
	"errors"

	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest 刷新令牌请求
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Login 登录
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, tokens, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			Unauthorized(c, "invalid email or password")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Refresh 刷新访问令牌
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		Unauthorized(c, "invalid refresh token")
		return
	}

	Success(c, tokens)
}

// Logout 登出
// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	actor := CurrentActor(c)
	if err := h.svc.Logout(c.Request.Context(), actor.ID); err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, nil)
}

// Me 获取当前用户信息
// GET /api/v1/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor := CurrentActor(c)
	user, err := h.svc.GetCurrentUser(c.Request.Context(), actor.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, user)
}

package handler

import (
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/gin-gonic/gin"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	svc *service.TaskService
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func taskFilters(c *gin.Context) map[string]interface{} {
	return map[string]interface{}{
		"status":      c.Query("status"),
		"assignee_id": c.Query("assignee_id"),
		"deal_id":     c.Query("deal_id"),
		"keyword":     c.Query("keyword"),
		"ordering":    c.Query("ordering"),
	}
}

// List 获取任务列表
// GET /api/v1/tasks
func (h *TaskHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	tasks, total, err := h.svc.List(c.Request.Context(), CurrentActor(c), page, pageSize, taskFilters(c))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, ListResponse{Items: tasks, Pagination: NewPagination(page, pageSize, total)})
}

// MyTasks 获取当前用户名下的任务
// GET /api/v1/tasks/my_tasks
func (h *TaskHandler) MyTasks(c *gin.Context) {
	page, pageSize := GetPagination(c)

	tasks, total, err := h.svc.MyTasks(c.Request.Context(), CurrentActor(c), page, pageSize, taskFilters(c))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, ListResponse{Items: tasks, Pagination: NewPagination(page, pageSize, total)})
}

// Get 获取任务详情
// GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.svc.Get(c.Request.Context(), CurrentActor(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}

// Create 创建任务
// POST /api/v1/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	task, err := h.svc.Create(c.Request.Context(), CurrentActor(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, task)
}

// Update 更新任务
// PATCH /api/v1/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req service.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	task, err := h.svc.Update(c.Request.Context(), CurrentActor(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, task)
}

// Delete 删除任务
// DELETE /api/v1/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), CurrentActor(c), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/policy"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
)

// TaskService 任务服务
type TaskService struct {
	repo     *repository.TaskRepository
	dealRepo *repository.DealRepository
	userRepo *repository.UserRepository
}

// NewTaskService 创建任务服务
func NewTaskService(repo *repository.TaskRepository, dealRepo *repository.DealRepository, userRepo *repository.UserRepository) *TaskService {
	return &TaskService{repo: repo, dealRepo: dealRepo, userRepo: userRepo}
}

// CreateTaskRequest 创建任务请求
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	DealID      *string    `json:"deal_id"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Status      string     `json:"status"`
	AssigneeID  string     `json:"assignee_id"`
}

// UpdateTaskRequest 更新任务请求
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	DealID      *string    `json:"deal_id"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Status      *string    `json:"status"`
	AssigneeID  *string    `json:"assignee_id"`
}

func validTaskStatus(status string) bool {
	switch status {
	case entity.TaskStatusTodo, entity.TaskStatusDoing, entity.TaskStatusDone:
		return true
	}
	return false
}

// List 在可见范围内分页获取任务
func (s *TaskService) List(ctx context.Context, actor policy.Actor, page, pageSize int, filters map[string]interface{}) ([]entity.Task, int64, error) {
	tasks, total, err := s.repo.List(ctx, page, pageSize, filters, policy.Scope(actor, policy.ResourceTask))
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	now := time.Now()
	for i := range tasks {
		tasks[i].Decorate(now)
	}
	return tasks, total, nil
}

// MyTasks 当前用户名下的任务
func (s *TaskService) MyTasks(ctx context.Context, actor policy.Actor, page, pageSize int, filters map[string]interface{}) ([]entity.Task, int64, error) {
	if filters == nil {
		filters = map[string]interface{}{}
	}
	filters["assignee_id"] = actor.ID
	return s.List(ctx, actor, page, pageSize, filters)
}

// Get 在可见范围内获取任务详情
func (s *TaskService) Get(ctx context.Context, actor policy.Actor, id string) (*entity.Task, error) {
	task, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceTask))
	if err != nil {
		return nil, err
	}
	task.Decorate(time.Now())
	return task, nil
}

// Create 创建任务，执行人缺省为当前用户
func (s *TaskService) Create(ctx context.Context, actor policy.Actor, req *CreateTaskRequest) (*entity.Task, error) {
	if !policy.CanMutate(actor, policy.ResourceTask) {
		return nil, ErrForbidden
	}

	if req.DealID != nil && *req.DealID != "" {
		if _, err := s.dealRepo.FindByID(ctx, *req.DealID, policy.Scope(actor, policy.ResourceDeal)); err != nil {
			if err == repository.ErrNotFound {
				return nil, &entity.ValidationError{Field: "deal_id", Message: "deal does not exist"}
			}
			return nil, err
		}
	}

	assigneeID := req.AssigneeID
	if assigneeID == "" {
		assigneeID = actor.ID
	} else if _, err := s.userRepo.FindByID(ctx, assigneeID); err != nil {
		if err == repository.ErrNotFound {
			return nil, &entity.ValidationError{Field: "assignee_id", Message: "assignee does not exist"}
		}
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = entity.TaskStatusTodo
	}
	if !validTaskStatus(status) {
		return nil, &entity.ValidationError{Field: "status", Message: "status must be todo, doing or done"}
	}

	dealID := req.DealID
	if dealID != nil && *dealID == "" {
		dealID = nil
	}

	now := time.Now()
	task := &entity.Task{
		ID:          newID(),
		DealID:      dealID,
		Title:       req.Title,
		Description: req.Description,
		DueAt:       req.DueAt,
		Status:      status,
		AssigneeID:  assigneeID,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return s.Get(ctx, actor, task.ID)
}

// Update 更新任务字段
func (s *TaskService) Update(ctx context.Context, actor policy.Actor, id string, req *UpdateTaskRequest) (*entity.Task, error) {
	task, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceTask))
	if err != nil {
		return nil, err
	}
	if !policy.CanMutate(actor, policy.ResourceTask) {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.DealID != nil {
		if *req.DealID == "" {
			task.DealID = nil
		} else {
			if _, err := s.dealRepo.FindByID(ctx, *req.DealID, policy.Scope(actor, policy.ResourceDeal)); err != nil {
				if err == repository.ErrNotFound {
					return nil, &entity.ValidationError{Field: "deal_id", Message: "deal does not exist"}
				}
				return nil, err
			}
			task.DealID = req.DealID
		}
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.DueAt != nil {
		task.DueAt = req.DueAt
	}
	if req.Status != nil {
		if !validTaskStatus(*req.Status) {
			return nil, &entity.ValidationError{Field: "status", Message: "status must be todo, doing or done"}
		}
		task.Status = *req.Status
	}
	if req.AssigneeID != nil {
		if _, err := s.userRepo.FindByID(ctx, *req.AssigneeID); err != nil {
			if err == repository.ErrNotFound {
				return nil, &entity.ValidationError{Field: "assignee_id", Message: "assignee does not exist"}
			}
			return nil, err
		}
		task.AssigneeID = *req.AssigneeID
	}
	task.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.Get(ctx, actor, id)
}

// Delete 删除任务
func (s *TaskService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	if _, err := s.repo.FindByID(ctx, id, policy.Scope(actor, policy.ResourceTask)); err != nil {
		return err
	}
	if !policy.CanMutate(actor, policy.ResourceTask) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

package repository

import (
	"context"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"gorm.io/gorm"
)

// TaskRepository 任务仓库
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务仓库
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindByID 在可见范围内根据ID查找任务
func (r *TaskRepository) FindByID(ctx context.Context, id string, scope Scope) (*entity.Task, error) {
	var task entity.Task
	err := r.db.WithContext(ctx).
		Preload("Deal").
		Preload("Assignee").
		Preload("Creator").
		Scopes(scope).
		Where("tasks.id = ?", id).
		First(&task).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &task, nil
}

// Create 创建任务
func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update 更新任务
func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) error {
	return r.db.WithContext(ctx).Omit("Deal", "Assignee", "Creator").Save(task).Error
}

// Delete 删除任务
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Task{}).Error
}

// List 在可见范围内分页获取任务列表
func (r *TaskRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}, scope Scope) ([]entity.Task, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Task{}).Scopes(scope)

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("tasks.status = ?", status)
	}
	if assigneeID, ok := filters["assignee_id"].(string); ok && assigneeID != "" {
		query = query.Where("tasks.assignee_id = ?", assigneeID)
	}
	if dealID, ok := filters["deal_id"].(string); ok && dealID != "" {
		query = query.Where("tasks.deal_id = ?", dealID)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("tasks.title LIKE ? OR tasks.description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ordering, _ := filters["ordering"].(string)
	var tasks []entity.Task
	err := query.
		Preload("Deal").
		Preload("Assignee").
		Preload("Creator").
		Scopes(orderBy(ordering, "tasks.due_at ASC, tasks.created_at DESC", map[string]string{
			"title":      "tasks.title",
			"due_at":     "tasks.due_at",
			"created_at": "tasks.created_at",
		})).
		Scopes(paginate(page, pageSize)).
		Find(&tasks).Error

	return tasks, total, err
}

package repository

import (
	"context"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"gorm.io/gorm"
)

// InteractionRepository 互动记录仓库
type InteractionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository 创建互动记录仓库
func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// FindByID 在可见范围内根据ID查找互动记录
func (r *InteractionRepository) FindByID(ctx context.Context, id string, scope Scope) (*entity.Interaction, error) {
	var interaction entity.Interaction
	err := r.db.WithContext(ctx).
		Preload("Deal").
		Preload("Company").
		Preload("Contact").
		Preload("Author").
		Scopes(scope).
		Where("interactions.id = ?", id).
		First(&interaction).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &interaction, nil
}

// Create 创建互动记录
func (r *InteractionRepository) Create(ctx context.Context, interaction *entity.Interaction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}

// Update 更新互动记录
func (r *InteractionRepository) Update(ctx context.Context, interaction *entity.Interaction) error {
	return r.db.WithContext(ctx).
		Omit("Deal", "Company", "Contact", "Author").
		Save(interaction).Error
}

// Delete 删除互动记录
func (r *InteractionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Interaction{}).Error
}

// List 在可见范围内分页获取互动记录
func (r *InteractionRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}, scope Scope) ([]entity.Interaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Interaction{}).Scopes(scope)

	if typ, ok := filters["type"].(string); ok && typ != "" {
		query = query.Where("interactions.type = ?", typ)
	}
	if dealID, ok := filters["deal_id"].(string); ok && dealID != "" {
		query = query.Where("interactions.deal_id = ?", dealID)
	}
	if companyID, ok := filters["company_id"].(string); ok && companyID != "" {
		query = query.Where("interactions.company_id = ?", companyID)
	}
	if contactID, ok := filters["contact_id"].(string); ok && contactID != "" {
		query = query.Where("interactions.contact_id = ?", contactID)
	}
	if authorID, ok := filters["author_id"].(string); ok && authorID != "" {
		query = query.Where("interactions.author_id = ?", authorID)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("interactions.subject LIKE ? OR interactions.body LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ordering, _ := filters["ordering"].(string)
	var interactions []entity.Interaction
	err := query.
		Preload("Deal").
		Preload("Company").
		Preload("Contact").
		Preload("Author").
		Scopes(orderBy(ordering, "interactions.occurred_at DESC", map[string]string{
			"subject":     "interactions.subject",
			"occurred_at": "interactions.occurred_at",
			"created_at":  "interactions.created_at",
		})).
		Scopes(paginate(page, pageSize)).
		Find(&interactions).Error

	return interactions, total, err
}

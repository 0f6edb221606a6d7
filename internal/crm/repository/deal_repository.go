package repository

import (
	"context"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"gorm.io/gorm"
)

// DealRepository 交易仓库
type DealRepository struct {
	db *gorm.DB
}

// NewDealRepository 创建交易仓库
func NewDealRepository(db *gorm.DB) *DealRepository {
	return &DealRepository{db: db}
}

// Scope 可见性 scope，由 policy 提供
type Scope = func(*gorm.DB) *gorm.DB

// FindByID 在可见范围内根据ID查找交易
func (r *DealRepository) FindByID(ctx context.Context, id string, scope Scope) (*entity.Deal, error) {
	var deal entity.Deal
	err := r.db.WithContext(ctx).
		Preload("Company").
		Preload("Owner").
		Preload("Stage").
		Scopes(scope).
		Where("deals.id = ?", id).
		First(&deal).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &deal, nil
}

// Create 创建交易
func (r *DealRepository) Create(ctx context.Context, deal *entity.Deal) error {
	return r.db.WithContext(ctx).Create(deal).Error
}

// Update 更新交易
func (r *DealRepository) Update(ctx context.Context, deal *entity.Deal) error {
	return r.db.WithContext(ctx).Omit("Company", "Owner", "Stage").Save(deal).Error
}

// Delete 删除交易
func (r *DealRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Deal{}).Error
}

// List 在可见范围内分页获取交易列表
func (r *DealRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}, scope Scope) ([]entity.Deal, int64, error) {
	query := r.applyFilters(r.db.WithContext(ctx).Model(&entity.Deal{}).Scopes(scope), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ordering, _ := filters["ordering"].(string)
	var deals []entity.Deal
	err := query.
		Preload("Company").
		Preload("Owner").
		Preload("Stage").
		Scopes(orderBy(ordering, "deals.created_at DESC", map[string]string{
			"title":           "deals.title",
			"amount_estimate": "deals.amount_estimate",
			"probability":     "deals.probability",
			"next_action_at":  "deals.next_action_at",
			"created_at":      "deals.created_at",
		})).
		Scopes(paginate(page, pageSize)).
		Find(&deals).Error

	return deals, total, err
}

// ListAll 在可见范围内获取全部匹配交易（看板与导出用，不分页）
func (r *DealRepository) ListAll(ctx context.Context, filters map[string]interface{}, scope Scope) ([]entity.Deal, error) {
	var deals []entity.Deal
	err := r.applyFilters(r.db.WithContext(ctx).Model(&entity.Deal{}).Scopes(scope), filters).
		Preload("Company").
		Preload("Owner").
		Preload("Stage").
		Order("deals.created_at DESC").
		Find(&deals).Error
	return deals, err
}

func (r *DealRepository) applyFilters(query *gorm.DB, filters map[string]interface{}) *gorm.DB {
	if stageID, ok := filters["stage_id"].(string); ok && stageID != "" {
		query = query.Where("deals.stage_id = ?", stageID)
	}
	if ownerID, ok := filters["owner_id"].(string); ok && ownerID != "" {
		query = query.Where("deals.owner_id = ?", ownerID)
	}
	if companyID, ok := filters["company_id"].(string); ok && companyID != "" {
		query = query.Where("deals.company_id = ?", companyID)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		like := "%" + keyword + "%"
		query = query.
			Joins("LEFT JOIN companies ON companies.id = deals.company_id").
			Where("deals.title LIKE ? OR companies.name LIKE ? OR deals.description LIKE ?", like, like, like)
	}
	return query
}

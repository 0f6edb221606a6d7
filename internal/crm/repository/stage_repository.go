package repository

import (
	"context"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"gorm.io/gorm"
)

// StageRepository 阶段仓库
type StageRepository struct {
	db *gorm.DB
}

// NewStageRepository 创建阶段仓库
func NewStageRepository(db *gorm.DB) *StageRepository {
	return &StageRepository{db: db}
}

// FindByID 根据ID查找阶段
func (r *StageRepository) FindByID(ctx context.Context, id string) (*entity.Stage, error) {
	var stage entity.Stage
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&stage).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &stage, nil
}

// ListOrdered 按管线顺序获取全部阶段
func (r *StageRepository) ListOrdered(ctx context.Context) ([]entity.Stage, error) {
	var stages []entity.Stage
	err := r.db.WithContext(ctx).Order("sort_order ASC").Find(&stages).Error
	return stages, err
}

// Create 创建阶段
func (r *StageRepository) Create(ctx context.Context, stage *entity.Stage) error {
	return r.db.WithContext(ctx).Create(stage).Error
}

// Update 更新阶段
func (r *StageRepository) Update(ctx context.Context, stage *entity.Stage) error {
	return r.db.WithContext(ctx).Save(stage).Error
}

// Delete 删除阶段。仍被交易引用的阶段拒绝删除。
func (r *StageRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.Deal{}).Where("stage_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrStageInUse
		}
		result := tx.Where("id = ?", id).Delete(&entity.Stage{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CountDeals 统计引用该阶段的交易数
func (r *StageRepository) CountDeals(ctx context.Context, stageID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Deal{}).Where("stage_id = ?", stageID).Count(&count).Error
	return count, err
}

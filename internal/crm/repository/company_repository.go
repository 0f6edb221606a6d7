package repository

import (
	"context"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"gorm.io/gorm"
)

// CompanyRepository 公司仓库
type CompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository 创建公司仓库
func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// FindByID 根据ID查找公司
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*entity.Company, error) {
	var company entity.Company
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &company, nil
}

// Create 创建公司
func (r *CompanyRepository) Create(ctx context.Context, company *entity.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// Update 更新公司
func (r *CompanyRepository) Update(ctx context.Context, company *entity.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

// Delete 删除公司，联系人与交易级联删除
func (r *CompanyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ?", id).Delete(&entity.Contact{}).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", id).Delete(&entity.Deal{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Company{}).Error
	})
}

// List 分页获取公司列表
func (r *CompanyRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Company, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Company{})

	if country, ok := filters["country"].(string); ok && country != "" {
		query = query.Where("country = ?", country)
	}
	if sector, ok := filters["sector"].(string); ok && sector != "" {
		query = query.Where("sector = ?", sector)
	}
	if size, ok := filters["size"].(string); ok && size != "" {
		query = query.Where("size = ?", size)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("name LIKE ? OR legal_id LIKE ? OR sector LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ordering, _ := filters["ordering"].(string)
	var companies []entity.Company
	err := query.
		Scopes(orderBy(ordering, "name ASC", map[string]string{
			"name":       "name",
			"created_at": "created_at",
			"updated_at": "updated_at",
		})).
		Scopes(paginate(page, pageSize)).
		Find(&companies).Error

	return companies, total, err
}

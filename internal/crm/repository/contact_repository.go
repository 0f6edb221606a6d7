package repository

import (
	"context"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"gorm.io/gorm"
)

// ContactRepository 联系人仓库
type ContactRepository struct {
	db *gorm.DB
}

// NewContactRepository 创建联系人仓库
func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// FindByID 根据ID查找联系人
func (r *ContactRepository) FindByID(ctx context.Context, id string) (*entity.Contact, error) {
	var contact entity.Contact
	err := r.db.WithContext(ctx).
		Preload("Company").
		Where("id = ?", id).
		First(&contact).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &contact, nil
}

// Create 创建联系人
func (r *ContactRepository) Create(ctx context.Context, contact *entity.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

// Update 更新联系人
func (r *ContactRepository) Update(ctx context.Context, contact *entity.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

// Delete 删除联系人
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Contact{}).Error
}

// List 分页获取联系人列表
func (r *ContactRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}) ([]entity.Contact, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Contact{})

	if companyID, ok := filters["company_id"].(string); ok && companyID != "" {
		query = query.Where("contacts.company_id = ?", companyID)
	}
	if seniority, ok := filters["seniority"].(string); ok && seniority != "" {
		query = query.Where("contacts.seniority = ?", seniority)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		like := "%" + keyword + "%"
		query = query.
			Joins("LEFT JOIN companies ON companies.id = contacts.company_id").
			Where("contacts.first_name LIKE ? OR contacts.last_name LIKE ? OR contacts.email LIKE ? OR companies.name LIKE ?",
				like, like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ordering, _ := filters["ordering"].(string)
	var contacts []entity.Contact
	err := query.
		Preload("Company").
		Scopes(orderBy(ordering, "last_name ASC, first_name ASC", map[string]string{
			"first_name": "contacts.first_name",
			"last_name":  "contacts.last_name",
			"created_at": "contacts.created_at",
			"updated_at": "contacts.updated_at",
		})).
		Scopes(paginate(page, pageSize)).
		Find(&contacts).Error

	return contacts, total, err
}

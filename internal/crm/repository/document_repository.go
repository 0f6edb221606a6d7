package repository

import (
	"context"

	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"gorm.io/gorm"
)

// DocumentRepository 文档仓库
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓库
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID 在可见范围内根据ID查找文档
func (r *DocumentRepository) FindByID(ctx context.Context, id string, scope Scope) (*entity.Document, error) {
	var doc entity.Document
	err := r.db.WithContext(ctx).
		Preload("Deal").
		Preload("Uploader").
		Scopes(scope).
		Where("documents.id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &doc, nil
}

// Create 创建文档
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// Delete 删除文档，引用它的 NDA 置空文件字段而非级联
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.NDA{}).Where("file_id = ?", id).Update("file_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Document{}).Error
	})
}

// List 在可见范围内分页获取文档列表
func (r *DocumentRepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}, scope Scope) ([]entity.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Document{}).Scopes(scope)

	if dealID, ok := filters["deal_id"].(string); ok && dealID != "" {
		query = query.Where("documents.deal_id = ?", dealID)
	}
	if contentType, ok := filters["content_type"].(string); ok && contentType != "" {
		query = query.Where("documents.content_type = ?", contentType)
	}
	if uploadedBy, ok := filters["uploaded_by"].(string); ok && uploadedBy != "" {
		query = query.Where("documents.uploaded_by = ?", uploadedBy)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		query = query.Where("documents.filename LIKE ?", "%"+keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ordering, _ := filters["ordering"].(string)
	var docs []entity.Document
	err := query.
		Preload("Deal").
		Preload("Uploader").
		Scopes(orderBy(ordering, "documents.uploaded_at DESC", map[string]string{
			"filename":    "documents.filename",
			"size":        "documents.size",
			"uploaded_at": "documents.uploaded_at",
		})).
		Scopes(paginate(page, pageSize)).
		Find(&docs).Error

	return docs, total, err
}

// NDARepository NDA仓库
type NDARepository struct {
	db *gorm.DB
}

// NewNDARepository 创建NDA仓库
func NewNDARepository(db *gorm.DB) *NDARepository {
	return &NDARepository{db: db}
}

// FindByID 在可见范围内根据ID查找NDA
func (r *NDARepository) FindByID(ctx context.Context, id string, scope Scope) (*entity.NDA, error) {
	var nda entity.NDA
	err := r.db.WithContext(ctx).
		Preload("Deal").
		Preload("File").
		Scopes(scope).
		Where("ndas.id = ?", id).
		First(&nda).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &nda, nil
}

// Create 创建NDA
func (r *NDARepository) Create(ctx context.Context, nda *entity.NDA) error {
	return r.db.WithContext(ctx).Create(nda).Error
}

// Update 更新NDA
func (r *NDARepository) Update(ctx context.Context, nda *entity.NDA) error {
	return r.db.WithContext(ctx).Omit("Deal", "File").Save(nda).Error
}

// Delete 删除NDA
func (r *NDARepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.NDA{}).Error
}

// List 在可见范围内分页获取NDA列表
func (r *NDARepository) List(ctx context.Context, page, pageSize int, filters map[string]interface{}, scope Scope) ([]entity.NDA, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.NDA{}).Scopes(scope)

	if dealID, ok := filters["deal_id"].(string); ok && dealID != "" {
		query = query.Where("ndas.deal_id = ?", dealID)
	}
	if counterparty, ok := filters["counterparty"].(string); ok && counterparty != "" {
		query = query.Where("ndas.counterparty = ?", counterparty)
	}
	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("ndas.status = ?", status)
	}
	if keyword, ok := filters["keyword"].(string); ok && keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("ndas.notes LIKE ?", like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	ordering, _ := filters["ordering"].(string)
	var ndas []entity.NDA
	err := query.
		Preload("Deal").
		Preload("File").
		Scopes(orderBy(ordering, "ndas.created_at DESC", map[string]string{
			"counterparty": "ndas.counterparty",
			"status":       "ndas.status",
			"signed_at":    "ndas.signed_at",
			"created_at":   "ndas.created_at",
		})).
		Scopes(paginate(page, pageSize)).
		Find(&ndas).Error

	return ndas, total, err
}

// Package policy 集中角色可见性与写权限判定，避免各资源各写一份漂移。
package policy

import (
	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"gorm.io/gorm"
)

// Actor 发起请求的已认证用户
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool     { return a.Role == entity.RoleAdmin }
func (a Actor) IsAssociate() bool { return a.Role == entity.RoleAssociate }
func (a Actor) IsAnalyst() bool   { return a.Role == entity.RoleAnalyst }

// Resource 资源类型
type Resource string

const (
	ResourceCompany     Resource = "company"
	ResourceContact     Resource = "contact"
	ResourceStage       Resource = "stage"
	ResourceDeal        Resource = "deal"
	ResourceTask        Resource = "task"
	ResourceInteraction Resource = "interaction"
	ResourceDocument    Resource = "document"
	ResourceNDA         Resource = "nda"
	ResourceUser        Resource = "user"
)

// Scope 返回按角色过滤可见集合的 GORM scope。
// admin/associate 看全量；analyst 按归属收窄。
func Scope(a Actor, r Resource) func(*gorm.DB) *gorm.DB {
	if a.IsAdmin() || a.IsAssociate() {
		return func(db *gorm.DB) *gorm.DB { return db }
	}
	if !a.IsAnalyst() {
		// 未知角色什么都看不到
		return func(db *gorm.DB) *gorm.DB { return db.Where("1 = 0") }
	}

	switch r {
	case ResourceDeal:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("deals.owner_id = ?", a.ID)
		}
	case ResourceTask:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("LEFT JOIN deals ON deals.id = tasks.deal_id").
				Where("deals.owner_id = ? OR tasks.assignee_id = ?", a.ID, a.ID)
		}
	case ResourceInteraction:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("LEFT JOIN deals ON deals.id = interactions.deal_id").
				Where("deals.owner_id = ? OR interactions.author_id = ? OR interactions.deal_id IS NULL", a.ID, a.ID)
		}
	case ResourceDocument:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("LEFT JOIN deals ON deals.id = documents.deal_id").
				Where("deals.owner_id = ? OR documents.uploaded_by = ? OR documents.deal_id IS NULL", a.ID, a.ID)
		}
	case ResourceNDA:
		return func(db *gorm.DB) *gorm.DB {
			return db.Joins("JOIN deals ON deals.id = ndas.deal_id").
				Where("deals.owner_id = ?", a.ID)
		}
	default:
		// 参考数据（公司/联系人/阶段/用户）对所有角色可读
		return func(db *gorm.DB) *gorm.DB { return db }
	}
}

// CanMutate 集合级写权限。analyst 对参考数据与交易只读，
// 但仍可在可见交易下创建任务/互动/文档。
func CanMutate(a Actor, r Resource) bool {
	if a.IsAdmin() || a.IsAssociate() {
		return r != ResourceUser || a.IsAdmin()
	}
	if !a.IsAnalyst() {
		return false
	}
	switch r {
	case ResourceTask, ResourceInteraction, ResourceDocument:
		return true
	}
	return false
}

// CanMutateDeal 交易对象级写权限：analyst 仅限自己拥有的交易
func CanMutateDeal(a Actor, ownerID string) bool {
	if a.IsAdmin() || a.IsAssociate() {
		return true
	}
	return a.IsAnalyst() && ownerID == a.ID
}

// CanMutateDocument 文档对象级写权限：跟随所属交易，无交易时看上传者
func CanMutateDocument(a Actor, doc *entity.Document) bool {
	if a.IsAdmin() || a.IsAssociate() {
		return true
	}
	if !a.IsAnalyst() {
		return false
	}
	if doc.Deal != nil {
		return doc.Deal.OwnerID == a.ID
	}
	return doc.UploadedBy == a.ID
}

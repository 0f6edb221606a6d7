package entity

import (
	"time"
)

// 互动类型
const (
	InteractionTypeEmail   = "email"
	InteractionTypeCall    = "call"
	InteractionTypeMeeting = "meeting"
	InteractionTypeNote    = "note"
)

// ValidInteractionType 检查互动类型是否合法
func ValidInteractionType(t string) bool {
	switch t {
	case InteractionTypeEmail, InteractionTypeCall, InteractionTypeMeeting, InteractionTypeNote:
		return true
	}
	return false
}

// Interaction 互动记录，可挂在交易、公司或联系人下
type Interaction struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Type       string    `json:"type" gorm:"size:20;not null"`
	Subject    string    `json:"subject" gorm:"size:255;not null"`
	Body       string    `json:"body" gorm:"type:text"`
	OccurredAt time.Time `json:"occurred_at" gorm:"not null"`
	AuthorID   string    `json:"author_id" gorm:"size:36;not null;index"`
	DealID     *string   `json:"deal_id" gorm:"size:36;index"`
	CompanyID  *string   `json:"company_id" gorm:"size:36;index"`
	ContactID  *string   `json:"contact_id" gorm:"size:36;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// 关联
	Author  *User    `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Deal    *Deal    `json:"deal,omitempty" gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`
	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	Contact *Contact `json:"contact,omitempty" gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE"`

	// 派生字段
	RelatedEntity string `json:"related_entity" gorm:"-"`
}

func (Interaction) TableName() string {
	return "interactions"
}

// Validate 互动必须至少关联交易、公司或联系人之一
func (i *Interaction) Validate() error {
	if !ValidInteractionType(i.Type) {
		return &ValidationError{Field: "type", Message: "invalid interaction type"}
	}
	if i.DealID == nil && i.CompanyID == nil && i.ContactID == nil {
		return &ValidationError{Field: "deal_id", Message: "interaction must be associated with a deal, company or contact"}
	}
	return nil
}

// Normalize 只给了联系人时从联系人补全公司
func (i *Interaction) Normalize(contact *Contact) {
	if i.ContactID != nil && i.CompanyID == nil && contact != nil {
		companyID := contact.CompanyID
		i.CompanyID = &companyID
	}
}

// RelatedLabel 主关联对象的显示标签，优先级 交易 > 联系人 > 公司
func (i *Interaction) RelatedLabel() string {
	if i.DealID != nil && i.Deal != nil {
		return "Deal: " + i.Deal.Title
	}
	if i.ContactID != nil && i.Contact != nil {
		return "Contact: " + i.Contact.FullName()
	}
	if i.CompanyID != nil && i.Company != nil {
		return "Company: " + i.Company.Name
	}
	return "Unknown"
}

// Decorate 填充派生字段
func (i *Interaction) Decorate() {
	i.RelatedEntity = i.RelatedLabel()
}

package entity

import (
	"regexp"
	"strings"
	"time"
)

// 公司规模
const (
	CompanySizeStartup    = "startup"
	CompanySizeSmall      = "small"
	CompanySizeMedium     = "medium"
	CompanySizeLarge      = "large"
	CompanySizeEnterprise = "enterprise"
)

var legalIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Company 公司实体（标的/买方/卖方的参考数据）
type Company struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	LegalID   string    `json:"legal_id" gorm:"size:50;not null;uniqueIndex"`
	Country   string    `json:"country" gorm:"size:100"`
	Website   string    `json:"website" gorm:"size:255"`
	Sector    string    `json:"sector" gorm:"size:100"`
	Size      string    `json:"size" gorm:"size:20;not null;default:medium"`
	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Contacts []Contact `json:"contacts,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	Deals    []Deal    `json:"deals,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
}

func (Company) TableName() string {
	return "companies"
}

// Validate 校验公司字段
func (c *Company) Validate() error {
	if c.LegalID == "" || !legalIDPattern.MatchString(c.LegalID) {
		return &ValidationError{Field: "legal_id", Message: "legal ID must be alphanumeric"}
	}
	return nil
}

// 联系人级别
const (
	SeniorityJunior   = "junior"
	SeniorityMid      = "mid"
	SenioritySenior   = "senior"
	SeniorityDirector = "director"
	SeniorityVP       = "vp"
	SeniorityCLevel   = "c_level"
)

// Contact 联系人实体
type Contact struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	CompanyID   string    `json:"company_id" gorm:"size:36;not null;index"`
	FirstName   string    `json:"first_name" gorm:"size:100;not null"`
	LastName    string    `json:"last_name" gorm:"size:100;not null"`
	Email       string    `json:"email" gorm:"size:128;not null;uniqueIndex"`
	Phone       string    `json:"phone" gorm:"size:20"`
	Role        string    `json:"role" gorm:"size:100"`
	Seniority   string    `json:"seniority" gorm:"size:20;not null;default:mid"`
	LinkedinURL string    `json:"linkedin_url" gorm:"size:255"`
	Notes       string    `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 关联
	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

func (Contact) TableName() string {
	return "contacts"
}

// FullName 显示用全名
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

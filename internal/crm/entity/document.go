package entity

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FallbackContentType MIME 嗅探失败时的兜底类型
const FallbackContentType = "application/octet-stream"

// Document 上传的文件，元数据由服务端从文件流推导
type Document struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	DealID      *string   `json:"deal_id" gorm:"size:36;index"`
	Filename    string    `json:"filename" gorm:"size:255;not null"`
	ObjectKey   string    `json:"-" gorm:"size:512;not null"`
	Size        int64     `json:"size" gorm:"not null"`
	ContentType string    `json:"content_type" gorm:"size:100;not null"`
	UploadedBy  string    `json:"uploaded_by" gorm:"size:36;not null;index"`
	UploadedAt  time.Time `json:"uploaded_at" gorm:"autoCreateTime"`

	// 关联
	Deal     *Deal `json:"deal,omitempty" gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`
	Uploader *User `json:"uploader,omitempty" gorm:"foreignKey:UploadedBy"`

	// 派生字段
	SizeHuman     string `json:"size_human" gorm:"-"`
	FileExtension string `json:"file_extension" gorm:"-"`
}

func (Document) TableName() string {
	return "documents"
}

// Extension 文件扩展名（带点，小写）
func (d *Document) Extension() string {
	return strings.ToLower(filepath.Ext(d.Filename))
}

// HumanSize 可读的文件大小
func (d *Document) HumanSize() string {
	size := float64(d.Size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", size)
}

// Decorate 填充派生字段
func (d *Document) Decorate() {
	d.SizeHuman = d.HumanSize()
	d.FileExtension = d.Extension()
}

// NDA 对手方
const (
	CounterpartyBuyer  = "buyer"
	CounterpartySeller = "seller"
	CounterpartyTarget = "target"
)

// NDA 状态
const (
	NDAStatusDraft  = "draft"
	NDAStatusSent   = "sent"
	NDAStatusSigned = "signed"
)

// ValidCounterparty 检查对手方是否合法
func ValidCounterparty(c string) bool {
	return c == CounterpartyBuyer || c == CounterpartySeller || c == CounterpartyTarget
}

// ValidNDAStatus 检查 NDA 状态是否合法
func ValidNDAStatus(s string) bool {
	return s == NDAStatusDraft || s == NDAStatusSent || s == NDAStatusSigned
}

// NDA 保密协议记录，签署状态要求文件与签署时间齐备
type NDA struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	DealID       string     `json:"deal_id" gorm:"size:36;not null;index"`
	Counterparty string     `json:"counterparty" gorm:"size:20;not null"`
	Status       string     `json:"status" gorm:"size:20;not null;default:draft"`
	SignedAt     *time.Time `json:"signed_at"`
	FileID       *string    `json:"file_id" gorm:"size:36"`
	Notes        string     `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	Deal *Deal     `json:"deal,omitempty" gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`
	File *Document `json:"file,omitempty" gorm:"foreignKey:FileID;constraint:OnDelete:SET NULL"`
}

func (NDA) TableName() string {
	return "ndas"
}

// Validate 每次保存前无条件校验，已签署却丢失文件的 NDA 在下次更新时会被拦下
func (n *NDA) Validate() error {
	if !ValidCounterparty(n.Counterparty) {
		return &ValidationError{Field: "counterparty", Message: "invalid counterparty"}
	}
	if !ValidNDAStatus(n.Status) {
		return &ValidationError{Field: "status", Message: "invalid status"}
	}
	if n.Status == NDAStatusSigned {
		if n.FileID == nil {
			return &ValidationError{Field: "file_id", Message: "signed NDA must have an associated document"}
		}
		if n.SignedAt == nil {
			return &ValidationError{Field: "signed_at", Message: "signed NDA must have a signed date"}
		}
	}
	return nil
}

package entity

import (
	"time"
)

// Stage 管线阶段（有序参考数据，删除受 Deal 引用保护）
type Stage struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:36"`
	Name               string    `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Order              int       `json:"order" gorm:"column:sort_order;not null;uniqueIndex"`
	IsClosed           bool      `json:"is_closed" gorm:"not null;default:false"`
	IsWon              bool      `json:"is_won" gorm:"not null;default:false"`
	DefaultProbability float64   `json:"default_probability" gorm:"not null;default:0"`
	CreatedAt          time.Time `json:"created_at"`
}

func (Stage) TableName() string {
	return "stages"
}

// Validate 校验阶段字段
func (s *Stage) Validate() error {
	if s.DefaultProbability < 0 || s.DefaultProbability > 1 {
		return &ValidationError{Field: "default_probability", Message: "probability must be between 0 and 1"}
	}
	return nil
}

// Deal 交易实体
type Deal struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	Title          string     `json:"title" gorm:"size:255;not null"`
	CompanyID      string     `json:"company_id" gorm:"size:36;not null;index"`
	OwnerID        string     `json:"owner_id" gorm:"size:36;not null;index"`
	StageID        string     `json:"stage_id" gorm:"size:36;not null;index"`
	AmountEstimate *float64   `json:"amount_estimate"`
	Probability    float64    `json:"probability" gorm:"not null;default:0"`
	NextActionAt   *time.Time `json:"next_action_at"`
	Description    string     `json:"description" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// 关联
	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Owner   *User    `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Stage   *Stage   `json:"stage,omitempty" gorm:"foreignKey:StageID"`

	// 读取时计算的派生字段，不落库
	IsOverdue     bool     `json:"is_overdue" gorm:"-"`
	ExpectedValue *float64 `json:"expected_value" gorm:"-"`
}

func (Deal) TableName() string {
	return "deals"
}

// Overdue 下次行动时间是否已过期
func (d *Deal) Overdue(now time.Time) bool {
	if d.NextActionAt == nil {
		return false
	}
	return now.After(*d.NextActionAt)
}

// ExpectedValueAt 期望价值 = 金额 × 概率，金额缺失时为 nil
func (d *Deal) ExpectedValueAt() *float64 {
	if d.AmountEstimate == nil {
		return nil
	}
	v := *d.AmountEstimate * d.Probability
	return &v
}

// Decorate 填充派生字段
func (d *Deal) Decorate(now time.Time) {
	d.IsOverdue = d.Overdue(now)
	d.ExpectedValue = d.ExpectedValueAt()
}

// 任务状态
const (
	TaskStatusTodo  = "todo"
	TaskStatusDoing = "doing"
	TaskStatusDone  = "done"
)

// Task 待办任务，可选挂在交易下
type Task struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	DealID      *string    `json:"deal_id" gorm:"size:36;index"`
	Title       string     `json:"title" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"type:text"`
	DueAt       *time.Time `json:"due_at"`
	Status      string     `json:"status" gorm:"size:16;not null;default:todo"`
	AssigneeID  string     `json:"assignee_id" gorm:"size:36;not null;index"`
	CreatedBy   string     `json:"created_by" gorm:"size:36;not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 关联
	Deal     *Deal `json:"deal,omitempty" gorm:"foreignKey:DealID;constraint:OnDelete:CASCADE"`
	Assignee *User `json:"assignee,omitempty" gorm:"foreignKey:AssigneeID"`
	Creator  *User `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`

	// 派生字段
	IsOverdue bool `json:"is_overdue" gorm:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

// Overdue 任务是否过期，已完成任务永不过期
func (t *Task) Overdue(now time.Time) bool {
	if t.DueAt == nil || t.Status == TaskStatusDone {
		return false
	}
	return now.After(*t.DueAt)
}

// Decorate 填充派生字段
func (t *Task) Decorate(now time.Time) {
	t.IsOverdue = t.Overdue(now)
}

package entity

import (
	"strings"
	"time"
)

// 用户角色
const (
	RoleAdmin     = "admin"
	RoleAssociate = "associate"
	RoleAnalyst   = "analyst"
)

// ValidRole 检查角色是否合法
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleAssociate || role == RoleAnalyst
}

// User 用户实体
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"size:128;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:128;not null"`
	FirstName    string    `json:"first_name" gorm:"size:64;not null"`
	LastName     string    `json:"last_name" gorm:"size:64;not null"`
	Role         string    `json:"role" gorm:"size:16;not null;default:analyst"`
	Phone        string    `json:"phone" gorm:"size:20"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// FullName 显示用全名
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsAdmin() bool     { return u.Role == RoleAdmin }
func (u *User) IsAssociate() bool { return u.Role == RoleAssociate }
func (u *User) IsAnalyst() bool   { return u.Role == RoleAnalyst }

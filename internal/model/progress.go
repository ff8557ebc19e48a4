package model

import "time"

// 里程碑状态
const (
	MilestoneTodo  = "todo"
	MilestoneDoing = "doing"
	MilestoneDone  = "done"
)

// Milestone 合作项目里程碑，对应 milestones
type Milestone struct {
	ID        uint       `gorm:"primaryKey;autoIncrement"                 json:"id"`
	ProjectID uint       `gorm:"not null;index"                           json:"project_id"`
	Title     string     `gorm:"type:varchar(128);not null"               json:"title"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Status    string     `gorm:"type:varchar(32);not null;default:'todo'" json:"status"`
	CreatedAt time.Time  `gorm:"not null"                                 json:"created_at"`
}

// TableName 指定表名
func (Milestone) TableName() string { return "milestones" }

// ProgressUpdate 合作项目进度更新，对应 progress_updates
type ProgressUpdate struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID    uint      `gorm:"not null;index"           json:"project_id"`
	AuthorUserID uint      `gorm:"not null"                 json:"author_user_id"`
	Content      string    `gorm:"type:text;not null"       json:"content"`
	CreatedAt    time.Time `gorm:"not null"                 json:"created_at"`

	// 关联
	Author *User `gorm:"foreignKey:AuthorUserID;references:ID" json:"author,omitempty"`
}

// TableName 指定表名
func (ProgressUpdate) TableName() string { return "progress_updates" }

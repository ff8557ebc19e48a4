package dto

// ── 合作协商模块 DTO ──

// CreateCooperationRequest 发起合作申请/邀请
// 指定 post_id 时教师 ID 以项目发布者为准
type CreateCooperationRequest struct {
	PostID        *uint `json:"post_id"`
	TeacherUserID uint  `json:"teacher_user_id"`
	StudentUserID uint  `json:"student_user_id"`
}

// RespondCooperationRequest 处理合作请求
type RespondCooperationRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}

// UpdateParticipantRequest 更新参与者信息（角色/自定义状态）
type UpdateParticipantRequest struct {
	StudentRole  *string `json:"student_role"`
	CustomStatus *string `json:"custom_status"`
}

// CooperationListRequest 合作请求列表查询参数
type CooperationListRequest struct {
	PostID *uint `form:"post_id"`
}

// CreateCooperationResponse 发起结果，Created=false 表示已存在同一请求
type CreateCooperationResponse struct {
	ID      uint `json:"id"`
	Created bool `json:"created"`
}

// RespondCooperationResponse 处理结果
type RespondCooperationResponse struct {
	FinalStatus string `json:"final_status"`
}

// PostBrief 项目简要信息
type PostBrief struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// CooperationResponse 合作请求信息
type CooperationResponse struct {
	ID            uint       `json:"id"`
	Teacher       *UserBrief `json:"teacher"`
	Student       *UserBrief `json:"student"`
	Post          *PostBrief `json:"post"`
	InitiatedBy   string     `json:"initiated_by"`
	TeacherStatus string     `json:"teacher_status"`
	StudentStatus string     `json:"student_status"`
	FinalStatus   string     `json:"final_status"`
	StudentRole   *string    `json:"student_role"`
	CustomStatus  *string    `json:"custom_status"`
	CreatedAt     string     `json:"created_at"`
	UpdatedAt     string     `json:"updated_at"`
}

// CooperationListResponse 合作请求列表
type CooperationListResponse struct {
	Items              []CooperationResponse `json:"items"`
	HasBlockingPending bool                  `json:"has_blocking_pending"`
}

// ProjectResponse 已确认的合作项目
type ProjectResponse struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	RequestID uint   `json:"request_id"`
	PostID    *uint  `json:"post_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// [自证通过] internal/dto/cooperation.go

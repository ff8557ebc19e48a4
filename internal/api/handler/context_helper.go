package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/api/middleware"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/service"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(uint)
	if !ok || id == 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxRole)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetIdentity 同时提取 user_id 与 role
func MustGetIdentity(c *gin.Context) (uint, string, bool) {
	id, ok := MustGetUserID(c)
	if !ok {
		return 0, "", false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return 0, "", false
	}
	return id, role, true
}

// tokenMeta 当前 Token 的 jti 与过期时间（登出使用）
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.CtxTokenJTI)
	exp, _ := c.Get(middleware.CtxTokenExp)
	t, _ := exp.(time.Time)
	return jti, t
}

// parseIDParam 解析路径中的正整数 ID，失败时写入 400 响应
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, 10001, "ID 格式无效")
		return 0, false
	}
	return uint(id), true
}

// bindJSON 解析请求体；超过 BodyLimit 上限时返回 413，其余解析失败返回 400
func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return false
	}
	response.BadRequest(c, 10001, "参数校验失败")
	return false
}

// handleCommonError 处理各模块共用的业务错误，已写入响应时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "无权限执行该操作")
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, 10001, "参数校验失败")
	default:
		return false
	}
	return true
}

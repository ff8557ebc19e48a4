package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/config"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/service"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/response"
)

// MatchHandler 匹配推荐 HTTP 处理器
type MatchHandler struct {
	matchSvc service.MatchService
	cfg      *config.MatchConfig
}

// NewMatchHandler 创建 MatchHandler
func NewMatchHandler(matchSvc service.MatchService, cfg *config.MatchConfig) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc, cfg: cfg}
}

// Top 按角色返回推荐列表
// GET /api/v1/match/top
func (h *MatchHandler) Top(c *gin.Context) {
	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.matchSvc.Top(c.Request.Context(), userID, role, req.GetLimit(h.cfg.DefaultLimit, h.cfg.MaxLimit))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Check 推荐结果变化时推送通知
// POST /api/v1/match/check
func (h *MatchHandler) Check(c *gin.Context) {
	var req dto.LimitRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.matchSvc.Check(c.Request.Context(), userID, role, req.GetLimit(h.cfg.CheckDefaultLimit, h.cfg.CheckMaxLimit))
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

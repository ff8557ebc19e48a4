package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/service"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/response"
)

// CooperationHandler 合作协商 HTTP 处理器
type CooperationHandler struct {
	coopSvc service.CooperationService
}

// NewCooperationHandler 创建 CooperationHandler
func NewCooperationHandler(coopSvc service.CooperationService) *CooperationHandler {
	return &CooperationHandler{coopSvc: coopSvc}
}

// CreateRequest 学生申请 / 教师邀请
// POST /api/v1/cooperation
func (h *CooperationHandler) CreateRequest(c *gin.Context) {
	var req dto.CreateCooperationRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.coopSvc.CreateRequest(c.Request.Context(), userID, role, &req)
	if err != nil {
		h.handleCooperationError(c, err)
		return
	}

	if result.Created {
		response.Created(c, result)
		return
	}
	response.OK(c, result)
}

// ListRequests 当前用户的合作请求
// GET /api/v1/cooperation
func (h *CooperationHandler) ListRequests(c *gin.Context) {
	var req dto.CooperationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	result, err := h.coopSvc.ListByViewer(c.Request.Context(), userID, role, &req)
	if err != nil {
		h.handleCooperationError(c, err)
		return
	}

	response.OK(c, result)
}

// Respond 接受或拒绝
// POST /api/v1/cooperation/:id/respond
func (h *CooperationHandler) Respond(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.RespondCooperationRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.coopSvc.Respond(c.Request.Context(), id, userID, req.Action)
	if err != nil {
		h.handleCooperationError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateParticipant 更新学生角色 / 自定义状态
// PUT /api/v1/cooperation/:id/participant
func (h *CooperationHandler) UpdateParticipant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateParticipantRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.coopSvc.UpdateParticipantInfo(c.Request.Context(), id, userID, &req)
	if err != nil {
		h.handleCooperationError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteRequest 删除合作请求
// DELETE /api/v1/cooperation/:id
func (h *CooperationHandler) DeleteRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.coopSvc.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleCooperationError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListProjects 已确认的合作项目
// GET /api/v1/projects
func (h *CooperationHandler) ListProjects(c *gin.Context) {
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	projects, err := h.coopSvc.ListProjects(c.Request.Context(), userID, role)
	if err != nil {
		h.handleCooperationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": projects})
}

func (h *CooperationHandler) handleCooperationError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}

	var full *service.CapacityFullError
	switch {
	case errors.As(err, &full):
		response.ErrorWithDetails(c, http.StatusConflict, 14005, "项目招募人数已满",
			fmt.Sprintf("%d/%d", full.Confirmed, full.Target))
	case errors.Is(err, service.ErrCapacityFull):
		response.Conflict(c, 14005, "项目招募人数已满")
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 14001, "合作请求不存在")
	case errors.Is(err, service.ErrRequestClosed):
		response.Conflict(c, 14002, "合作请求已结束")
	case errors.Is(err, service.ErrPostNotRecruiting):
		response.Conflict(c, 14003, "项目当前不在招募中")
	case errors.Is(err, service.ErrPostExpired):
		response.Conflict(c, 14004, "项目已过截止时间")
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, 12001, "项目不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11005, "用户不存在")
	default:
		response.InternalError(c)
	}
}

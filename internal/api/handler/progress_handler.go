package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/service"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/response"
)

// ProgressHandler 合作项目进度 HTTP 处理器
type ProgressHandler struct {
	progressSvc service.ProgressService
}

// NewProgressHandler 创建 ProgressHandler
func NewProgressHandler(progressSvc service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressSvc: progressSvc}
}

// ListMilestones 里程碑列表
// GET /api/v1/projects/:id/milestones
func (h *ProgressHandler) ListMilestones(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.progressSvc.ListMilestones(c.Request.Context(), projectID, userID, role)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateMilestone 新增里程碑
// POST /api/v1/projects/:id/milestones
func (h *ProgressHandler) CreateMilestone(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CreateMilestoneRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	m, err := h.progressSvc.CreateMilestone(c.Request.Context(), projectID, userID, role, &req)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.Created(c, m)
}

// UpdateMilestone 更新里程碑
// PUT /api/v1/projects/:id/milestones/:mid
func (h *ProgressHandler) UpdateMilestone(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := parseIDParam(c, "mid")
	if !ok {
		return
	}
	var req dto.UpdateMilestoneRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	m, err := h.progressSvc.UpdateMilestone(c.Request.Context(), projectID, milestoneID, userID, role, &req)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, m)
}

// ListUpdates 进度更新列表
// GET /api/v1/projects/:id/updates
func (h *ProgressHandler) ListUpdates(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	list, err := h.progressSvc.ListUpdates(c.Request.Context(), projectID, userID, role)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateUpdate 提交进度更新
// POST /api/v1/projects/:id/updates
func (h *ProgressHandler) CreateUpdate(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.CreateProgressUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	u, err := h.progressSvc.CreateUpdate(c.Request.Context(), projectID, userID, role, &req)
	if err != nil {
		h.handleProgressError(c, err)
		return
	}

	response.Created(c, u)
}

func (h *ProgressHandler) handleProgressError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 15001, "合作项目不存在")
	case errors.Is(err, service.ErrMilestoneNotFound):
		response.NotFound(c, 15002, "里程碑不存在")
	default:
		response.InternalError(c)
	}
}

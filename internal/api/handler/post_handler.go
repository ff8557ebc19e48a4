package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/service"
	pkgerrors "github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/errors"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/response"
)

// PostHandler 教师项目 HTTP 处理器
type PostHandler struct {
	postSvc service.PostService
}

// NewPostHandler 创建 PostHandler
func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{postSvc: postSvc}
}

// ListPosts 项目列表
// GET /api/v1/posts
func (h *PostHandler) ListPosts(c *gin.Context) {
	var req dto.PostListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	posts, err := h.postSvc.List(c.Request.Context(), &req, userID, role)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, gin.H{"list": posts})
}

// GetPost 项目详情
// GET /api/v1/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	post, err := h.postSvc.GetByID(c.Request.Context(), id, role)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, post)
}

// CreatePost 发布项目
// POST /api/v1/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req dto.CreatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	post, err := h.postSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.Created(c, post)
}

// UpdatePost 编辑项目
// PUT /api/v1/posts/:id
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	post, err := h.postSvc.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, post)
}

// UpdatePostStatus 变更项目状态
// PUT /api/v1/posts/:id/status
func (h *PostHandler) UpdatePostStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePostStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, role, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	post, err := h.postSvc.UpdateStatus(c.Request.Context(), id, req.Status, userID, role)
	if err != nil {
		h.handlePostError(c, err)
		return
	}

	response.OK(c, post)
}

func (h *PostHandler) handlePostError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.NotFound(c, 12001, "项目不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12002, "项目已被修改，请刷新后重试")
	case errors.Is(err, pkgerrors.ErrStaleStatus):
		response.Conflict(c, 12003, "项目状态已变化，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

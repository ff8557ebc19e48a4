package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/service"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/response"
)

// ProfileHandler 师生画像 HTTP 处理器
type ProfileHandler struct {
	profileSvc service.ProfileService
}

// NewProfileHandler 创建 ProfileHandler
func NewProfileHandler(profileSvc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileSvc: profileSvc}
}

// GetStudentProfile 当前学生画像
// GET /api/v1/profiles/student
func (h *ProfileHandler) GetStudentProfile(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.profileSvc.GetStudent(c.Request.Context(), userID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, p)
}

// UpsertStudentProfile 保存学生画像
// PUT /api/v1/profiles/student
func (h *ProfileHandler) UpsertStudentProfile(c *gin.Context) {
	var req dto.UpsertStudentProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.profileSvc.UpsertStudent(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, p)
}

// GetTeacherProfile 当前教师画像
// GET /api/v1/profiles/teacher
func (h *ProfileHandler) GetTeacherProfile(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.profileSvc.GetTeacher(c.Request.Context(), userID)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, p)
}

// UpsertTeacherProfile 保存教师画像
// PUT /api/v1/profiles/teacher
func (h *ProfileHandler) UpsertTeacherProfile(c *gin.Context) {
	var req dto.UpsertTeacherProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	p, err := h.profileSvc.UpsertTeacher(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleProfileError(c, err)
		return
	}

	response.OK(c, p)
}

func (h *ProfileHandler) handleProfileError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	if errors.Is(err, service.ErrProfileNotFound) {
		response.NotFound(c, 13001, "画像未创建")
		return
	}
	response.InternalError(c)
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/repository"
)

var (
	ErrProfileNotFound = errors.New("画像未创建")
)

// ProfileService 师生画像业务接口
type ProfileService interface {
	GetStudent(ctx context.Context, userID uint) (*dto.StudentProfileResponse, error)
	UpsertStudent(ctx context.Context, userID uint, req *dto.UpsertStudentProfileRequest) (*dto.StudentProfileResponse, error)
	GetTeacher(ctx context.Context, userID uint) (*dto.TeacherProfileResponse, error)
	UpsertTeacher(ctx context.Context, userID uint, req *dto.UpsertTeacherProfileRequest) (*dto.TeacherProfileResponse, error)
}

type profileService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProfileService 创建 ProfileService 实例
func NewProfileService(repo *repository.Repository, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, logger: logger}
}

func (s *profileService) GetStudent(ctx context.Context, userID uint) (*dto.StudentProfileResponse, error) {
	p, err := s.repo.Profile.GetStudent(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询学生画像失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toStudentProfileResponse(p), nil
}

// UpsertStudent 整体覆盖学生画像
func (s *profileService) UpsertStudent(ctx context.Context, userID uint, req *dto.UpsertStudentProfileRequest) (*dto.StudentProfileResponse, error) {
	skills := make(model.SkillList, 0, len(req.Skills))
	for _, sk := range req.Skills {
		name := strings.TrimSpace(sk.Name)
		if name == "" {
			continue
		}
		skills = append(skills, model.Skill{Name: name, Level: strings.TrimSpace(sk.Level)})
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	p := &model.StudentProfile{
		UserID:      userID,
		Major:       req.Major,
		Grade:       req.Grade,
		ClassName:   req.ClassName,
		Direction:   req.Direction,
		Skills:      skills,
		Interests:   cleanList(req.Interests),
		WeeklyHours: req.WeeklyHours,
		Visibility:  visibility,
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.Profile.UpsertStudent(ctx, p); err != nil {
		s.logger.Error("保存学生画像失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toStudentProfileResponse(p), nil
}

func (s *profileService) GetTeacher(ctx context.Context, userID uint) (*dto.TeacherProfileResponse, error) {
	p, err := s.repo.Profile.GetTeacher(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询教师画像失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toTeacherProfileResponse(p), nil
}

func (s *profileService) UpsertTeacher(ctx context.Context, userID uint, req *dto.UpsertTeacherProfileRequest) (*dto.TeacherProfileResponse, error) {
	p := &model.TeacherProfile{
		UserID:       userID,
		Title:        req.Title,
		Organization: req.Organization,
		Bio:          req.Bio,
		ResearchTags: cleanList(req.ResearchTags),
		UpdatedAt:    time.Now(),
	}
	if err := s.repo.Profile.UpsertTeacher(ctx, p); err != nil {
		s.logger.Error("保存教师画像失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	return toTeacherProfileResponse(p), nil
}

// ── 内部辅助方法 ──

func toStudentProfileResponse(p *model.StudentProfile) *dto.StudentProfileResponse {
	skills := make([]dto.SkillItem, 0, len(p.Skills))
	for _, sk := range p.Skills {
		skills = append(skills, dto.SkillItem{Name: sk.Name, Level: sk.Level})
	}
	interests := []string(p.Interests)
	if interests == nil {
		interests = []string{}
	}
	return &dto.StudentProfileResponse{
		UserID:      p.UserID,
		Major:       p.Major,
		Grade:       p.Grade,
		ClassName:   p.ClassName,
		Direction:   p.Direction,
		Skills:      skills,
		Interests:   interests,
		WeeklyHours: p.WeeklyHours,
		Visibility:  p.Visibility,
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

func toTeacherProfileResponse(p *model.TeacherProfile) *dto.TeacherProfileResponse {
	tags := []string(p.ResearchTags)
	if tags == nil {
		tags = []string{}
	}
	return &dto.TeacherProfileResponse{
		UserID:       p.UserID,
		Title:        p.Title,
		Organization: p.Organization,
		Bio:          p.Bio,
		ResearchTags: tags,
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
}

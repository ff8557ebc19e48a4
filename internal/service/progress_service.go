package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/repository"
)

// ── 项目进度模块业务错误 ──

var (
	ErrProjectNotFound   = errors.New("合作项目不存在")
	ErrMilestoneNotFound = errors.New("里程碑不存在")
)

const (
	// nearDueWindow 截止前 3 天内视为临近
	nearDueWindow       = 3 * 24 * time.Hour
	progressUpdateLimit = 200
)

// ProgressService 合作项目进度业务接口（仅项目双方与管理员可访问）
type ProgressService interface {
	ListMilestones(ctx context.Context, projectID, actorID uint, actorRole string) ([]dto.MilestoneResponse, error)
	CreateMilestone(ctx context.Context, projectID, actorID uint, actorRole string, req *dto.CreateMilestoneRequest) (*dto.MilestoneResponse, error)
	UpdateMilestone(ctx context.Context, projectID, milestoneID, actorID uint, actorRole string, req *dto.UpdateMilestoneRequest) (*dto.MilestoneResponse, error)
	ListUpdates(ctx context.Context, projectID, actorID uint, actorRole string) ([]dto.ProgressUpdateResponse, error)
	CreateUpdate(ctx context.Context, projectID, actorID uint, actorRole string, req *dto.CreateProgressUpdateRequest) (*dto.ProgressUpdateResponse, error)
}

type progressService struct {
	repo   *repository.Repository
	sink   NotificationSink
	logger *zap.Logger
	now    func() time.Time
}

// NewProgressService 创建 ProgressService 实例
func NewProgressService(repo *repository.Repository, sink NotificationSink, logger *zap.Logger) ProgressService {
	return &progressService{repo: repo, sink: sink, logger: logger, now: time.Now}
}

// ────────────────────── 里程碑 ──────────────────────

func (s *progressService) ListMilestones(ctx context.Context, projectID, actorID uint, actorRole string) ([]dto.MilestoneResponse, error) {
	if _, _, err := s.memberProject(ctx, projectID, actorID, actorRole); err != nil {
		return nil, err
	}

	ms, err := s.repo.Progress.ListMilestones(ctx, []uint{projectID})
	if err != nil {
		s.logger.Error("查询里程碑失败", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	result := make([]dto.MilestoneResponse, 0, len(ms))
	for i := range ms {
		result = append(result, toMilestoneResponse(&ms[i], now))
	}
	return result, nil
}

func (s *progressService) CreateMilestone(ctx context.Context, projectID, actorID uint, actorRole string, req *dto.CreateMilestoneRequest) (*dto.MilestoneResponse, error) {
	_, cr, err := s.memberProject(ctx, projectID, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrValidation
	}
	due, err := parseOptionalTime(req.DueDate)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = model.MilestoneTodo
	}

	m := &model.Milestone{
		ProjectID: projectID,
		Title:     title,
		DueDate:   due,
		Status:    status,
		CreatedAt: s.now(),
	}
	if err := s.repo.Progress.CreateMilestone(ctx, m); err != nil {
		s.logger.Error("创建里程碑失败", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, err
	}

	s.notifyMilestone(ctx, cr, m.Title, model.NotifMilestoneNew)

	resp := toMilestoneResponse(m, s.now())
	return &resp, nil
}

// UpdateMilestone 状态首次变为 done 时通知项目成员
func (s *progressService) UpdateMilestone(ctx context.Context, projectID, milestoneID, actorID uint, actorRole string, req *dto.UpdateMilestoneRequest) (*dto.MilestoneResponse, error) {
	_, cr, err := s.memberProject(ctx, projectID, actorID, actorRole)
	if err != nil {
		return nil, err
	}

	m, err := s.repo.Progress.GetMilestone(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMilestoneNotFound
		}
		s.logger.Error("查询里程碑失败", zap.Uint("id", milestoneID), zap.Error(err))
		return nil, err
	}
	if m.ProjectID != projectID {
		return nil, ErrMilestoneNotFound
	}

	oldStatus := m.Status
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrValidation
		}
		m.Title = title
	}
	if req.DueDate != nil {
		due, err := parseTimeInput(*req.DueDate)
		if err != nil {
			return nil, err
		}
		m.DueDate = due
	}
	if req.Status != nil {
		m.Status = *req.Status
	}

	if err := s.repo.Progress.UpdateMilestone(ctx, m); err != nil {
		s.logger.Error("更新里程碑失败", zap.Uint("id", milestoneID), zap.Error(err))
		return nil, err
	}

	if oldStatus != model.MilestoneDone && m.Status == model.MilestoneDone {
		s.notifyMilestone(ctx, cr, m.Title, model.NotifMilestoneDone)
	}

	resp := toMilestoneResponse(m, s.now())
	return &resp, nil
}

// ────────────────────── 进度更新 ──────────────────────

func (s *progressService) ListUpdates(ctx context.Context, projectID, actorID uint, actorRole string) ([]dto.ProgressUpdateResponse, error) {
	if _, _, err := s.memberProject(ctx, projectID, actorID, actorRole); err != nil {
		return nil, err
	}

	ups, err := s.repo.Progress.ListUpdates(ctx, []uint{projectID}, progressUpdateLimit)
	if err != nil {
		s.logger.Error("查询进度更新失败", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ProgressUpdateResponse, 0, len(ups))
	for i := range ups {
		result = append(result, toProgressUpdateResponse(&ups[i]))
	}
	return result, nil
}

func (s *progressService) CreateUpdate(ctx context.Context, projectID, actorID uint, actorRole string, req *dto.CreateProgressUpdateRequest) (*dto.ProgressUpdateResponse, error) {
	if _, _, err := s.memberProject(ctx, projectID, actorID, actorRole); err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrValidation
	}

	u := &model.ProgressUpdate{
		ProjectID:    projectID,
		AuthorUserID: actorID,
		Content:      content,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Progress.CreateUpdate(ctx, u); err != nil {
		s.logger.Error("创建进度更新失败", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, err
	}

	if author, err := s.repo.User.GetByID(ctx, actorID); err == nil {
		u.Author = author
	}
	resp := toProgressUpdateResponse(u)
	return &resp, nil
}

// ── 内部辅助方法 ──

// memberProject 读取合作项目及其请求，并校验调用者为项目双方或管理员
func (s *progressService) memberProject(ctx context.Context, projectID, actorID uint, actorRole string) (*model.CooperationProject, *model.CooperationRequest, error) {
	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProjectNotFound
		}
		s.logger.Error("查询合作项目失败", zap.Uint("project_id", projectID), zap.Error(err))
		return nil, nil, err
	}

	cr := project.Request
	if cr == nil {
		cr, err = s.repo.Cooperation.GetByID(ctx, project.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrProjectNotFound
			}
			s.logger.Error("查询合作请求失败", zap.Uint("request_id", project.RequestID), zap.Error(err))
			return nil, nil, err
		}
	}

	if !cr.IsParty(actorID) && actorRole != model.RoleAdmin {
		return nil, nil, ErrForbidden
	}
	return project, cr, nil
}

// notifyMilestone 通知项目下所有已确认的学生；无关联项目时只通知该请求的学生
func (s *progressService) notifyMilestone(ctx context.Context, cr *model.CooperationRequest, milestoneTitle, notifType string) {
	recipients := []uint{cr.StudentUserID}
	projectTitle := model.DefaultProjectTitle

	if cr.PostID != nil {
		if post, err := s.repo.Post.GetByID(ctx, *cr.PostID); err == nil {
			projectTitle = post.Title
		}
		members, err := s.repo.Cooperation.ListByPostAndStatus(ctx, *cr.PostID, model.CoopConfirmed)
		if err != nil {
			s.logger.Warn("查询项目成员失败", zap.Uint("post_id", *cr.PostID), zap.Error(err))
		} else {
			recipients = recipients[:0]
			seen := make(map[uint]struct{}, len(members))
			for _, r := range members {
				if _, ok := seen[r.StudentUserID]; ok {
					continue
				}
				seen[r.StudentUserID] = struct{}{}
				recipients = append(recipients, r.StudentUserID)
			}
		}
	}

	var title, summary string
	if notifType == model.NotifMilestoneDone {
		title = "里程碑已完成"
		summary = fmt.Sprintf("项目《%s》的里程碑「%s」已完成", projectTitle, milestoneTitle)
	} else {
		title = "新里程碑已添加"
		summary = fmt.Sprintf("项目《%s》添加了新里程碑：%s", projectTitle, milestoneTitle)
	}

	var out outbox
	for _, uid := range recipients {
		out.add(uid, notifType, title, summaryPayload(summary, cr.PostID))
	}
	out.flush(ctx, s.sink, s.logger)
}

func toMilestoneResponse(m *model.Milestone, now time.Time) dto.MilestoneResponse {
	return dto.MilestoneResponse{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Title:     m.Title,
		DueDate:   formatTimePtr(m.DueDate),
		Status:    m.Status,
		IsNearDue: isNearDue(m, now),
	}
}

// isNearDue 未完成且截止时间在未来 3 天内
func isNearDue(m *model.Milestone, now time.Time) bool {
	if m.DueDate == nil || m.Status == model.MilestoneDone {
		return false
	}
	if m.DueDate.Before(now) {
		return false
	}
	return m.DueDate.Sub(now) <= nearDueWindow
}

func toProgressUpdateResponse(u *model.ProgressUpdate) dto.ProgressUpdateResponse {
	name := "未知"
	if u.Author != nil {
		name = u.Author.DisplayName
	}
	return dto.ProgressUpdateResponse{
		ID:           u.ID,
		AuthorUserID: u.AuthorUserID,
		AuthorName:   name,
		Content:      u.Content,
		CreatedAt:    formatTime(u.CreatedAt),
	}
}

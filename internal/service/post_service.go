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
	pkgerrors "github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/errors"
)

// postListWindow 列表最多扫描的项目数
const postListWindow = 200

// PostService 教师项目业务接口
type PostService interface {
	Create(ctx context.Context, req *dto.CreatePostRequest, callerID uint) (*dto.PostResponse, error)
	GetByID(ctx context.Context, id uint, viewerRole string) (*dto.PostResponse, error)
	List(ctx context.Context, req *dto.PostListRequest, viewerID uint, viewerRole string) ([]dto.PostResponse, error)
	Update(ctx context.Context, id uint, req *dto.UpdatePostRequest, callerID uint) (*dto.PostResponse, error)
	UpdateStatus(ctx context.Context, id uint, status string, callerID uint, callerRole string) (*dto.PostResponse, error)
}

type postService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewPostService 创建 PostService 实例
func NewPostService(repo *repository.Repository, logger *zap.Logger) PostService {
	return &postService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *postService) Create(ctx context.Context, req *dto.CreatePostRequest, callerID uint) (*dto.PostResponse, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, ErrValidation
	}
	deadline, err := parseOptionalTime(req.Deadline)
	if err != nil {
		return nil, err
	}

	postType := req.PostType
	if postType == "" {
		postType = model.PostTypeProject
	}
	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPublic
	}

	now := time.Now()
	post := &model.Post{
		TeacherUserID: callerID,
		PostType:      postType,
		Title:         title,
		Content:       content,
		TechStack:     cleanList(req.TechStack),
		Tags:          cleanList(req.Tags),
		RecruitCount:  req.RecruitCount,
		Duration:      req.Duration,
		Outcome:       req.Outcome,
		Contact:       req.Contact,
		Deadline:      deadline,
		Visibility:    visibility,
		ReviewStatus:  model.ReviewApproved,
		ProjectStatus: model.ProjectRecruiting,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Post.Create(ctx, post); err != nil {
		s.logger.Error("创建项目失败", zap.Error(err))
		return nil, err
	}

	resp := s.toPostResponse(post, 0)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *postService) GetByID(ctx context.Context, id uint, viewerRole string) (*dto.PostResponse, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canViewPost(post, viewerRole) {
		return nil, ErrPostNotFound
	}

	confirmed, err := s.repo.Cooperation.CountConfirmedByPost(ctx, post.ID)
	if err != nil {
		s.logger.Error("统计已确认人数失败", zap.Uint("post_id", id), zap.Error(err))
		return nil, err
	}

	resp := s.toPostResponse(post, confirmed)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

// List 非管理员只看到已审核且可见性允许的项目；tag/tech 为精确匹配
func (s *postService) List(ctx context.Context, req *dto.PostListRequest, viewerID uint, viewerRole string) ([]dto.PostResponse, error) {
	filter := repository.PostFilter{
		PostType:     req.PostType,
		Keyword:      strings.TrimSpace(req.Keyword),
		ApprovedOnly: viewerRole != model.RoleAdmin,
		Limit:        postListWindow,
	}
	if req.Mine && viewerID != 0 {
		filter.TeacherUserID = viewerID
	}

	posts, err := s.repo.Post.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出项目失败", zap.Error(err))
		return nil, err
	}

	tag := strings.TrimSpace(req.Tag)
	tech := strings.TrimSpace(req.Tech)
	visible := make([]*model.Post, 0, len(posts))
	ids := make([]uint, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		if !canViewPost(p, viewerRole) {
			continue
		}
		if tag != "" && !containsString(p.Tags, tag) {
			continue
		}
		if tech != "" && !containsString(p.TechStack, tech) {
			continue
		}
		visible = append(visible, p)
		ids = append(ids, p.ID)
	}

	counts, err := s.repo.Cooperation.CountConfirmedByPosts(ctx, ids)
	if err != nil {
		s.logger.Error("统计已确认人数失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PostResponse, 0, len(visible))
	for _, p := range visible {
		result = append(result, s.toPostResponse(p, counts[p.ID]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

// Update 仅发布者可编辑，版本号不一致返回 pkg/errors.ErrOptimisticLock
func (s *postService) Update(ctx context.Context, id uint, req *dto.UpdatePostRequest, callerID uint) (*dto.PostResponse, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.TeacherUserID != callerID {
		return nil, ErrForbidden
	}

	post.Version = req.Version
	if req.PostType != nil {
		post.PostType = *req.PostType
	}
	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		post.Content = strings.TrimSpace(*req.Content)
	}
	if post.Title == "" || post.Content == "" {
		return nil, ErrValidation
	}
	if req.TechStack != nil {
		post.TechStack = cleanList(*req.TechStack)
	}
	if req.Tags != nil {
		post.Tags = cleanList(*req.Tags)
	}
	if req.ClearRecruit {
		post.RecruitCount = nil
	} else if req.RecruitCount != nil {
		post.RecruitCount = req.RecruitCount
	}
	if req.Duration != nil {
		post.Duration = optionalString(*req.Duration)
	}
	if req.Outcome != nil {
		post.Outcome = optionalString(*req.Outcome)
	}
	if req.Contact != nil {
		post.Contact = optionalString(*req.Contact)
	}
	if req.Deadline != nil {
		deadline, err := parseTimeInput(*req.Deadline)
		if err != nil {
			return nil, err
		}
		post.Deadline = deadline
	}
	if req.Visibility != nil {
		post.Visibility = *req.Visibility
	}

	if err := s.repo.Post.Update(ctx, post); err != nil {
		s.logger.Warn("更新项目失败", zap.Uint("post_id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id, model.RoleAdmin)
}

// ────────────────────── UpdateStatus ──────────────────────

// UpdateStatus 发布者或管理员手动变更项目状态（recruiting/completed/closed）
func (s *postService) UpdateStatus(ctx context.Context, id uint, status string, callerID uint, callerRole string) (*dto.PostResponse, error) {
	switch status {
	case model.ProjectRecruiting, model.ProjectCompleted, model.ProjectClosed:
	default:
		return nil, ErrValidation
	}

	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.TeacherUserID != callerID && callerRole != model.RoleAdmin {
		return nil, ErrForbidden
	}

	if post.ProjectStatus != status {
		ok, err := s.repo.Post.TransitionStatus(ctx, id, post.ProjectStatus, status)
		if err != nil {
			s.logger.Error("更新项目状态失败", zap.Uint("post_id", id), zap.Error(err))
			return nil, err
		}
		if !ok {
			return nil, pkgerrors.ErrStaleStatus
		}
	}

	return s.GetByID(ctx, id, model.RoleAdmin)
}

// ── 内部辅助方法 ──

func (s *postService) getPost(ctx context.Context, id uint) (*model.Post, error) {
	post, err := s.repo.Post.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		s.logger.Error("查询项目失败", zap.Uint("post_id", id), zap.Error(err))
		return nil, err
	}
	return post, nil
}

func (s *postService) toPostResponse(p *model.Post, confirmed int64) dto.PostResponse {
	resp := dto.PostResponse{
		ID:             p.ID,
		PostType:       p.PostType,
		Title:          p.Title,
		Content:        p.Content,
		TechStack:      []string(p.TechStack),
		Tags:           []string(p.Tags),
		RecruitCount:   p.RecruitCount,
		ConfirmedCount: confirmed,
		Duration:       p.Duration,
		Outcome:        p.Outcome,
		Contact:        p.Contact,
		Deadline:       formatTimePtr(p.Deadline),
		Visibility:     p.Visibility,
		ReviewStatus:   p.ReviewStatus,
		ProjectStatus:  p.ProjectStatus,
		Version:        p.Version,
		CreatedAt:      formatTime(p.CreatedAt),
		UpdatedAt:      formatTime(p.UpdatedAt),
	}
	if resp.TechStack == nil {
		resp.TechStack = []string{}
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if p.Teacher != nil {
		resp.Teacher = &dto.UserBrief{ID: p.Teacher.ID, DisplayName: p.Teacher.DisplayName}
	}
	return resp
}

// canViewPost 可见性与审核状态判断，管理员不受限
func canViewPost(p *model.Post, viewerRole string) bool {
	if viewerRole == model.RoleAdmin {
		return true
	}
	if p.ReviewStatus != model.ReviewApproved {
		return false
	}
	return canViewVisibility(p.Visibility, viewerRole)
}

func canViewVisibility(visibility, viewerRole string) bool {
	switch visibility {
	case model.VisibilityPublic:
		return true
	case model.VisibilityTeacherOnly:
		return viewerRole == model.RoleTeacher || viewerRole == model.RoleAdmin
	case model.VisibilityStudentOnly:
		return viewerRole == model.RoleStudent || viewerRole == model.RoleAdmin
	default:
		return false
	}
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	return parseTimeInput(*s)
}

// cleanList 去除首尾空白并丢弃空项
func cleanList(items []string) model.StringList {
	out := make(model.StringList, 0, len(items))
	for _, it := range items {
		if v := strings.TrimSpace(it); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsString(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}

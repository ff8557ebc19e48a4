package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/config"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/repository"
)

// MatchService 匹配推荐业务接口
type MatchService interface {
	RecommendPostsForStudent(ctx context.Context, studentID uint, limit int) ([]dto.PostMatch, error)
	RecommendStudentsForTeacher(ctx context.Context, teacherID uint, limit int) ([]dto.StudentMatch, error)
	Top(ctx context.Context, userID uint, role string, limit int) (*dto.MatchTopResponse, error)
	// Check 重新计算推荐，结果与上次推送不同才发送 match_refresh 通知
	Check(ctx context.Context, userID uint, role string, limit int) (*dto.MatchCheckResponse, error)
}

type matchService struct {
	cfg    *config.MatchConfig
	repo   *repository.Repository
	sink   NotificationSink
	logger *zap.Logger
}

// NewMatchService 创建 MatchService 实例
func NewMatchService(cfg *config.MatchConfig, repo *repository.Repository, sink NotificationSink, logger *zap.Logger) MatchService {
	return &matchService{cfg: cfg, repo: repo, sink: sink, logger: logger}
}

// ────────────────────── 学生 → 项目 ──────────────────────

type scoredPost struct {
	score float64
	post  *model.Post
}

func (s *matchService) RecommendPostsForStudent(ctx context.Context, studentID uint, limit int) ([]dto.PostMatch, error) {
	result := []dto.PostMatch{}

	profile, err := s.repo.Profile.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, nil
		}
		s.logger.Error("查询学生画像失败", zap.Uint("user_id", studentID), zap.Error(err))
		return nil, err
	}
	attrs := profile.Attributes()

	posts, err := s.repo.Post.ListRecruiting(ctx, s.cfg.PostScanWindow)
	if err != nil {
		s.logger.Error("查询招募中项目失败", zap.Error(err))
		return nil, err
	}
	posts, err = s.filterCapacityEligible(ctx, posts)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredPost, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		score := maxFloat(Similarity(attrs, p.Tags), Similarity(attrs, p.TechStack))
		if score > 0 {
			scored = append(scored, scoredPost{score: score, post: p})
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].post.ID > scored[j].post.ID
	})

	for i, sp := range scored {
		if i >= limit {
			break
		}
		result = append(result, dto.PostMatch{
			ID:       sp.post.ID,
			Title:    sp.post.Title,
			PostType: sp.post.PostType,
			Score:    roundScore(sp.score),
		})
	}
	return result, nil
}

// filterCapacityEligible 去掉已确认人数达到上限的项目
func (s *matchService) filterCapacityEligible(ctx context.Context, posts []model.Post) ([]model.Post, error) {
	var bounded []uint
	for i := range posts {
		if _, ok := posts[i].CapacityTarget(); ok {
			bounded = append(bounded, posts[i].ID)
		}
	}
	if len(bounded) == 0 {
		return posts, nil
	}

	counts, err := s.repo.Cooperation.CountConfirmedByPosts(ctx, bounded)
	if err != nil {
		s.logger.Error("统计已确认人数失败", zap.Error(err))
		return nil, err
	}

	eligible := posts[:0]
	for _, p := range posts {
		if CanAccept(&p, counts[p.ID]) != nil {
			continue
		}
		eligible = append(eligible, p)
	}
	return eligible, nil
}

// ────────────────────── 教师 → 学生 ──────────────────────

type scoredStudent struct {
	score   float64
	profile *model.StudentProfile
}

func (s *matchService) RecommendStudentsForTeacher(ctx context.Context, teacherID uint, limit int) ([]dto.StudentMatch, error) {
	result := []dto.StudentMatch{}

	posts, err := s.repo.Post.ListApprovedByTeacher(ctx, teacherID, s.cfg.TeacherPostWindow)
	if err != nil {
		s.logger.Error("查询教师项目失败", zap.Uint("user_id", teacherID), zap.Error(err))
		return nil, err
	}
	var desired []string
	for _, p := range posts {
		desired = append(desired, p.Tags...)
		desired = append(desired, p.TechStack...)
	}
	if len(normalizeSet(desired)) == 0 {
		return result, nil
	}

	profiles, err := s.repo.Profile.ListActiveStudents(ctx, s.cfg.StudentScanWindow)
	if err != nil {
		s.logger.Error("查询学生画像失败", zap.Error(err))
		return nil, err
	}

	scored := make([]scoredStudent, 0, len(profiles))
	for i := range profiles {
		sp := &profiles[i]
		score := maxFloat(Similarity(desired, sp.Interests), Similarity(desired, sp.Skills.Names()))
		if score > 0 {
			scored = append(scored, scoredStudent{score: score, profile: sp})
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].profile.UserID > scored[j].profile.UserID
	})

	for i, st := range scored {
		if i >= limit {
			break
		}
		name := ""
		if st.profile.User != nil {
			name = st.profile.User.DisplayName
		}
		result = append(result, dto.StudentMatch{
			UserID:      st.profile.UserID,
			DisplayName: name,
			Score:       roundScore(st.score),
		})
	}
	return result, nil
}

// ────────────────────── Top / Check ──────────────────────

func (s *matchService) Top(ctx context.Context, userID uint, role string, limit int) (*dto.MatchTopResponse, error) {
	switch role {
	case model.RoleStudent:
		items, err := s.RecommendPostsForStudent(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		return &dto.MatchTopResponse{Kind: dto.MatchKindPosts, Items: items}, nil
	case model.RoleTeacher:
		items, err := s.RecommendStudentsForTeacher(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		return &dto.MatchTopResponse{Kind: dto.MatchKindStudents, Items: items}, nil
	default:
		return &dto.MatchTopResponse{Kind: dto.MatchKindNone, Items: []interface{}{}}, nil
	}
}

func (s *matchService) Check(ctx context.Context, userID uint, role string, limit int) (*dto.MatchCheckResponse, error) {
	resp := &dto.MatchCheckResponse{Kind: dto.MatchKindNone, IDs: []uint{}}

	var names []string
	switch role {
	case model.RoleStudent:
		items, err := s.RecommendPostsForStudent(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		resp.Kind = dto.MatchKindPosts
		for _, it := range items {
			resp.IDs = append(resp.IDs, it.ID)
			names = append(names, it.Title)
		}
	case model.RoleTeacher:
		items, err := s.RecommendStudentsForTeacher(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		resp.Kind = dto.MatchKindStudents
		for _, it := range items {
			resp.IDs = append(resp.IDs, it.UserID)
			names = append(names, it.DisplayName)
		}
	default:
		return resp, nil
	}
	if len(resp.IDs) == 0 {
		return resp, nil
	}

	last, err := s.repo.Notification.LatestByType(ctx, userID, model.NotifMatchRefresh)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询上次推荐通知失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}
	if last != nil && sameIDs(payloadIDs(last.Payload), resp.IDs) {
		return resp, nil
	}

	var out outbox
	out.add(userID, model.NotifMatchRefresh, "匹配推荐已更新", map[string]interface{}{
		"kind":    resp.Kind,
		"ids":     resp.IDs,
		"summary": refreshSummary(resp.Kind, names),
	})
	out.flush(ctx, s.sink, s.logger)
	resp.Notified = true
	return resp, nil
}

// ── 内部辅助方法 ──

func refreshSummary(kind string, names []string) string {
	summary := "为你更新了学生推荐"
	if kind == dto.MatchKindPosts {
		summary = "为你更新了项目推荐"
	}
	var shown []string
	for _, n := range names {
		if n == "" {
			continue
		}
		shown = append(shown, n)
		if len(shown) == 3 {
			break
		}
	}
	if len(shown) > 0 {
		summary += "：" + strings.Join(shown, "、")
	}
	return summary
}

// payloadIDs 读取通知载荷中的 ids；从数据库读回时数字为 float64
func payloadIDs(payload map[string]interface{}) []uint {
	switch raw := payload["ids"].(type) {
	case []uint:
		return raw
	case []interface{}:
		ids := make([]uint, 0, len(raw))
		for _, v := range raw {
			switch n := v.(type) {
			case float64:
				ids = append(ids, uint(n))
			case int:
				ids = append(ids, uint(n))
			case uint:
				ids = append(ids, n)
			default:
				return nil
			}
		}
		return ids
	default:
		return nil
	}
}

func sameIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

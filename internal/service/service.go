package service

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/config"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/repository"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/jwt"
)

// ── 通用业务错误 ──

var (
	ErrForbidden  = errors.New("无权限执行该操作")
	ErrValidation = errors.New("参数校验失败")
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Post         PostService
	Profile      ProfileService
	Cooperation  CooperationService
	Match        MatchService
	Progress     ProgressService
	Notification NotificationService
}

// NewService 创建 Service 聚合。blacklist 为空时登出不写黑名单。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	sink NotificationSink,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Post:         NewPostService(repo, logger),
		Profile:      NewProfileService(repo, logger),
		Cooperation:  NewCooperationService(repo, sink, logger),
		Match:        NewMatchService(&cfg.Match, repo, sink, logger),
		Progress:     NewProgressService(repo, sink, logger),
		Notification: NewNotificationService(repo, logger),
	}
}

// ── 时间格式 ──

const dateLayout = "2006-01-02"

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// parseTimeInput 接受 RFC3339 或 2006-01-02，空串返回 nil
func parseTimeInput(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, ErrValidation
	}
	return &t, nil
}

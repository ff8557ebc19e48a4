package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/repository"
)

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = errors.New("通知不存在")
)

// notificationListLimit 列表只返回最近 100 条
const notificationListLimit = 100

// NotificationSink 通知推送出口。调用方视为尽力而为，失败只记录日志。
type NotificationSink interface {
	Push(ctx context.Context, userID uint, notifType, title string, payload map[string]interface{}) error
}

// ── 站内通知（数据库） ──

type dbNotificationSink struct {
	repo repository.NotificationRepository
}

// NewDBNotificationSink 写入 notifications 表的通知出口
func NewDBNotificationSink(repo repository.NotificationRepository) NotificationSink {
	return &dbNotificationSink{repo: repo}
}

func (s *dbNotificationSink) Push(ctx context.Context, userID uint, notifType, title string, payload map[string]interface{}) error {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	n := &model.Notification{
		UserID:    userID,
		NotifType: notifType,
		Title:     title,
		Payload:   datatypes.JSONMap(payload),
	}
	return s.repo.Create(ctx, n)
}

// ── Redis 频道广播 ──

// NotificationPublisher 将通知发布到用户频道（pkg/redis.Client 实现）
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, userID uint, message interface{}) error
}

type redisNotificationSink struct {
	pub NotificationPublisher
}

// NewRedisNotificationSink 发布到 notifications:<user_id> 频道的通知出口
func NewRedisNotificationSink(pub NotificationPublisher) NotificationSink {
	return &redisNotificationSink{pub: pub}
}

func (s *redisNotificationSink) Push(ctx context.Context, userID uint, notifType, title string, payload map[string]interface{}) error {
	return s.pub.PublishNotification(ctx, userID, map[string]interface{}{
		"notif_type": notifType,
		"title":      title,
		"payload":    payload,
	})
}

// ── Telegram ──

// TelegramSender 向 Telegram chat 发送消息（pkg/telegram.Notifier 实现）
type TelegramSender interface {
	Send(ctx context.Context, chatID int64, title, summary string) error
}

type telegramNotificationSink struct {
	users  repository.UserRepository
	sender TelegramSender
}

// NewTelegramNotificationSink 向已绑定 Telegram 的用户推送；未绑定的用户直接跳过
func NewTelegramNotificationSink(users repository.UserRepository, sender TelegramSender) NotificationSink {
	return &telegramNotificationSink{users: users, sender: sender}
}

func (s *telegramNotificationSink) Push(ctx context.Context, userID uint, _ string, title string, payload map[string]interface{}) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TelegramChatID == nil {
		return nil
	}
	summary, _ := payload["summary"].(string)
	return s.sender.Send(ctx, *user.TelegramChatID, title, summary)
}

// ── 多路分发 ──

type fanOutNotificationSink struct {
	primary NotificationSink
	extra   []NotificationSink
	logger  *zap.Logger
}

// NewFanOutNotificationSink 先写 primary，再依次推送 extra。
// 只返回 primary 的错误，extra 的失败记录为告警。
func NewFanOutNotificationSink(logger *zap.Logger, primary NotificationSink, extra ...NotificationSink) NotificationSink {
	return &fanOutNotificationSink{primary: primary, extra: extra, logger: logger}
}

func (s *fanOutNotificationSink) Push(ctx context.Context, userID uint, notifType, title string, payload map[string]interface{}) error {
	err := s.primary.Push(ctx, userID, notifType, title, payload)
	for _, sink := range s.extra {
		if e := sink.Push(ctx, userID, notifType, title, payload); e != nil {
			s.logger.Warn("通知附加渠道推送失败",
				zap.Uint("user_id", userID),
				zap.String("notif_type", notifType),
				zap.Error(e),
			)
		}
	}
	return err
}

// ── 事务内收集、提交后推送 ──

type pendingNotification struct {
	userID    uint
	notifType string
	title     string
	payload   map[string]interface{}
}

// outbox 收集事务内产生的通知，事务提交后统一推送
type outbox struct {
	items []pendingNotification
}

func (o *outbox) add(userID uint, notifType, title string, payload map[string]interface{}) {
	o.items = append(o.items, pendingNotification{
		userID:    userID,
		notifType: notifType,
		title:     title,
		payload:   payload,
	})
}

// flush 推送全部通知；失败只记录日志，不影响已提交的状态
func (o *outbox) flush(ctx context.Context, sink NotificationSink, logger *zap.Logger) {
	if sink == nil {
		return
	}
	for _, n := range o.items {
		if err := sink.Push(ctx, n.userID, n.notifType, n.title, n.payload); err != nil {
			logger.Warn("推送通知失败",
				zap.Uint("user_id", n.userID),
				zap.String("notif_type", n.notifType),
				zap.Error(err),
			)
		}
	}
	o.items = nil
}

// summaryPayload 构造带 summary 的通知载荷，postID 非空时附带 post_id
func summaryPayload(summary string, postID *uint) map[string]interface{} {
	payload := map[string]interface{}{"summary": summary}
	if postID != nil {
		payload["post_id"] = *postID
	}
	return payload
}

// ── NotificationService ──

// NotificationService 站内通知业务接口
type NotificationService interface {
	List(ctx context.Context, userID uint) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, userID, notificationID uint) error
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) List(ctx context.Context, userID uint) ([]dto.NotificationResponse, error) {
	ns, err := s.repo.Notification.ListByUser(ctx, userID, notificationListLimit)
	if err != nil {
		s.logger.Error("查询通知失败", zap.Uint("user_id", userID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.NotificationResponse, 0, len(ns))
	for i := range ns {
		n := &ns[i]
		payload := map[string]interface{}(n.Payload)
		if payload == nil {
			payload = map[string]interface{}{}
		}
		result = append(result, dto.NotificationResponse{
			ID:        n.ID,
			NotifType: n.NotifType,
			Title:     n.Title,
			Payload:   payload,
			IsRead:    n.IsRead,
			CreatedAt: formatTime(n.CreatedAt),
		})
	}
	return result, nil
}

// MarkRead 只能标记自己的通知，他人通知按不存在处理
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	n, err := s.repo.Notification.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("查询通知失败", zap.Uint("id", notificationID), zap.Error(err))
		return err
	}
	if n.UserID != userID {
		return ErrNotificationNotFound
	}
	if n.IsRead {
		return nil
	}
	if err := s.repo.Notification.MarkRead(ctx, notificationID); err != nil {
		s.logger.Error("标记通知已读失败", zap.Uint("id", notificationID), zap.Error(err))
		return err
	}
	return nil
}

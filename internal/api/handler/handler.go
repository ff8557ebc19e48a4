package handler

import (
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/config"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Post         *PostHandler
	Profile      *ProfileHandler
	Cooperation  *CooperationHandler
	Match        *MatchHandler
	Progress     *ProgressHandler
	Notification *NotificationHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		Post:         NewPostHandler(svc.Post),
		Profile:      NewProfileHandler(svc.Profile),
		Cooperation:  NewCooperationHandler(svc.Cooperation),
		Match:        NewMatchHandler(svc.Match, &cfg.Match),
		Progress:     NewProgressHandler(svc.Progress),
		Notification: NewNotificationHandler(svc.Notification),
	}
}

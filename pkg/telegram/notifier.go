package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// messageSender 抽象 bot.Bot 的发送能力，便于测试替换
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Notifier 通过 Telegram Bot 向已绑定 chat 的用户推送通知
type Notifier struct {
	sender messageSender
	logger *zap.Logger
}

// NewNotifier 创建 Bot 并校验 Token（启动时调用 getMe）
func NewNotifier(token string, logger *zap.Logger) (*Notifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("初始化 Telegram Bot 失败: %w", err)
	}
	logger.Info("Telegram Bot 初始化成功")
	return &Notifier{sender: b, logger: logger}, nil
}

// Send 发送一条通知；title 加粗，summary 作为正文
func (n *Notifier) Send(ctx context.Context, chatID int64, title, summary string) error {
	text := "*" + bot.EscapeMarkdown(title) + "*"
	if s := strings.TrimSpace(summary); s != "" {
		text += "\n" + bot.EscapeMarkdown(s)
	}
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("发送 Telegram 消息失败: %w", err)
	}
	return nil
}

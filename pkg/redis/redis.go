package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/config"
)

// Client Redis 客户端封装
// 用于 Token 黑名单、接口限流与通知实时推送
type Client struct {
	rdb       *goredis.Client
	rateLimit *goredis.Script
	logger    *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{
		rdb:       rdb,
		rateLimit: goredis.NewScript(rateLimitScript),
		logger:    logger,
	}, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 限流 ──

// 固定窗口计数：首次 INCR 设置过期，超过上限返回 0
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// CheckRateLimit 返回 key 在 window 内是否仍允许请求
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	allowed, err := c.rateLimit.Run(ctx, c.rdb, []string{key}, ttl, limit).Int64()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// ── 通知推送 ──

// NotificationChannel 用户通知频道名
func NotificationChannel(userID uint) string {
	return fmt.Sprintf("notifications:%d", userID)
}

// PublishNotification 将通知 JSON 发布到用户频道，供 WebSocket/SSE 网关订阅
func (c *Client) PublishNotification(ctx context.Context, userID uint, message interface{}) error {
	b, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("序列化通知失败: %w", err)
	}
	return c.rdb.Publish(ctx, NotificationChannel(userID), b).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

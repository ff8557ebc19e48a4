package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/config"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/api/handler"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/api/router"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/repository"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/service"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/database"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/jwt"
	applogger "github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/logger"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/redis"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/telegram"
)

func main() {
	// 0. 本地开发时从 .env 注入 NEC_* 环境变量，文件不存在则忽略
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 建表：SQLite 走 AutoMigrate，PostgreSQL 走版本化迁移
	if cfg.Database.IsSQLite() {
		if err := database.AutoMigrate(db, logger, model.All()...); err != nil {
			logger.Fatal("数据库建表失败", zap.Error(err))
		}
	} else {
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
	}

	// 4. 连接 Redis（可选：失败时降级运行，黑名单与限流放行）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单、限流与实时推送将不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 组装通知出口：站内通知为主，Redis / Telegram 为附加渠道
	repo := repository.NewRepository(db)
	var extra []service.NotificationSink
	if rdb != nil {
		extra = append(extra, service.NewRedisNotificationSink(rdb))
	}
	if cfg.Telegram.Enabled {
		notifier, err := telegram.NewNotifier(cfg.Telegram.BotToken, logger)
		if err != nil {
			logger.Warn("Telegram 推送不可用", zap.Error(err))
		} else {
			extra = append(extra, service.NewTelegramNotificationSink(repo.User, notifier))
		}
	}
	sink := service.NewFanOutNotificationSink(logger, service.NewDBNotificationSink(repo.Notification), extra...)

	// 7. 依赖注入: Repository → Service → Handler
	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, sink, logger)
	h := handler.NewHandler(cfg, svc)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}

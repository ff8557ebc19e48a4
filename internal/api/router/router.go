package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/config"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/api/handler"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/api/middleware"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/jwt"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎。rdb 为 nil 时不启用黑名单与限流。
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	teacherOnly := middleware.RoleAuth(model.RoleTeacher)
	studentOnly := middleware.RoleAuth(model.RoleStudent)
	loginLimit := middleware.RateLimit(limiter, cfg.Auth.LoginRateLimit, time.Minute)
	applyLimit := middleware.RateLimit(limiter, cfg.Auth.ApplyRateLimit, time.Minute)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/register", loginLimit, h.Auth.Register)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 教师项目
			posts := authorized.Group("/posts")
			{
				posts.GET("", h.Post.ListPosts)
				posts.GET("/:id", h.Post.GetPost)
				posts.POST("", teacherOnly, h.Post.CreatePost)
				posts.PUT("/:id", teacherOnly, h.Post.UpdatePost)
				posts.PUT("/:id/status", middleware.RoleAuth(model.RoleTeacher, model.RoleAdmin), h.Post.UpdatePostStatus)
			}

			// 师生画像
			profiles := authorized.Group("/profiles")
			{
				profiles.GET("/student", studentOnly, h.Profile.GetStudentProfile)
				profiles.PUT("/student", studentOnly, h.Profile.UpsertStudentProfile)
				profiles.GET("/teacher", teacherOnly, h.Profile.GetTeacherProfile)
				profiles.PUT("/teacher", teacherOnly, h.Profile.UpsertTeacherProfile)
			}

			// 合作协商（参与方校验在 Service 层）
			coop := authorized.Group("/cooperation")
			{
				coop.POST("", middleware.RoleAuth(model.RoleTeacher, model.RoleStudent), applyLimit, h.Cooperation.CreateRequest)
				coop.GET("", h.Cooperation.ListRequests)
				coop.POST("/:id/respond", h.Cooperation.Respond)
				coop.PUT("/:id/participant", h.Cooperation.UpdateParticipant)
				coop.DELETE("/:id", h.Cooperation.DeleteRequest)
			}

			// 合作项目与进度
			projects := authorized.Group("/projects")
			{
				projects.GET("", h.Cooperation.ListProjects)
				projects.GET("/:id/milestones", h.Progress.ListMilestones)
				projects.POST("/:id/milestones", h.Progress.CreateMilestone)
				projects.PUT("/:id/milestones/:mid", h.Progress.UpdateMilestone)
				projects.GET("/:id/updates", h.Progress.ListUpdates)
				projects.POST("/:id/updates", h.Progress.CreateUpdate)
			}

			// 匹配推荐
			match := authorized.Group("/match")
			{
				match.GET("/top", h.Match.Top)
				match.POST("/check", h.Match.Check)
			}

			// 站内通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.POST("/:id/read", h.Notification.MarkRead)
			}
		}
	}

	return r
}

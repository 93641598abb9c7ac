package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uniloop/backend/config"
	"uniloop/backend/internal/api/handler"
	"uniloop/backend/internal/api/middleware"
	"uniloop/backend/pkg/jwt"
	"uniloop/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，公开接口限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(rdb, 20, time.Minute))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 教室模块
			// 目录查询对所有登录用户开放；教室与可用性模板的增删改仅管理员
			classrooms := authorized.Group("/classrooms")
			{
				classrooms.GET("", h.Classroom.ListClassrooms)
				classrooms.GET("/:id", h.Classroom.GetClassroom)
				classrooms.GET("/:id/availability", h.Classroom.GetAvailability)
				classrooms.GET("/:id/availability.ics", h.Classroom.ExportAvailabilityICS)
				classrooms.POST("", middleware.RoleAuth("admin"), h.Classroom.CreateClassroom)
				classrooms.PUT("/:id", middleware.RoleAuth("admin"), h.Classroom.UpdateClassroom)
				classrooms.DELETE("/:id", middleware.RoleAuth("admin"), h.Classroom.DeleteClassroom)
				classrooms.PUT("/:id/availability/:weekday", middleware.RoleAuth("admin"), h.Classroom.SetAvailability)
			}

			// 预订模块（鉴权细节由 Service 层按申请人/被申请人裁定）
			bookings := authorized.Group("/bookings")
			{
				bookings.POST("", h.Booking.CreateBooking)
				bookings.GET("/mine", h.Booking.ListMyBookings)
				bookings.GET("/pending", h.Booking.ListPendingBookings)
				bookings.GET("/:id", h.Booking.GetBooking)
				bookings.PUT("/:id", h.Booking.UpdateBooking)
				bookings.DELETE("/:id", h.Booking.DeleteBooking)
				bookings.PATCH("/:id/approve", h.Booking.ApproveBooking)
				bookings.PATCH("/:id/reject", h.Booking.RejectBooking)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/bookings", middleware.RoleAuth("teacher", "admin"), h.Export.ExportBookings)
			}
		}
	}

	return r
}

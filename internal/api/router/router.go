package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timesheet/config"
	"timesheet/internal/access"
	"timesheet/internal/api/handler"
	"timesheet/internal/api/middleware"
	"timesheet/pkg/jwt"
	"timesheet/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎，rdb 可为 nil
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	r.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit, time.Minute, logger))

	// ── 健康检查 ──
	r.GET("/health", h.System.Health)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			authorized.GET("/week/current", h.System.CurrentWeek)

			// 员工工时表（所有权在 Service 层校验）
			timesheets := authorized.Group("/employee/timesheets")
			{
				timesheets.GET("", h.Timesheet.ListTimesheets)
				timesheets.GET("/current", h.Timesheet.CurrentWeek)
				timesheets.POST("", h.Timesheet.CreateTimesheet)
				timesheets.GET("/:id", h.Timesheet.GetTimesheet)
				timesheets.PUT("/:id", h.Timesheet.EditTimesheet)
				timesheets.PUT("/:id/submit", h.Timesheet.SubmitTimesheet)
				timesheets.DELETE("/:id", h.Timesheet.DeleteTimesheet)
				timesheets.GET("/:id/calendar", h.Timesheet.ExportCalendar)
			}

			// 管理员模块
			admin := authorized.Group("/admin")
			admin.Use(middleware.RequireCapability(access.CapAdmin))
			{
				departments := admin.Group("/departments")
				{
					departments.GET("", h.Department.ListDepartments)
					departments.GET("/:id", h.Department.GetDepartment)
					departments.POST("", h.Department.CreateDepartment)
					departments.PUT("/:id", h.Department.UpdateDepartment)
					departments.DELETE("/:id", h.Department.DeleteDepartment)
				}

				roles := admin.Group("/roles")
				{
					roles.GET("", h.Role.ListRoles)
					roles.GET("/:id", h.Role.GetRole)
					roles.POST("", h.Role.CreateRole)
					roles.PUT("/:id", h.Role.UpdateRole)
					roles.DELETE("/:id", h.Role.DeleteRole)
				}

				employees := admin.Group("/employees")
				{
					employees.GET("", h.Employee.ListEmployees)
					employees.POST("", h.Employee.RegisterEmployee)
					employees.GET("/:id", h.Employee.GetEmployee)
					employees.PUT("/:id/assign", h.Employee.AssignEmployee)
				}

				review := admin.Group("/timesheets")
				{
					review.GET("", h.Review.ListTimesheets)
					review.GET("/export", h.Review.ExportTimesheets)
					review.GET("/:id", h.Review.GetTimesheet)
					review.PUT("/:id/decision/:decision", h.Review.DecideWeek)
					review.PUT("/sheets/:id/decision/:decision", h.Review.DecideDay)
					review.DELETE("/:id", h.Review.DeleteTimesheet)
				}
			}
		}
	}

	return r
}

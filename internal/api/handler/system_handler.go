package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timesheet/internal/dto"
	"timesheet/pkg/response"
	"timesheet/pkg/week"
)

// Pinger 健康检查依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler 健康检查与周信息
type SystemHandler struct {
	db    Pinger
	cache Pinger // 可为 nil
	clock week.Clock
}

// NewSystemHandler 创建 SystemHandler，cache 为 nil 时不检查 Redis
func NewSystemHandler(db, cache Pinger, clock week.Clock) *SystemHandler {
	return &SystemHandler{db: db, cache: cache, clock: clock}
}

// Health 健康检查
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "ok"}
	healthy := true
	if err := h.db.Ping(ctx); err != nil {
		status["database"] = err.Error()
		healthy = false
	}
	if h.cache != nil {
		status["redis"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			// Redis 只影响黑名单与限流，不视为不健康
			status["redis"] = err.Error()
		}
	}

	if !healthy {
		response.ErrorWithData(c, http.StatusServiceUnavailable, 50300, "服务不可用", status)
		return
	}
	response.OK(c, status)
}

// CurrentWeek 本周周期与五个工作日
// GET /api/v1/week/current
func (h *SystemHandler) CurrentWeek(c *gin.Context) {
	w := week.Of(h.clock())
	response.OK(c, dto.CurrentWeekResponse{Period: w.Period(), Days: w.Days()})
}

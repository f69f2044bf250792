package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timesheet/internal/access"
	"timesheet/internal/api/middleware"
	pkgerrors "timesheet/pkg/errors"
	"timesheet/pkg/jwt"
	"timesheet/pkg/response"
)

// MustGetIdentity 从 Gin 上下文中提取 JWT 中间件注入的调用者身份。
// 未注入时写入 401 响应并返回 false，调用方应直接 return。
func MustGetIdentity(c *gin.Context) (access.Identity, bool) {
	v, exists := c.Get(middleware.ContextKeyIdentity)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return access.Identity{}, false
	}
	id, ok := v.(access.Identity)
	if !ok || id.EmployeeID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return access.Identity{}, false
	}
	return id, true
}

// getClaims 当前 Access Token 的声明，登出时用于吊销
func getClaims(c *gin.Context) *jwt.Claims {
	v, _ := c.Get(middleware.ContextKeyClaims)
	claims, _ := v.(*jwt.Claims)
	return claims
}

// bindJSON 绑定请求体，失败时写入 400 或 413
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return false
	}
	return true
}

// bindQuery 绑定查询参数，失败时写入 400
func bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
		return false
	}
	return true
}

// handleCommonError 各模块未单独处理的错误：权限与类别兜底
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, access.ErrForbidden), errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		response.FromError(c, err)
	}
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"timesheet/internal/access"
	"timesheet/pkg/jwt"
	"timesheet/pkg/redis"
	"timesheet/pkg/response"
)

// 上下文键
const (
	ContextKeyIdentity = "identity"
	ContextKeyClaims   = "claims"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token，
// 通过后将 access.Identity 与原始 Claims 注入上下文。
// rdb 为 nil 时跳过黑名单检查。
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Token 类型无效")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err != nil {
				// Redis 故障时降级放行
				logger.Warn("检查 Token 黑名单失败", zap.Error(err))
			} else if revoked {
				response.Unauthorized(c, 10002, "Token 已失效")
				c.Abort()
				return
			}
		}

		c.Set(ContextKeyIdentity, access.FromClaims(claims.EmployeeID, claims.Capabilities))
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// RequireCapability 能力校验中间件，须在 JWTAuth 之后使用
func RequireCapability(cap access.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(ContextKeyIdentity)
		id, ok := v.(access.Identity)
		if !exists || !ok {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		if err := access.RequireCapability(id, cap); err != nil {
			response.Forbidden(c, 10003, "无权限访问")
			c.Abort()
			return
		}

		c.Next()
	}
}

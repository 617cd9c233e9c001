package middleware

import (
	"net/http"
	"strings"

	"github.com/anoixa/dicom-portal/api/common"
	"github.com/anoixa/dicom-portal/internal/access"
	"github.com/anoixa/dicom-portal/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey = "user_id"
	ContextEmailKey  = "email"
	ContextRoleKey   = "role"
	contextActorKey  = "actor"
)

// Auth 校验 Bearer 令牌并把调用者身份写入上下文
func Auth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "No Authorization request header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Authorization header must be Bearer <token>")
			return
		}

		claims, err := jwtService.ExtractClaims(strings.TrimSpace(parts[1]))
		if err != nil {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		actor := access.Actor{ID: claims.UserID, Role: claims.Role}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextEmailKey, claims.Email)
		c.Set(ContextRoleKey, string(claims.Role))
		c.Set(contextActorKey, actor)

		c.Next()
	}
}

// ActorFromContext 获取当前调用者，未认证时 ok 为 false
func ActorFromContext(c *gin.Context) (access.Actor, bool) {
	val, exists := c.Get(contextActorKey)
	if !exists {
		return access.Actor{}, false
	}
	actor, ok := val.(access.Actor)
	if !ok || !actor.Valid() {
		return access.Actor{}, false
	}
	return actor, true
}

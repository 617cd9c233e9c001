package middleware

import (
	"net/http"

	"github.com/anoixa/dicom-portal/api/common"
	"github.com/anoixa/dicom-portal/database/models"
	"github.com/gin-gonic/gin"
)

// RequireRole 检查用户是否具有指定的角色
func RequireRole(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Access denied. Not authenticated.")
			return
		}

		for _, allowed := range allowedRoles {
			if actor.Role == allowed {
				c.Next()
				return
			}
		}

		common.RespondErrorAbort(c, http.StatusForbidden, "Access denied. You do not have the required role to access this resource.")
	}
}

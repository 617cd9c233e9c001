package auth

import (
	"net/http"

	"github.com/anoixa/dicom-portal/api/common"
	"github.com/anoixa/dicom-portal/api/middleware"
	"github.com/anoixa/dicom-portal/utils/validator"
	"github.com/gin-gonic/gin"
)

// Login 邮箱密码登录，返回访问令牌
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, validator.FormatValidationError(err))
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Login successful", loginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.AccessTokenExpiry,
		User:        result.User.Summary(),
	})
}

// Me 当前登录用户
func (h *Handler) Me(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.accounts.Me(c.Request.Context(), actor.ID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, user.Summary())
}

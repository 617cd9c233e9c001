package auth

import (
	"net/http"

	"github.com/anoixa/dicom-portal/api/common"
	"github.com/anoixa/dicom-portal/database/models"
	authsvc "github.com/anoixa/dicom-portal/internal/auth"
	"github.com/anoixa/dicom-portal/utils/validator"
	"github.com/gin-gonic/gin"
)

// Register 注册新账户
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, validator.FormatValidationError(err))
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), authsvc.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Role:      models.Role(req.Role),
		Specialty: req.Specialty,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondCreated(c, user.Summary())
}

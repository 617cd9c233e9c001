package auth

import (
	"time"

	"github.com/anoixa/dicom-portal/database/models"
	authsvc "github.com/anoixa/dicom-portal/internal/auth"
)

// Handler 注册、登录与当前用户
type Handler struct {
	accounts *authsvc.AccountService
}

// NewHandler 创建认证处理器
func NewHandler(accounts *authsvc.AccountService) *Handler {
	return &Handler{accounts: accounts}
}

type registerRequest struct {
	Email     string  `json:"email" binding:"required,email,max=255"`
	Password  string  `json:"password" binding:"required,min=8,max=128"`
	Name      string  `json:"name" binding:"required,max=255"`
	Role      string  `json:"role" binding:"required,oneof=patient doctor hospital"`
	Specialty *string `json:"specialty" binding:"omitempty,max=255"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	ExpiresAt   time.Time          `json:"expires_at"`
	User        models.UserSummary `json:"user"`
}

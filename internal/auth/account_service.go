package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anoixa/dicom-portal/database/models"
	"github.com/anoixa/dicom-portal/database/repo/accounts"
	"github.com/anoixa/dicom-portal/internal/apperror"
	"github.com/anoixa/dicom-portal/utils"
	cryptopackage "github.com/anoixa/dicom-portal/utils/crypto"
	"github.com/rs/zerolog/log"
)

// ErrInvalidCredentials 邮箱不存在与密码错误返回同一个错误
var ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")

// dummyHash 邮箱不存在时仍做一次哈希比较，使两种失败耗时接近
var dummyHash, _ = cryptopackage.HashPassword("dicom-portal-timing-equalizer")

// RegisterInput 注册参数
type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	Role      models.Role
	Specialty *string
}

// LoginResult 登录结果
type LoginResult struct {
	User              *models.User
	AccessToken       string
	AccessTokenExpiry time.Time
}

// AccountService 注册与登录
type AccountService struct {
	accounts   accounts.Store
	jwtService *JWTService
}

// NewAccountService 创建账户服务
func NewAccountService(store accounts.Store, jwtService *JWTService) *AccountService {
	return &AccountService{
		accounts:   store,
		jwtService: jwtService,
	}
}

// Register 注册新用户，邮箱重复时在哈希前返回 Conflict
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := accounts.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return nil, apperror.InvalidInput("email, password and name are required")
	}
	if !in.Role.Valid() {
		return nil, apperror.InvalidInput("role must be one of patient, doctor, hospital")
	}

	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.Upstream("failed to check email", err)
	}
	if exists {
		return nil, apperror.Conflict("email already registered")
	}

	hash, err := cryptopackage.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Upstream("failed to hash password", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		Role:         in.Role,
		PasswordHash: hash,
	}
	// 专科只对医生有意义
	if in.Role == models.RoleDoctor && in.Specialty != nil {
		if specialty := strings.TrimSpace(*in.Specialty); specialty != "" {
			user.Specialty = &specialty
		}
	}

	if err := s.accounts.Insert(ctx, user); err != nil {
		if errors.Is(err, accounts.ErrEmailTaken) {
			return nil, apperror.Conflict("email already registered")
		}
		return nil, apperror.Upstream("failed to create user", err)
	}

	log.Info().
		Str("user_id", user.ID).
		Str("email", utils.SanitizeLogValue(email)).
		Str("role", string(user.Role)).
		Msg("user registered")
	return user, nil
}

// Authenticate 校验邮箱与密码
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			_, _ = cryptopackage.VerifyPassword(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Upstream("failed to load user", err)
	}

	ok, err := cryptopackage.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("stored password hash is unreadable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if cryptopackage.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, password)
	}
	return user, nil
}

// upgradeHash 旧 bcrypt 哈希登录成功后升级为 Argon2id
func (s *AccountService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := cryptopackage.HashPassword(password)
	if err == nil {
		err = s.accounts.UpdatePasswordHash(ctx, userID, hash)
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("password hash upgrade failed")
		return
	}
	log.Info().Str("user_id", userID).Msg("password hash upgraded to argon2id")
}

// Login 校验凭据并签发访问令牌
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, expiry, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, apperror.Upstream("failed to issue token", err)
	}

	return &LoginResult{
		User:              user,
		AccessToken:       token,
		AccessTokenExpiry: expiry,
	}, nil
}

// Me 返回当前用户
func (s *AccountService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.accounts.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, accounts.ErrUserNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Upstream("failed to load user", err)
	}
	return user, nil
}

// CreateUser 供命令行创建账户，与注册规则一致
func (s *AccountService) CreateUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.Register(ctx, in)
}

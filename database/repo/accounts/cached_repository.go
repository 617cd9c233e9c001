package accounts

import (
	"context"
	"time"

	"github.com/anoixa/dicom-portal/cache"
	"github.com/anoixa/dicom-portal/database/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL 默认缓存过期时间
const DefaultCacheTTL = 5 * time.Minute

// CachedRepository 带缓存的账户仓库装饰器
// 只缓存按 ID 查询的结果，且不缓存密码哈希
type CachedRepository struct {
	repo  Store
	cache cache.Provider
	ttl   time.Duration
	group singleflight.Group
}

// cachedUser 缓存的用户数据
type cachedUser struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	Specialty *string     `json:"specialty,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func fromUser(u *models.User) *cachedUser {
	return &cachedUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Specialty: u.Specialty,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (c *cachedUser) toUser() *models.User {
	return &models.User{
		ID:        c.ID,
		Email:     c.Email,
		Name:      c.Name,
		Role:      c.Role,
		Specialty: c.Specialty,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewCachedRepository 创建带缓存的账户仓库
func NewCachedRepository(repo Store, provider cache.Provider, ttl time.Duration) *CachedRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{
		repo:  repo,
		cache: provider,
		ttl:   ttl,
	}
}

// FindByEmail 登录需要密码哈希，直接查库
func (c *CachedRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.repo.FindByEmail(ctx, email)
}

// FindByID 根据 ID 获取用户（带缓存），返回的用户不含密码哈希
func (c *CachedRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	key := cache.User.BuildID(id)

	var cached cachedUser
	err := c.cache.Get(ctx, key, &cached)
	if err == nil {
		return cached.toUser(), nil
	}
	if !cache.IsCacheMiss(err) {
		log.Warn().Err(err).Str("user_id", id).Msg("user cache read failed")
	}

	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		user, err := c.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if cacheErr := c.cache.Set(ctx, key, fromUser(user), c.ttl); cacheErr != nil {
			log.Warn().Err(cacheErr).Str("user_id", id).Msg("user cache write failed")
		}
		return fromUser(user), nil
	})
	if err != nil {
		return nil, err
	}

	return val.(*cachedUser).toUser(), nil
}

// Insert 创建用户（同时清除缓存）
func (c *CachedRepository) Insert(ctx context.Context, user *models.User) error {
	if err := c.repo.Insert(ctx, user); err != nil {
		return err
	}
	c.Invalidate(ctx, user.ID)
	return nil
}

// EmailExists 检查邮箱是否已注册
func (c *CachedRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return c.repo.EmailExists(ctx, email)
}

// UpdatePasswordHash 更新密码哈希，缓存中不含哈希无需清除
func (c *CachedRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return c.repo.UpdatePasswordHash(ctx, id, hash)
}

// Invalidate 清除用户缓存
func (c *CachedRepository) Invalidate(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := c.cache.Delete(ctx, cache.User.BuildID(id)); err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("user cache invalidation failed")
	}
}

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/dicom-portal/cache"
	"github.com/anoixa/dicom-portal/config"
	"github.com/anoixa/dicom-portal/database"
	"github.com/anoixa/dicom-portal/database/repo/accounts"
	studyrepo "github.com/anoixa/dicom-portal/database/repo/studies"
	"github.com/anoixa/dicom-portal/internal/auth"
	"github.com/anoixa/dicom-portal/internal/studies"
	"github.com/anoixa/dicom-portal/internal/worker"
	"github.com/anoixa/dicom-portal/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Container 依赖注入容器 - 管理所有服务的生命周期
type Container struct {
	config *config.Config

	db      *gorm.DB
	cache   cache.Provider
	storage storage.Provider
	blobs   *storage.Store
	pool    *worker.Pool

	AccountsRepo *accounts.Repository
	Accounts     *accounts.CachedRepository
	StudiesRepo  *studyrepo.Repository

	JWTService     *auth.JWTService
	AccountService *auth.AccountService
	StudyService   *studies.Service
}

// NewContainer 创建新的依赖注入容器
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// InitDatabase 只初始化数据库与仓库，供命令行工具使用
func (c *Container) InitDatabase() error {
	db, err := database.NewDB(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	c.db = db

	c.AccountsRepo = accounts.NewRepository(db)
	c.StudiesRepo = studyrepo.NewRepository(db)
	log.Debug().Msg("database and repositories initialized")
	return nil
}

// Init 初始化所有服务
func (c *Container) Init() error {
	if c.db == nil {
		if err := c.InitDatabase(); err != nil {
			return err
		}
	}

	cacheProvider, err := cache.NewProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	c.cache = cacheProvider
	c.Accounts = accounts.NewCachedRepository(c.AccountsRepo, cacheProvider, c.config.CacheUserTTL)

	provider, err := storage.NewProvider(c.config)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.storage = provider
	c.blobs = storage.NewStore(provider, c.config.StorageDeleteTimeout)

	if err := c.initAuth(); err != nil {
		return err
	}
	c.initStudies()

	log.Info().
		Str("cache", cacheProvider.Name()).
		Str("storage", provider.Name()).
		Int("workers", c.config.GetWorkerCount()).
		Msg("container initialized")
	return nil
}

func (c *Container) initAuth() error {
	jwtService, err := auth.NewJWTService(c.config.JWTSecret, c.config.JWTExpiresIn)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	c.JWTService = jwtService
	c.AccountService = auth.NewAccountService(c.Accounts, jwtService)
	return nil
}

func (c *Container) initStudies() {
	transitions := studies.PermissiveTransitions()
	if c.config.StudyStrictTransitions {
		transitions = studies.StrictTransitions()
	}

	if c.config.StudyExtractMetadata {
		c.pool = worker.NewPool(c.config.GetWorkerCount(), c.config.WorkerQueueSize)
	}

	c.StudyService = studies.NewService(c.StudiesRepo, c.Accounts, c.blobs, c.pool, studies.Config{
		MaxUploadBytes:   c.config.UploadMaxBytes(),
		DoctorSelfAssign: c.config.StudyDoctorSelfAssign,
		Transitions:      transitions,
		ExtractMetadata:  c.config.StudyExtractMetadata,
	})
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Cache 获取缓存提供者
func (c *Container) Cache() cache.Provider {
	return c.cache
}

// Blobs 获取文件存储
func (c *Container) Blobs() *storage.Store {
	return c.blobs
}

// WorkerPool 获取后台任务池，未启用元数据解析时为 nil
func (c *Container) WorkerPool() *worker.Pool {
	return c.pool
}

// GetConfig 获取配置
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// HealthChecks 返回各依赖的健康检查函数
func (c *Container) HealthChecks() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		"database": func(ctx context.Context) error {
			return database.Ping(ctx, c.db)
		},
		"cache": func(ctx context.Context) error {
			if c.cache == nil {
				return errors.New("not initialized")
			}
			return c.cache.Health(ctx)
		},
		"storage": func(ctx context.Context) error {
			if c.blobs == nil {
				return errors.New("not initialized")
			}
			return c.blobs.Health(ctx)
		},
	}
}

// Close 关闭所有服务，先排空后台任务再断开数据库
func (c *Container) Close() error {
	var errs []error

	if c.pool != nil {
		c.pool.Stop()
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if c.db != nil {
		if err := database.Close(c.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	log.Debug().Msg("container closed")
	return errors.Join(errs...)
}

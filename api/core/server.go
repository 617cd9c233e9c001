package core

import (
	"net/http"
	"time"

	"github.com/anoixa/dicom-portal/api/middleware"
	"github.com/anoixa/dicom-portal/config"
	"github.com/anoixa/dicom-portal/internal/app"
	"github.com/anoixa/dicom-portal/utils/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter 创建 gin 引擎并注册中间件与路由，返回的 cleanup 用于停止限流器
func NewRouter(cfg *config.Config, container *app.Container) (*gin.Engine, func()) {
	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	httpLog := logger.Component("http")

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(httpLog))
	router.Use(middleware.Logger(httpLog))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	// 超出部分写入临时文件
	router.MaxMultipartMemory = 32 << 20

	authRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime)
	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	cleanup := func() {
		authRateLimiter.StopCleanup()
		apiRateLimiter.StopCleanup()
	}

	uploadConcurrency := cfg.UploadMaxConcurrency
	if uploadConcurrency <= 0 {
		uploadConcurrency = 8
	}

	RegisterRoutes(router, &RouterDependencies{
		Config:            cfg,
		JWTService:        container.JWTService,
		AccountService:    container.AccountService,
		StudyService:      container.StudyService,
		HealthChecks:      container.HealthChecks(),
		AuthRateLimiter:   authRateLimiter,
		APIRateLimiter:    apiRateLimiter,
		UploadConcurrency: middleware.NewConcurrencyLimiter(uploadConcurrency),
	})

	return router, cleanup
}

// StartServer 创建 http.Server
func StartServer(cfg *config.Config, container *app.Container) (*http.Server, func()) {
	router, cleanup := NewRouter(cfg, container)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, cleanup
}

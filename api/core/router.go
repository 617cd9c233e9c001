package core

import (
	"context"
	"time"

	"github.com/anoixa/dicom-portal/api/common"
	authHandler "github.com/anoixa/dicom-portal/api/handler/auth"
	studyHandler "github.com/anoixa/dicom-portal/api/handler/studies"
	"github.com/anoixa/dicom-portal/api/middleware"
	"github.com/anoixa/dicom-portal/config"
	"github.com/anoixa/dicom-portal/internal/auth"
	"github.com/anoixa/dicom-portal/internal/studies"
	"github.com/gin-gonic/gin"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	Config         *config.Config
	JWTService     *auth.JWTService
	AccountService *auth.AccountService
	StudyService   *studies.Service
	HealthChecks   map[string]func(ctx context.Context) error

	AuthRateLimiter   *middleware.IPRateLimiter
	APIRateLimiter    *middleware.IPRateLimiter
	UploadConcurrency *middleware.ConcurrencyLimiter
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	registerBasicRoutes(router, deps)
	registerAPIRoutes(router, deps)
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.HealthChecks, 3*time.Second)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, config.VersionInfo())
	})
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies) {
	maxBytes := studies.DefaultMaxUploadBytes
	if deps.Config != nil {
		maxBytes = deps.Config.UploadMaxBytes()
	}

	authH := authHandler.NewHandler(deps.AccountService)
	studyH := studyHandler.NewHandler(deps.StudyService, deps.AccountService, maxBytes)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) {
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.Use(limit(deps.AuthRateLimiter))
		{
			authGroup.POST("/register", authH.Register) // POST /api/auth/register
			authGroup.POST("/login", authH.Login)       // POST /api/auth/login
		}

		v1 := apiGroup.Group("/v1")
		v1.Use(limit(deps.APIRateLimiter))
		v1.Use(middleware.Auth(deps.JWTService))
		{
			v1.GET("/me", authH.Me) // GET /api/v1/me

			studiesGroup := v1.Group("/studies")
			{
				studiesGroup.GET("", studyH.ListStudies)
				studiesGroup.POST("", upload(deps.UploadConcurrency), studyH.CreateStudy)
				studiesGroup.GET("/:id", studyH.GetStudy)
				studiesGroup.GET("/:id/file", studyH.GetStudyFile) // DICOM 原文件
				studiesGroup.PATCH("/:id", studyH.UpdateStudy)
				studiesGroup.DELETE("/:id", studyH.DeleteStudy)
			}
		}
	}
}

func limit(rl *middleware.IPRateLimiter) gin.HandlerFunc {
	if rl == nil {
		return passThrough
	}
	return rl.Middleware()
}

func upload(cl *middleware.ConcurrencyLimiter) gin.HandlerFunc {
	if cl == nil {
		return passThrough
	}
	return cl.MiddlewareWithBlock(30 * time.Second)
}

func passThrough(c *gin.Context) {
	c.Next()
}
